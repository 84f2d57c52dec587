package tracking

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

const (
	ExampleTrackFile = `[Tracking]

#######################
# Required Parameters #
#######################

# Input volume (.nvol) whose values are interpolated along streamlines.
# A rank-4 volume whose first three channels form a direction field can
# be tracked with Model = Field; rank-3 volumes need Model = CopyPrev.
Input = path/to/input.nvol

# Binary tracking mask (.nvol, rank 3). Streamlines stop on leaving it.
# Seeds are drawn from it too.
Mask = path/to/mask.nvol

# Output streamline file (.lines).
Output = path/to/output.lines

# Number of streamlines to seed.
Seeds = 1000

#######################
# Optional Parameters #
#######################

# Direction model. One of [ Field | CopyPrev ].
# Model = Field

# Distance between consecutive streamline points, in voxels.
# StepSize = 0.5

# Largest accepted bend per step, in degrees.
# Theta = 20

# Kept streamlines have between MinPoints and MaxPoints points.
# MinPoints = 10
# MaxPoints = 200

# Longest tolerated run of consecutive rejected directions.
# MaxInvalidDirs = 1

# Seed generator state. Skip reproduces a run that already consumed its
# first Skip draws.
# RngSeed = 1234
# Skip = 0

# Only track away from the seed, skipping the backward phase.
# ForwardOnly = false

# Number of parallel workers. More than 2 require the input volume to
# come from a file, so each worker can reload it on its own.
# Workers = 1

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out`
)

type TrackConfig struct {
	// Required
	Input, Mask, Output string
	Seeds               int

	// Optional
	Model          string
	StepSize       float64
	Theta          float64
	MinPoints      int
	MaxPoints      int
	MaxInvalidDirs int
	RngSeed        int64
	Skip           int
	ForwardOnly    bool
	Workers        int

	LogFile, ProfileFile string
}

type TrackWrapper struct {
	Tracking TrackConfig
}

func DefaultTrackWrapper() *TrackWrapper {
	con := TrackConfig{}
	con.Model = "Field"
	con.StepSize = 0.5
	con.Theta = 20
	con.MinPoints = 10
	con.MaxPoints = 200
	con.MaxInvalidDirs = 1
	con.RngSeed = 1234
	con.Workers = 1
	return &TrackWrapper{con}
}

func (con *TrackConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *TrackConfig) ValidMask() bool {
	return con.Mask != ""
}
func (con *TrackConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *TrackConfig) ValidSeeds() bool {
	return con.Seeds > 0
}
func (con *TrackConfig) ValidModel() bool {
	return con.Model == "Field" || con.Model == "CopyPrev"
}
func (con *TrackConfig) ValidStepSize() bool {
	return con.StepSize > 0
}
func (con *TrackConfig) ValidTheta() bool {
	return con.Theta > 0 && con.Theta <= 180
}
func (con *TrackConfig) ValidMinPoints() bool {
	return con.MinPoints >= 1 && con.MinPoints <= con.MaxPoints
}
func (con *TrackConfig) ValidMaxInvalidDirs() bool {
	return con.MaxInvalidDirs >= 0
}
func (con *TrackConfig) ValidWorkers() bool {
	return con.Workers >= 1
}
func (con *TrackConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *TrackConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// CheckInit reports the first invalid field of a parsed config.
func (con *TrackConfig) CheckInit() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("config variable 'Input' not set")
	case !con.ValidMask():
		return fmt.Errorf("config variable 'Mask' not set")
	case !con.ValidOutput():
		return fmt.Errorf("config variable 'Output' not set")
	case !con.ValidSeeds():
		return fmt.Errorf("config variable 'Seeds' must be positive")
	case !con.ValidModel():
		return fmt.Errorf(
			"config variable 'Model' must be 'Field' or 'CopyPrev', "+
				"not '%s'", con.Model,
		)
	case !con.ValidStepSize():
		return fmt.Errorf("config variable 'StepSize' must be positive")
	case !con.ValidTheta():
		return fmt.Errorf("config variable 'Theta' must be in (0, 180]")
	case !con.ValidMinPoints():
		return fmt.Errorf(
			"config variables must obey 1 <= MinPoints <= MaxPoints, "+
				"got [%d, %d]", con.MinPoints, con.MaxPoints,
		)
	case !con.ValidMaxInvalidDirs():
		return fmt.Errorf(
			"config variable 'MaxInvalidDirs' must be >= 0",
		)
	case !con.ValidWorkers():
		return fmt.Errorf("config variable 'Workers' must be >= 1")
	}
	return nil
}

// ReadTrackConfig parses and validates a [Tracking] config file.
func ReadTrackConfig(fname string) (*TrackConfig, error) {
	wrap := DefaultTrackWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Tracking.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Tracking, nil
}

// Params converts the streamline limits of a config into tracker
// Params.
func (con *TrackConfig) Params() Params {
	return Params{
		MinPoints:      con.MinPoints,
		MaxPoints:      con.MaxPoints,
		MaxInvalidDirs: con.MaxInvalidDirs,
		Seeds:          con.Seeds,
		RngSeed:        con.RngSeed,
		Skip:           con.Skip,
		ForwardOnly:    con.ForwardOnly,
		Workers:        con.Workers,
	}
}
