package tracking

import (
	"fmt"

	"github.com/goki/mat32"

	"github.com/levje/dwi-ml/volume"
)

// Params bundles the stopping criteria and batch limits of a tracking
// run.
type Params struct {
	// MinPoints and MaxPoints bound the length of a kept streamline.
	MinPoints, MaxPoints int
	// MaxInvalidDirs is the longest tolerated run of consecutive
	// rejected directions before a streamline terminates.
	MaxInvalidDirs int

	// Seeds is the number of streamlines to seed.
	Seeds int
	// RngSeed and Skip position the seed generator: the run draws the
	// seeds a previous run with the same RngSeed would draw after its
	// first Skip.
	RngSeed int64
	Skip    int

	// ForwardOnly disables the backward phase.
	ForwardOnly bool
	// Workers splits the seeds over parallel workers, each owning its
	// own propagator copy. More than 2 workers require a
	// reload-capable data source.
	Workers int
}

// Tracker seeds streamlines and propagates them until every one hits a
// stopping criterion. It owns no model or volume itself; those live
// behind the Propagator.
type Tracker struct {
	prop  Propagator
	mask  *volume.Mask
	seeds *SeedGenerator
	par   Params
}

// New builds a tracker. Configuration errors, including asking for a
// worker pool that the data source cannot feed, are reported here,
// before anything is seeded or any worker starts.
func New(
	prop Propagator, mask *volume.Mask, seeds *SeedGenerator, par Params,
) (*Tracker, error) {
	switch {
	case par.MinPoints < 1 || par.MinPoints > par.MaxPoints:
		return nil, fmt.Errorf(
			"need 1 <= MinPoints <= MaxPoints, got [%d, %d]",
			par.MinPoints, par.MaxPoints,
		)
	case par.MaxInvalidDirs < 0:
		return nil, fmt.Errorf(
			"MaxInvalidDirs is %d, must be >= 0", par.MaxInvalidDirs,
		)
	case par.Seeds < 1:
		return nil, fmt.Errorf("Seeds is %d, must be >= 1", par.Seeds)
	case par.Workers < 1:
		return nil, fmt.Errorf("Workers is %d, must be >= 1", par.Workers)
	}

	if par.Workers > 2 && !prop.Lazy() {
		return nil, fmt.Errorf(
			"tracking with %d workers requires a reload-capable "+
				"data source", par.Workers,
		)
	}

	return &Tracker{prop: prop, mask: mask, seeds: seeds, par: par}, nil
}

// Track runs the whole configured tracking job and returns the kept
// streamlines in seed order.
func (tk *Tracker) Track() ([]*Streamline, error) {
	rng := tk.seeds.InitGenerator(tk.par.RngSeed, tk.par.Skip)
	seeds := tk.seeds.NextNPos(rng, tk.par.Seeds)

	if tk.par.Workers <= 1 {
		return tk.TrackBatch(seeds), nil
	}
	return tk.trackPool(seeds)
}

// TrackBatch tracks all the given seeds as one lockstep batch: one
// interpolation and one model call per step for the whole active set.
func (tk *Tracker) TrackBatch(seeds []mat32.Vec3) []*Streamline {
	return tk.linesBothDirections(tk.prop, seeds)
}

// trackPool splits the seeds over Workers workers. The main
// propagator's data is dropped before the pool starts and reloaded by
// each worker's copy, then restored once the pool drains.
func (tk *Tracker) trackPool(seeds []mat32.Vec3) ([]*Streamline, error) {
	workers := tk.par.Workers
	if err := tk.prop.ResetData(false); err != nil {
		return nil, err
	}

	chunks := splitSeeds(seeds, workers)
	results := make([][]*Streamline, workers)
	errs := make([]error, workers)
	out := make(chan int, workers)

	for id := 0; id < workers; id++ {
		go func(id int) {
			wp := tk.prop.ThreadCopy(id, workers)
			if err := wp.ResetData(true); err != nil {
				errs[id] = err
				out <- id
				return
			}
			results[id] = tk.linesBothDirections(wp, chunks[id])
			out <- id
		}(id)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	if err := tk.prop.ResetData(true); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Concatenating in chunk order preserves seed order.
	lines := []*Streamline{}
	for _, res := range results {
		lines = append(lines, res...)
	}
	return lines, nil
}

func splitSeeds(seeds []mat32.Vec3, workers int) [][]mat32.Vec3 {
	chunks := make([][]mat32.Vec3, workers)
	low := 0
	for id := 0; id < workers; id++ {
		high := (len(seeds) * (id + 1)) / workers
		chunks[id] = seeds[low:high]
		low = high
	}
	return chunks
}

// linesBothDirections grows one streamline per seed: forward first,
// then, unless ForwardOnly is set, reversed and continued backward from
// the seed end. Lines whose final length falls outside
// [MinPoints, MaxPoints] are discarded.
func (tk *Tracker) linesBothDirections(
	prop Propagator, seeds []mat32.Vec3,
) []*Streamline {
	lines := make([]*Streamline, len(seeds))
	for i, seed := range seeds {
		lines[i] = NewStreamline(seed, tk.par.MaxPoints)
	}

	info := prop.PrepareForward(seeds)
	tk.propagateLines(prop, lines, info)

	if !tk.par.ForwardOnly {
		for _, ln := range lines {
			ln.reactivate()
			if ln.Len() > 1 {
				ln.Reverse()
			}
		}
		info = prop.PrepareBackward(lines, info)
		tk.propagateLines(prop, lines, info)
	}

	clean := []*Streamline{}
	for _, ln := range lines {
		if tk.par.MinPoints <= ln.Len() && ln.Len() <= tk.par.MaxPoints {
			clean = append(clean, ln)
		}
	}
	return clean
}

// propagateLines advances every line in the active set until each hits
// a stopping criterion or the global step budget runs out. The info
// rows always align with the active set: terminated rows are removed
// from the batch, not zeroed in place, so a finished streamline's
// context is never touched again.
func (tk *Tracker) propagateLines(
	prop Propagator, lines []*Streamline, info Info,
) {
	active := []int{}
	for i, ln := range lines {
		if ln.Status() == Terminated {
			continue
		}
		if ln.Len() >= tk.par.MaxPoints {
			ln.Terminate()
			continue
		}
		active = append(active, i)
	}
	info = info.Keep(active)

	for steps := 0; len(active) > 0 && steps < tk.par.MaxPoints; steps++ {
		pos := make([]mat32.Vec3, len(active))
		for r, li := range active {
			pos[r] = lines[li].Last()
		}

		next, newInfo, valid := prop.Propagate(pos, info)

		keep := make([]int, 0, len(active))
		for r, li := range active {
			ln := lines[li]
			if valid[r] {
				ln.InvalidCount = 0
			} else {
				ln.InvalidCount++
			}

			switch {
			case ln.InvalidCount > tk.par.MaxInvalidDirs:
				ln.Terminate()
			case !tk.mask.Contains(next[r]):
				tk.finalize(prop, ln, newInfo, r)
				ln.Terminate()
			case next[r] == pos[r]:
				// A step with no usable direction at all (rejected with
				// nothing to fall back on) does not add a point.
				keep = append(keep, r)
			default:
				ln.Append(next[r])
				if ln.Len() >= tk.par.MaxPoints {
					ln.Terminate()
				} else {
					keep = append(keep, r)
				}
			}
		}

		stillActive := make([]int, len(keep))
		for i, r := range keep {
			stillActive[i] = active[r]
		}
		active = stillActive
		info = newInfo.Keep(keep)
	}

	// Lines still going when the step budget ran out may take one last
	// partial step.
	for r, li := range active {
		ln := lines[li]
		tk.finalize(prop, ln, info, r)
		ln.Terminate()
	}
}

// finalize appends the propagator's optional last partial step, but
// only if it actually moves and stays inside the tracking mask.
func (tk *Tracker) finalize(
	prop Propagator, ln *Streamline, info Info, row int,
) {
	fin, ok := prop.FinalizeStreamline(ln.Last(), info, row)
	if !ok || fin == ln.Last() || !tk.mask.Contains(fin) {
		return
	}
	ln.Append(fin)
}
