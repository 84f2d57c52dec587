/*dwiml_track seeds streamlines in a tracking mask and propagates them
through an input volume, writing the result as a .lines file.

	dwiml_track -Track track.cfg
	dwiml_track -ExampleConfig Track
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/levje/dwi-ml/model"
	"github.com/levje/dwi-ml/tracking"
	"github.com/levje/dwi-ml/volume"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		trackStr      string
		exampleConfig string
		threads       int
	)

	flag.StringVar(
		&trackStr, "Track", "",
		"Configuration file for [Tracking] mode.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. 'Track' is the only accepted argument.",
	)
	flag.IntVar(
		&threads, "Threads", runtime.NumCPU(),
		"Number of OS threads used. Default is the number of logical cores.",
	)

	flag.Parse()
	runtime.GOMAXPROCS(threads)

	switch {
	case exampleConfig != "":
		switch exampleConfig {
		case "Track":
			fmt.Println(tracking.ExampleTrackFile)
		default:
			log.Fatalf(
				"Unrecognized -ExampleConfig argument '%s'.", exampleConfig,
			)
		}
	case trackStr != "":
		con, err := tracking.ReadTrackConfig(trackStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		trackMain(con)
	default:
		log.Fatal("Either -Track or -ExampleConfig must be given.")
	}
}

func trackMain(con *tracking.TrackConfig) {
	fg := new(FileGroup)
	defer fg.Close()

	if con.ValidLogFile() {
		setupLog(con, fg)
	}
	if con.ValidProfileFile() {
		setupProfile(con, fg)
	}

	src, err := volume.NewFileSource(con.Input, volume.CPU)
	if err != nil {
		log.Fatal(err.Error())
	}
	maskVol, err := volume.ReadVolumeFile(con.Mask, volume.CPU)
	if err != nil {
		log.Fatal(err.Error())
	}
	mask := volume.NewMask(maskVol.Data, volume.CPU)

	var m model.Model
	switch con.Model {
	case "Field":
		if src.Volume().Channels() < 3 {
			log.Fatalf(
				"Model 'Field' needs a volume with >= 3 channels, "+
					"%s has %d.", con.Input, src.Volume().Channels(),
			)
		}
		m = &model.VectorField{}
	case "CopyPrev":
		m = &model.CopyPrev{}
	}

	prop := tracking.NewModelPropagator(
		src, m, float32(con.StepSize), float32(con.Theta),
	)
	tk, err := tracking.New(
		prop, mask, tracking.NewSeedGenerator(mask), con.Params(),
	)
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf("Tracking %d seeds with %d workers.", con.Seeds, con.Workers)
	lines, err := tk.Track()
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Printf("Kept %d of %d streamlines.", len(lines), con.Seeds)

	if err := tracking.WriteLinesFile(con.Output, lines); err != nil {
		log.Fatal(err.Error())
	}

	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	log.Printf("Alloc: %5d MB, Sys: %5d MB", ms.Alloc>>20, ms.Sys>>20)
}

func setupLog(con *tracking.TrackConfig, fg *FileGroup) {
	f, err := os.Create(con.LogFile)
	if err != nil {
		log.Fatal(err.Error())
	}
	log.SetOutput(f)
	fg.log = f
}

func setupProfile(con *tracking.TrackConfig, fg *FileGroup) {
	f, err := os.Create(con.ProfileFile)
	if err != nil {
		log.Fatal(err.Error())
	}
	err = pprof.StartCPUProfile(f)
	if err != nil {
		log.Fatal(err.Error())
	}
	fg.prof = f
}
