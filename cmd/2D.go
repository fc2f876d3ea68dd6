/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gofluid/InputParameters"
	"github.com/notargets/gofluid/model_problems/Fluid2D"
	"github.com/notargets/gofluid/types"
	"github.com/notargets/gofluid/utils"
	"github.com/notargets/gofluid/writefiles"
)

type Model2D struct {
	ICFile       string
	OutputDir    string
	PlotSteps    int
	ImageWidth   int // 0 uses the surface size from the input file
	ImageHeight  int
	Profile      string
	PerfCounters bool
	DumpFields   bool
}

// TwoDCmd represents the 2D command
var TwoDCmd = &cobra.Command{
	Use:   "2D",
	Short: "Two dimensional solver, runs a scripted case and writes frames and statistics",
	Long: `
Runs the stable fluids solver without a display for the number of frames in
the input file, applying the scripted splats. Every plotSteps frames a PNG of
the chosen display field and a row of stats.csv are written to the output
directory.

gofluid 2D -I case.yaml -o run1 -s 10`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip *InputParameters.InputParameters2D
		)
		m2d := &Model2D{}
		if m2d.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			return
		}
		m2d.OutputDir, _ = cmd.Flags().GetString("outputDir")
		m2d.PlotSteps, _ = cmd.Flags().GetInt("plotSteps")
		m2d.ImageWidth, _ = cmd.Flags().GetInt("imageWidth")
		m2d.ImageHeight, _ = cmd.Flags().GetInt("imageHeight")
		m2d.Profile, _ = cmd.Flags().GetString("profile")
		m2d.PerfCounters, _ = cmd.Flags().GetBool("perfCounters")
		m2d.DumpFields, _ = cmd.Flags().GetBool("dumpFields")
		if ip, err = processInput(m2d); err != nil {
			return
		}
		switch m2d.Profile {
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(m2d.OutputDir), profile.NoShutdownHook).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(m2d.OutputDir), profile.NoShutdownHook).Stop()
		case "":
		default:
			return fmt.Errorf("unknown profile type %q, use cpu or mem", m2d.Profile)
		}
		return Run2D(m2d, ip)
	},
}

const exampleFile = `
########################################
Title: "Two Jets"
SimResolution: 128
DyeResolution: 512
Width: 1280
Height: 720
Frames: 300
RandomSplats: 0
Splats:
  - {Frame: 0, X: 0.2, Y: 0.5, DX: 800, DY: 0, Color: [0.9, 0.2, 0.1]}
  - {Frame: 0, X: 0.8, Y: 0.5, DX: -800, DY: 0, Color: [0.1, 0.3, 0.9]}
########################################
`

func processInput(m2d *Model2D) (ip *InputParameters.InputParameters2D, err error) {
	var (
		data []byte
	)
	if len(m2d.ICFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile), for example:%s", exampleFile)
		return
	}
	if data, err = os.ReadFile(m2d.ICFile); err != nil {
		return
	}
	ip = &InputParameters.InputParameters2D{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", m2d.ICFile, err)
	}
	if m2d.PlotSteps < 1 {
		m2d.PlotSteps = 1
	}
	if m2d.ImageWidth == 0 || m2d.ImageHeight == 0 {
		m2d.ImageWidth, m2d.ImageHeight = ip.Width, ip.Height
	}
	return
}

func init() {
	rootCmd.AddCommand(TwoDCmd)
	TwoDCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- SimResolution\n\t- Frames\n\t- Splats")
	TwoDCmd.Flags().StringP("outputDir", "o", "", "directory for frames and statistics, empty disables output")
	TwoDCmd.Flags().IntP("plotSteps", "s", 1, "number of frames between each output frame")
	TwoDCmd.Flags().Int("imageWidth", 0, "width of output images, defaults to the input file surface width")
	TwoDCmd.Flags().Int("imageHeight", 0, "height of output images, defaults to the input file surface height")
	TwoDCmd.Flags().String("profile", "", "write a cpu or mem profile to the output directory")
	TwoDCmd.Flags().Bool("perfCounters", false, "count CPU instructions for the run (linux)")
	TwoDCmd.Flags().Bool("dumpFields", false, "write the final dye, velocity and pressure fields")
}

func Run2D(m2d *Model2D, ip *InputParameters.InputParameters2D) (err error) {
	var (
		s  *Fluid2D.Solver
		om *writefiles.OutputManager
		df = types.NewDisplayField(ip.DisplayField)
	)
	if s, err = Fluid2D.NewSolver(solverConfig(ip.ConfigUpdate()), ip.Aspect()); err != nil {
		return
	}
	if om, err = writefiles.NewOutputManager(m2d.OutputDir); err != nil {
		return
	}
	defer om.Close()
	ip.Print()
	simW, simH, dyeW, dyeH := s.Resolution()
	fmt.Printf("Stable fluids in 2 dimensions\n")
	fmt.Printf("Simulation grid %d x %d, dye grid %d x %d, displaying %s\n\n", simW, simH, dyeW, dyeH, df.Print())

	rng := rand.New(rand.NewPCG(ip.Seed, ip.Seed))
	nRandom := ip.RandomSplats
	if nRandom < 0 {
		nRandom = Fluid2D.InitialSplatCount(rng)
	}
	s.RandomSplats(nRandom, rng)

	run := func() error { return solve(s, m2d, ip, om, df) }
	if !m2d.PerfCounters {
		return run()
	}
	var (
		ran          bool
		instructions uint64
	)
	instructions, err = countInstructions(func() error {
		ran = true
		return run()
	})
	if err != nil && !ran {
		Fluid2D.Logger().Warn("hardware counters unavailable", "error", err)
		return run()
	}
	if err == nil {
		fmt.Printf("CPU instructions: %d (%.1f per frame)\n", instructions, float64(instructions)/float64(max(ip.Frames, 1)))
	}
	return
}

func solve(s *Fluid2D.Solver, m2d *Model2D, ip *InputParameters.InputParameters2D,
	om *writefiles.OutputManager, df types.DisplayField) (err error) {
	var (
		elapsed time.Duration
		start   time.Time
		step    time.Duration
	)
	for frame := 0; frame < ip.Frames; frame++ {
		for _, sp := range ip.SplatsAt(frame) {
			s.Splat(sp.X, sp.Y, sp.DX, sp.DY, Fluid2D.Color{R: sp.Color[0], G: sp.Color[1], B: sp.Color[2]})
		}
		start = time.Now()
		s.Step(ip.DT)
		step = time.Since(start)
		elapsed += step
		if frame%m2d.PlotSteps != 0 && frame != ip.Frames-1 {
			continue
		}
		st := s.Stats()
		fmt.Printf("Frame %6d, step %8.3f ms, |div| %10.3e -> %10.3e, KE %12.5e, dye %12.5e\n",
			st.Frame, float64(step.Microseconds())/1000, st.MeanAbsDivergencePre, st.MeanAbsDivergence,
			st.KineticEnergy, st.TotalDye)
		if err = om.WriteStats(writefiles.FrameRecord{Stats: st, StepMillis: float64(step.Microseconds()) / 1000}); err != nil {
			return
		}
		palette := writefiles.NewPalette(writefiles.FieldFor(s, df), df)
		if err = om.WriteFrame(st.Frame, palette, m2d.ImageWidth, m2d.ImageHeight); err != nil {
			return
		}
	}
	if m2d.DumpFields {
		if err = om.DumpSolution(s); err != nil {
			return
		}
	}
	fmt.Printf("\nFrames = %d, total step time = %v, %.3f ms per frame\n",
		ip.Frames, elapsed, float64(elapsed.Microseconds())/1000/float64(max(ip.Frames, 1)))
	fmt.Println(utils.GetMemUsage())
	return
}
