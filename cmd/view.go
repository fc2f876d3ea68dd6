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
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/notargets/gofluid/model_problems/Fluid2D"
	"github.com/notargets/gofluid/types"
	"github.com/notargets/gofluid/writefiles"
)

// Pointer deltas are multiplied by the device scale before they reach the
// solver. Touch screens report much smaller motions per event than mice.
const (
	MouseDeltaScale = 1
	TouchDeltaScale = 10
)

// ViewCmd represents the view command
var ViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Interactive solver displayed in the terminal",
	Long: `
Runs the solver in real time and draws the chosen field with half block
characters. Drag with the left mouse button to stir the fluid.

Keys: space pauses, r adds random splats, d cycles the displayed field,
q or Esc quits.

gofluid view --simResolution 64 --dyeResolution 256`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			screen tcell.Screen
			up     Fluid2D.ConfigUpdate
		)
		sim, _ := cmd.Flags().GetInt("simResolution")
		dye, _ := cmd.Flags().GetInt("dyeResolution")
		curl, _ := cmd.Flags().GetFloat32("curl")
		field, _ := cmd.Flags().GetString("field")
		deltaScale, _ := cmd.Flags().GetFloat32("deltaScale")
		up.SimResolution, up.DyeResolution, up.CurlStrength = &sim, &dye, &curl
		df, err := types.ParseDisplayField(field)
		if err != nil {
			return
		}
		if screen, err = tcell.NewScreen(); err != nil {
			return
		}
		if err = screen.Init(); err != nil {
			return
		}
		defer screen.Fini()
		v, err := NewViewer(screen, solverConfig(up), df, deltaScale)
		if err != nil {
			return
		}
		v.Run()
		return
	},
}

func init() {
	rootCmd.AddCommand(ViewCmd)
	cfg := Fluid2D.DefaultConfig()
	ViewCmd.Flags().Int("simResolution", 64, "velocity grid resolution")
	ViewCmd.Flags().Int("dyeResolution", 256, "dye grid resolution")
	ViewCmd.Flags().Float32("curl", cfg.CurlStrength, "vorticity confinement strength")
	ViewCmd.Flags().StringP("field", "f", "dye", "field to display: dye, velocity, pressure, curl, divergence")
	ViewCmd.Flags().Float32("deltaScale", MouseDeltaScale, fmt.Sprintf("pointer delta scale, %d for touch input", TouchDeltaScale))
}

// Viewer drives a Solver from terminal events and draws it with one half
// block per pair of pixel rows.
type Viewer struct {
	screen        tcell.Screen
	solver        *Fluid2D.Solver
	df            types.DisplayField
	rng           *rand.Rand
	deltaScale    float32
	paused        bool
	width, height int
	lastFrame     time.Time
}

func NewViewer(screen tcell.Screen, cfg Fluid2D.Config, df types.DisplayField, deltaScale float32) (v *Viewer, err error) {
	var (
		seed = uint64(time.Now().UnixNano())
	)
	v = &Viewer{
		screen:     screen,
		df:         df,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
		deltaScale: deltaScale,
	}
	v.width, v.height = screen.Size()
	if v.solver, err = Fluid2D.NewSolver(cfg, v.aspect()); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.HideCursor()
	v.solver.RandomSplats(Fluid2D.InitialSplatCount(v.rng), v.rng)
	v.lastFrame = time.Now()
	return
}

// aspect is the surface aspect ratio; each cell shows two roughly square pixels.
func (v *Viewer) aspect() float32 {
	if v.width < 1 || v.height < 1 {
		return 1
	}
	return float32(v.width) / float32(2*v.height)
}

// toSurface converts a terminal cell to normalized surface coordinates, y up.
func (v *Viewer) toSurface(cx, cy int) (x, y float32) {
	x = (float32(cx) + 0.5) / float32(max(v.width, 1))
	y = 1 - (float32(cy)+0.5)/float32(max(v.height, 1))
	return
}

// scaleDelta applies the device scale and stretches the delta along the
// shorter surface axis so strokes feel the same in both directions.
func (v *Viewer) scaleDelta(p *Fluid2D.Pointer) {
	var (
		aspect = v.aspect()
	)
	p.DX *= v.deltaScale
	p.DY *= v.deltaScale
	if aspect < 1 {
		p.DX *= aspect
	}
	if aspect > 1 {
		p.DY /= aspect
	}
}

// HandleEvent applies one terminal event and reports whether the viewer should keep running.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	var (
		p = v.solver.Pointer()
	)
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'r':
				v.solver.RandomSplats(Fluid2D.InitialSplatCount(v.rng), v.rng)
			case 'd':
				v.df = (v.df + 1) % types.DisplayField(len(types.DisplayFieldPrintNames))
			}
		}
	case *tcell.EventMouse:
		x, y := v.toSurface(ev.Position())
		if ev.Buttons()&tcell.Button1 == 0 {
			if p.Down {
				p.Release()
			}
			break
		}
		if !p.Down {
			p.Press(x, y, Fluid2D.GenerateColor(v.rng))
			break
		}
		p.Move(x, y)
		v.scaleDelta(p)
	case *tcell.EventResize:
		v.width, v.height = ev.Size()
		if err := v.solver.Resize(v.aspect()); err != nil {
			Fluid2D.Logger().Error("resize", "error", err)
		}
		v.screen.Sync()
	}
	return true
}

// Frame advances the solver by the wall time since the previous frame,
// unless paused, and redraws.
func (v *Viewer) Frame(now time.Time) {
	dt := float32(now.Sub(v.lastFrame).Seconds())
	v.lastFrame = now
	if !v.paused {
		v.solver.Step(dt)
	}
	v.Draw()
}

func (v *Viewer) Draw() {
	var (
		palette = writefiles.NewPalette(writefiles.FieldFor(v.solver, v.df), v.df)
		rows    = float32(2 * v.height)
	)
	rgb := func(u, w float32) tcell.Color {
		c := palette.At(u, w)
		return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
	}
	for cy := 0; cy < v.height; cy++ {
		top := 1 - (float32(2*cy)+0.5)/rows
		bottom := 1 - (float32(2*cy)+1.5)/rows
		for cx := 0; cx < v.width; cx++ {
			u := (float32(cx) + 0.5) / float32(v.width)
			style := tcell.StyleDefault.Foreground(rgb(u, top)).Background(rgb(u, bottom))
			v.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	status := fmt.Sprintf(" %s  frame %d ", v.df.Print(), v.solver.Frame())
	if v.paused {
		status += "[paused] "
	}
	for i, r := range status {
		if i >= v.width {
			break
		}
		v.screen.SetContent(i, 0, r, nil, tcell.StyleDefault.Reverse(true))
	}
	v.screen.Show()
}

func (v *Viewer) Run() {
	ticker := time.NewTicker(16 * time.Millisecond) // ~60 FPS
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go v.pollEvents(eventChan, done)

	for {
		select {
		case ev := <-eventChan:
			if !v.HandleEvent(ev) {
				return
			}
		case now := <-ticker.C:
			v.Frame(now)
		}
	}
}

// pollEvents forwards screen events to eventChan until the screen is
// finalized or done is closed.
func (v *Viewer) pollEvents(eventChan chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case eventChan <- ev:
		case <-done:
			return
		}
	}
}
