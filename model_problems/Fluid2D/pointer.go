package Fluid2D

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

type Color struct {
	R, G, B float32
}

func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Pointer is the input state shared between the input collector and the
// solver. Positions are normalized to [0,1] with y increasing upwards;
// deltas are in the same units.
type Pointer struct {
	X, Y   float32
	DX, DY float32
	Down   bool
	Moved  bool
	Color  Color
}

// Move records a pointer motion to (x, y). The first motion after Press only
// sets the position.
func (p *Pointer) Move(x, y float32) {
	p.DX, p.DY = x-p.X, y-p.Y
	p.X, p.Y = x, y
	p.Moved = p.Down && (p.DX != 0 || p.DY != 0)
}

func (p *Pointer) Press(x, y float32, c Color) {
	p.X, p.Y = x, y
	p.DX, p.DY = 0, 0
	p.Down = true
	p.Moved = false
	p.Color = c
}

func (p *Pointer) Release() {
	p.Down = false
	p.Moved = false
}

// GenerateColor returns a random fully saturated hue at 15% brightness,
// the intensity used for pointer splats.
func GenerateColor(rng *rand.Rand) (c Color) {
	c = HueColor(rng.Float32()).Scale(0.15)
	return
}

// HueColor is the fully saturated, full value colour at hue h in [0,1).
func HueColor(h float32) (c Color) {
	var (
		hsv = colorful.Hsv(float64(h)*360, 1, 1)
	)
	c = Color{R: float32(hsv.R), G: float32(hsv.G), B: float32(hsv.B)}
	return
}
