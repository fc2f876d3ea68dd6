package writefiles

import (
	"image/color"
	"math"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/model_problems/Fluid2D"
	"github.com/notargets/gofluid/types"
)

// FieldFor returns the solver field shown for df.
func FieldFor(s *Fluid2D.Solver, df types.DisplayField) (r grid.Reader) {
	switch df {
	case types.FIELD_Velocity:
		r = s.VelocityField()
	case types.FIELD_Pressure:
		r = s.PressureField()
	case types.FIELD_Curl:
		r = s.CurlField()
	case types.FIELD_Divergence:
		r = s.DivergenceField()
	default:
		r = s.DyeField()
	}
	return
}

// Palette maps a field to colours. Dye is shown as clamped RGB, velocity as
// a grey ramp of speed and signed fields on a blue-white-red ramp; the last
// two are normalized by the largest magnitude in the field.
type Palette struct {
	field grid.Reader
	df    types.DisplayField
	scale float32
}

func NewPalette(r grid.Reader, df types.DisplayField) (p *Palette) {
	var (
		data = r.Data()
		nc   = r.Components()
		peak float64
	)
	p = &Palette{field: r, df: df, scale: 1}
	if df == types.FIELD_Dye {
		return
	}
	for i := 0; i < len(data); i += nc {
		var m float64
		if df == types.FIELD_Velocity && nc >= 2 {
			m = math.Hypot(float64(data[i]), float64(data[i+1]))
		} else {
			m = math.Abs(float64(data[i]))
		}
		if m > peak && !math.IsInf(m, 0) {
			peak = m
		}
	}
	if peak > 0 {
		p.scale = float32(1 / peak)
	}
	return
}

func clamp01(f float32) float32 {
	if !(f > 0) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func to8(f float32) uint8 {
	return uint8(clamp01(f)*255 + 0.5)
}

// At samples the field at normalized (u, v), v increasing upwards.
func (p *Palette) At(u, v float32) (c color.RGBA) {
	var (
		r = p.field
	)
	c.A = 255
	switch {
	case p.df == types.FIELD_Dye:
		c.R = to8(r.SampleBilinear(u, v, 0))
		c.G = to8(r.SampleBilinear(u, v, 1))
		c.B = to8(r.SampleBilinear(u, v, 2))
	case p.df.Signed():
		s := r.SampleBilinear(u, v, 0) * p.scale
		if s >= 0 {
			c.R, c.G, c.B = 255, to8(1-s), to8(1-s)
		} else {
			c.R, c.G, c.B = to8(1+s), to8(1+s), 255
		}
	default:
		vx, vy := r.SampleBilinear(u, v, 0), r.SampleBilinear(u, v, 1)
		g := to8(float32(math.Sqrt(float64(vx*vx+vy*vy))) * p.scale)
		c.R, c.G, c.B = g, g, g
	}
	return
}
