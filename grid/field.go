package grid

import (
	"errors"
	"fmt"
	"math"
)

// MaxCells bounds the number of cells of a single field. It keeps a bad
// resolution from turning into a multi-gigabyte allocation.
var MaxCells = 1 << 26

var ErrAllocation = errors.New("field allocation failed")

// Reader is the read-only view of a Field handed out to presenters.
type Reader interface {
	Dims() (width, height int)
	Components() int
	At(x, y, c int) float32
	SampleBilinear(u, v float32, c int) float32
	Data() []float32
}

// Field is a row-major 2D grid of float32 cells with 1-4 components each.
// Cell (x, y) starts at index (y*Width + x)*Components.
type Field struct {
	width, height, components int
	data                      []float32
}

func New(width, height, components int) (f *Field, err error) {
	var (
		cells int
	)
	if width <= 0 || height <= 0 {
		err = fmt.Errorf("%w: invalid dimensions %dx%d", ErrAllocation, width, height)
		return
	}
	if components < 1 || components > 4 {
		err = fmt.Errorf("%w: invalid component count %d", ErrAllocation, components)
		return
	}
	if width > math.MaxInt32/height {
		err = fmt.Errorf("%w: %dx%d overflows", ErrAllocation, width, height)
		return
	}
	cells = width * height
	if cells > MaxCells {
		err = fmt.Errorf("%w: %dx%d exceeds %d cells", ErrAllocation, width, height, MaxCells)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	f = &Field{
		width:      width,
		height:     height,
		components: components,
		data:       make([]float32, cells*components),
	}
	return
}

func (f *Field) Dims() (width, height int) { return f.width, f.height }

func (f *Field) Components() int { return f.components }

// Data exposes the backing slice. Readers must not write through it.
func (f *Field) Data() []float32 { return f.data }

// TexelSize is the size of one cell in normalized coordinates.
func (f *Field) TexelSize() (tx, ty float32) {
	tx, ty = 1/float32(f.width), 1/float32(f.height)
	return
}

// UV returns the normalized coordinate of the centre of cell (x, y).
func (f *Field) UV(x, y int) (u, v float32) {
	u = (float32(x) + 0.5) / float32(f.width)
	v = (float32(y) + 0.5) / float32(f.height)
	return
}

func (f *Field) clamp(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= f.width {
		x = f.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.height {
		y = f.height - 1
	}
	return x, y
}

func (f *Field) index(x, y int) int {
	return (y*f.width + x) * f.components
}

// At returns component c of cell (x, y); out of range coordinates clamp to the edge.
func (f *Field) At(x, y, c int) float32 {
	x, y = f.clamp(x, y)
	return f.data[f.index(x, y)+c]
}

// Cell returns the component slice of cell (x, y), which must be in range.
func (f *Field) Cell(x, y int) []float32 {
	var (
		ind = f.index(x, y)
	)
	return f.data[ind : ind+f.components : ind+f.components]
}

func (f *Field) Set(x, y, c int, val float32) {
	f.data[f.index(x, y)+c] = val
}

// SampleBilinear interpolates component c at normalized coordinate (u, v).
// Texel centres sit at ((x+0.5)/W, (y+0.5)/H) and lookups outside the grid
// clamp to the edge texels.
func (f *Field) SampleBilinear(u, v float32, c int) float32 {
	var (
		px     = u*float32(f.width) - 0.5
		py     = v*float32(f.height) - 0.5
		x0f    = float32(math.Floor(float64(px)))
		y0f    = float32(math.Floor(float64(py)))
		fx, fy = px - x0f, py - y0f
		x0, y0 = int(x0f), int(y0f)
	)
	if px != px || py != py { // NaN coordinates propagate
		return float32(math.NaN())
	}
	a := f.At(x0, y0, c)
	b := f.At(x0+1, y0, c)
	cc := f.At(x0, y0+1, c)
	d := f.At(x0+1, y0+1, c)
	return (a*(1-fx)+b*fx)*(1-fy) + (cc*(1-fx)+d*fx)*fy
}

// Fill sets component c of every cell to vals[c%len(vals)].
func (f *Field) Fill(vals ...float32) {
	if len(vals) == 0 {
		clear(f.data)
		return
	}
	for i := range f.data {
		f.data[i] = vals[i%f.components%len(vals)]
	}
}

// Scale multiplies every value by s. A zero factor clears the field.
func (f *Field) Scale(s float32) {
	if s == 0 {
		clear(f.data)
		return
	}
	for i := range f.data {
		f.data[i] *= s
	}
}

// Snapshot returns an independent copy of the field.
func (f *Field) Snapshot() (s *Field) {
	s = &Field{
		width:      f.width,
		height:     f.height,
		components: f.components,
		data:       make([]float32, len(f.data)),
	}
	copy(s.data, f.data)
	return
}
