package utils

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
)

// PoissonOperator is the five point Laplacian of a width x height grid with
// clamp-to-edge neighbours, stored as CSR. Row y*width+x couples cell (x, y)
// to its left, right, top and bottom neighbours; a clamped neighbour folds
// back onto the diagonal.
type PoissonOperator struct {
	Width, Height int
	A             *sparse.CSR
}

func NewPoissonOperator(width, height int) (po *PoissonOperator) {
	var (
		N   = width * height
		dok = sparse.NewDOK(N, N)
	)
	clamp := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v >= max {
			return max - 1
		}
		return v
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			row := y*width + x
			dok.Set(row, row, dok.At(row, row)-4)
			for _, nb := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y + 1}, {x, y - 1}} {
				col := clamp(nb[1], height)*width + clamp(nb[0], width)
				dok.Set(row, col, dok.At(row, col)+1)
			}
		}
	}
	po = &PoissonOperator{
		Width:  width,
		Height: height,
		A:      dok.ToCSR(),
	}
	return
}

// Apply computes Ap for a pressure field stored row-major.
func (po *PoissonOperator) Apply(p []float32) (Ap []float64, err error) {
	var (
		N   = po.Width * po.Height
		p64 = make([]float64, len(p))
	)
	if len(p) != N {
		err = fmt.Errorf("pressure length %d does not match %dx%d grid", len(p), po.Width, po.Height)
		return
	}
	for i, v := range p {
		p64[i] = float64(v)
	}
	Ap = make([]float64, N)
	po.A.MulVecTo(Ap, false, p64)
	return
}

// Residual returns the RMS of div - Ap, the error left in the pressure
// Poisson equation solved by the Jacobi iterations.
func (po *PoissonOperator) Residual(p, div []float32) (rms float64, err error) {
	var (
		Ap []float64
	)
	if Ap, err = po.Apply(p); err != nil {
		return
	}
	if len(div) != len(Ap) {
		err = fmt.Errorf("divergence length %d does not match %d", len(div), len(Ap))
		return
	}
	for i, ap := range Ap {
		r := float64(div[i]) - ap
		rms += r * r
	}
	rms = math.Sqrt(rms / float64(len(Ap)))
	return
}
