package Fluid2D

import (
	"math"
	"math/rand/v2"

	"github.com/notargets/gofluid/grid"
)

// splatRadius converts the configured radius to the Gaussian width used by
// the kernel, widened on landscape surfaces so splats stay circular.
func (s *Solver) splatRadius() (r float32) {
	r = s.cfg.SplatRadius / 100
	if s.aspect > 1 {
		r *= s.aspect
	}
	return
}

// Splat adds a Gaussian impulse centred on (x, y) to the velocity and a
// matching blob of colour to the dye. Splats accumulate without bound.
func (s *Solver) Splat(x, y, dx, dy float32, color Color) {
	var (
		r = s.splatRadius()
	)
	s.splatField(s.velocity, x, y, r, []float32{dx, dy})
	s.splatField(s.dye, x, y, r, []float32{color.R, color.G, color.B})
}

func (s *Solver) splatField(target *grid.DoubleBuffer, x, y, radius float32, value []float32) {
	var (
		src    = target.Read
		dst    = target.Write
		aspect = s.aspect
	)
	s.exec.Run(dst, func(i, j int, out []float32) {
		u, v := dst.UV(i, j)
		px := (u - x) * aspect
		py := v - y
		g := float32(math.Exp(float64(-(px*px + py*py) / radius)))
		base := src.Cell(i, j)
		for c := range out {
			out[c] = base[c] + g*value[c]
		}
	})
	target.Swap()
}

// RandomSplats injects n splats at random positions with random impulses
// and bright random colours.
func (s *Solver) RandomSplats(n int, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		color := GenerateColor(rng).Scale(10)
		x, y := rng.Float32(), rng.Float32()
		dx := 1000 * (rng.Float32() - 0.5)
		dy := 1000 * (rng.Float32() - 0.5)
		s.Splat(x, y, dx, dy, color)
	}
}

// InitialSplatCount is the size of the opening burst, between 5 and 24 splats.
func InitialSplatCount(rng *rand.Rand) int {
	return rng.IntN(20) + 5
}
