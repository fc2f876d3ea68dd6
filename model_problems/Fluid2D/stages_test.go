package Fluid2D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofluid/grid"
)

func newTestSolver(t *testing.T, sim, dye int, aspect float32, edit func(cfg *Config)) (s *Solver) {
	var (
		err error
		cfg = DefaultConfig()
	)
	cfg.SimResolution, cfg.DyeResolution = sim, dye
	if edit != nil {
		edit(&cfg)
	}
	s, err = NewSolver(cfg, aspect)
	require.NoError(t, err)
	return
}

func TestCurlAndVorticity(t *testing.T) {
	s := newTestSolver(t, 8, 8, 1, nil)
	{ // Test curl of a rigid counter-clockwise rotation is 2 in the interior
		vel := s.velocity.Read
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				vel.Set(x, y, 0, -(float32(y) - 3.5))
				vel.Set(x, y, 1, float32(x)-3.5)
			}
		}
		s.computeCurl(vel, s.curl)
		for y := 1; y < 7; y++ {
			for x := 1; x < 7; x++ {
				assert.InDelta(t, 2, s.curl.At(x, y, 0), 1e-6)
			}
		}
	}
	{ // Test zero confinement strength leaves velocity untouched
		before := s.velocity.Read.Snapshot()
		s.applyVorticity(s.velocity, s.curl, 0, 0.016)
		assert.Equal(t, before.Data(), s.velocity.Read.Data())
	}
	{ // Test a flat curl field produces no force
		s.curl.Fill(5)
		before := s.velocity.Read.Snapshot()
		s.applyVorticity(s.velocity, s.curl, 30, 0.016)
		assert.Equal(t, before.Data(), s.velocity.Read.Data())
	}
	{ // Test confinement pushes along the |curl| gradient with y negated
		var (
			s     = newTestSolver(t, 9, 9, 1, nil)
			scale = 2 * 0.5 / (1 + vorticityEpsilon)
		)
		force := func(C float32, nx, ny int, peak float32) (fx, fy float32) {
			s.velocity.Read.Fill(0)
			s.curl.Fill(C)
			s.curl.Set(nx, ny, 0, peak)
			s.applyVorticity(s.velocity, s.curl, 2, 0.5)
			v := s.velocity.Read.Cell(4, 4)
			return v[0], v[1]
		}
		// Larger |curl| above the centre
		fx, fy := force(1, 4, 5, 3)
		assert.InDelta(t, scale, fx, 1e-5)
		assert.InDelta(t, 0, fy, 1e-6)
		// Larger |curl| to the right
		fx, fy = force(1, 5, 4, 3)
		assert.InDelta(t, 0, fx, 1e-6)
		assert.InDelta(t, -scale, fy, 1e-5)
		// Negative curl reverses the push
		fx, fy = force(-1, 4, 5, -3)
		assert.InDelta(t, -scale, fx, 1e-5)
		assert.InDelta(t, 0, fy, 1e-6)
	}
}

func TestAdvectionDissipation(t *testing.T) {
	s := newTestSolver(t, 8, 16, 1, nil)
	{ // Test decay by the dissipation factor per call under zero velocity
		s.dye.Read.Fill(1, 0.5, 0.25)
		expect := float64(1)
		for n := 0; n < 20; n++ {
			s.advect(s.velocity.Read, s.dye, 0.016, 0.9)
			expect *= 0.9
			for _, c := range [][2]int{{0, 0}, {7, 9}, {15, 15}} {
				cell := s.dye.Read.Cell(c[0], c[1])
				assert.InEpsilon(t, expect, cell[0], 1e-4)
				assert.InEpsilon(t, 0.5*expect, cell[1], 1e-4)
				assert.InEpsilon(t, 0.25*expect, cell[2], 1e-4)
			}
		}
	}
	{ // Test unit dissipation is invariant
		s.dye.Read.Fill(0.3, 0.6, 0.9)
		for n := 0; n < 10; n++ {
			s.advect(s.velocity.Read, s.dye, 0.016, 1)
		}
		cell := s.dye.Read.Cell(4, 11)
		assert.InDelta(t, 0.3, cell[0], 1e-6)
		assert.InDelta(t, 0.6, cell[1], 1e-6)
		assert.InDelta(t, 0.9, cell[2], 1e-6)
	}
	{ // Test uniform flow transports a feature downstream
		s.velocity.Read.Fill(100, 0)
		s.dye.Read.Fill(0)
		s.dye.Read.Set(4, 8, 0, 1)
		s.advect(s.velocity.Read, s.dye, 0.016, 1)
		// 100 * 0.016 velocity texels of 1/8 is 0.2 of the domain, 3.2 dye cells
		assert.Less(t, s.dye.Read.At(4, 8, 0), float32(1e-6))
		assert.Greater(t, s.dye.Read.At(7, 8, 0), float32(0.7))
	}
}

func TestProjection(t *testing.T) {
	{ // Test zero divergence is a fixed point of the pressure solve
		s := newTestSolver(t, 16, 16, 1, nil)
		s.divergence.Fill(0)
		s.solvePressure(s.pressure, s.divergence, 50, 0.8)
		for _, p := range s.pressure.Read.Data() {
			assert.Equal(t, float32(0), p)
		}
	}
	{ // Test projection strictly reduces mean |div|
		for _, radius := range []float32{0.25, 8} {
			for _, iters := range []int{1, 5, 20, 60} {
				s := newTestSolver(t, 32, 32, 1, func(cfg *Config) {
					cfg.SplatRadius = radius
					cfg.PressureRetention = 0
				})
				s.Splat(0.5, 0.5, 300, -200, Color{})
				s.Splat(0.3, 0.7, -50, 80, Color{})
				before, err := s.MeanAbsDivergence(s.velocity.Read)
				require.NoError(t, err)
				require.Greater(t, before, 0.)
				s.computeDivergence(s.velocity.Read, s.divergence)
				s.solvePressure(s.pressure, s.divergence, iters, 0)
				s.subtractGradient(s.pressure.Read, s.velocity)
				after, err := s.MeanAbsDivergence(s.velocity.Read)
				require.NoError(t, err)
				assert.Less(t, after, before, "radius %v iterations %d", radius, iters)
			}
		}
	}
	{ // Test retention scales the warm start
		s := newTestSolver(t, 8, 8, 1, nil)
		s.pressure.Read.Fill(2)
		s.solvePressure(s.pressure, s.divergence, 0, 0.5)
		assert.Equal(t, float32(1), s.pressure.Read.At(3, 3, 0))
		s.solvePressure(s.pressure, s.divergence, 0, 0)
		assert.Equal(t, float32(0), s.pressure.Read.At(3, 3, 0))
	}
}

func TestSplat(t *testing.T) {
	{ // Test single splat on a 4x4 grid is positive everywhere, peaked and mirror symmetric
		s := newTestSolver(t, 4, 4, 1, func(cfg *Config) { cfg.SplatRadius = 100 })
		s.Splat(0.5, 0.5, 1, 0, Color{})
		vel := s.velocity.Read
		peak := vel.At(1, 1, 0)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Greater(t, vel.At(x, y, 0), float32(0))
				assert.Equal(t, float32(0), vel.At(x, y, 1))
				assert.LessOrEqual(t, vel.At(x, y, 0), peak)
				assert.InDelta(t, vel.At(x, y, 0), vel.At(3-x, y, 0), 1e-7)
			}
		}
		for _, c := range [][2]int{{2, 1}, {1, 2}, {2, 2}} {
			assert.InDelta(t, peak, vel.At(c[0], c[1], 0), 1e-7)
		}
		assert.Greater(t, peak, vel.At(0, 0, 0))
	}
	{ // Test splats are additive
		a := newTestSolver(t, 16, 16, 1.5, nil)
		b := newTestSolver(t, 16, 16, 1.5, nil)
		a.Splat(0.4, 0.6, 10, -3, Color{0.1, 0.2, 0.3})
		a.Splat(0.4, 0.6, -4, 7, Color{0.2, 0, 0.1})
		b.Splat(0.4, 0.6, 6, 4, Color{0.3, 0.2, 0.4})
		assertFieldsNear(t, a.velocity.Read, b.velocity.Read, 1e-5)
		assertFieldsNear(t, a.dye.Read, b.dye.Read, 1e-6)
	}
	{ // Test the radius widens with landscape aspect
		s := newTestSolver(t, 16, 16, 2, nil)
		assert.InDelta(t, 0.005, s.splatRadius(), 1e-9)
		s = newTestSolver(t, 16, 16, 0.5, nil)
		assert.InDelta(t, 0.0025, s.splatRadius(), 1e-9)
	}
}

func assertFieldsNear(t *testing.T, a, b *grid.Field, tol float64) {
	t.Helper()
	ad, bd := a.Data(), b.Data()
	require.Equal(t, len(ad), len(bd))
	for i := range ad {
		if !assert.InDelta(t, ad[i], bd[i], tol, "index %d", i) {
			return
		}
	}
}
