package Fluid2D

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/utils"
)

func TestNewSolver(t *testing.T) {
	{ // Test allocation follows the aspect ratio
		s := newTestSolver(t, 64, 128, 2, nil)
		simW, simH, dyeW, dyeH := s.Resolution()
		assert.Equal(t, [4]int{64, 32, 128, 64}, [4]int{simW, simH, dyeW, dyeH})
		assert.Equal(t, 3, s.DyeField().Components())
		assert.Equal(t, 2, s.VelocityField().Components())
		assert.Equal(t, 1, s.PressureField().Components())
	}
	{ // Test invalid inputs
		cfg := DefaultConfig()
		cfg.SplatRadius = -1
		_, err := NewSolver(cfg, 1)
		assert.True(t, errors.Is(err, ErrConfiguration))
		_, err = NewSolver(DefaultConfig(), 0)
		assert.True(t, errors.Is(err, ErrConfiguration))
		_, err = NewSolver(DefaultConfig(), float32(math.NaN()))
		assert.True(t, errors.Is(err, ErrConfiguration))
		cfg = DefaultConfig()
		cfg.DyeResolution = 1 << 15
		_, err = NewSolver(cfg, 1)
		assert.True(t, errors.Is(err, grid.ErrAllocation))
	}
}

func TestSetConfigAndResize(t *testing.T) {
	s := newTestSolver(t, 16, 32, 1, nil)
	s.Splat(0.5, 0.5, 10, 10, Color{1, 1, 1})
	{ // Test a rejected update changes nothing
		before := s.Config()
		bad := float32(2)
		err := s.SetConfig(ConfigUpdate{DensityDissipation: &bad})
		assert.True(t, errors.Is(err, ErrConfiguration))
		assert.Equal(t, before, s.Config())
	}
	{ // Test a partial update merges and leaves the fields alone
		iters, sim := 5, 8
		dye := s.DyeField()
		require.NoError(t, s.SetConfig(ConfigUpdate{PressureIterations: &iters, SimResolution: &sim}))
		assert.Equal(t, 5, s.Config().PressureIterations)
		assert.Equal(t, 8, s.Config().SimResolution)
		assert.Equal(t, float32(0.97), s.Config().DensityDissipation)
		assert.Same(t, dye, s.DyeField())
		simW, _, _, _ := s.Resolution()
		assert.Equal(t, 16, simW)
	}
	{ // Test a failed resize keeps the previous fields
		huge := 1 << 14
		require.NoError(t, s.SetConfig(ConfigUpdate{SimResolution: &huge}))
		dye := s.DyeField()
		err := s.Resize(1)
		assert.True(t, errors.Is(err, grid.ErrAllocation))
		assert.Same(t, dye, s.DyeField())
		assert.Greater(t, floatSum(s.DyeField().Data()), 0.)
		s.Step(0.016)
		assert.True(t, errors.Is(s.Resize(-1), ErrConfiguration))
	}
	{ // Test resize applies the configured resolutions and clears state
		sim := 8
		require.NoError(t, s.SetConfig(ConfigUpdate{SimResolution: &sim}))
		require.NoError(t, s.Resize(2))
		simW, simH, dyeW, dyeH := s.Resolution()
		assert.Equal(t, [4]int{8, 4, 32, 16}, [4]int{simW, simH, dyeW, dyeH})
		assert.Equal(t, 0., floatSum(s.DyeField().Data()))
		assert.Equal(t, 0, s.Frame())
		assert.Equal(t, float32(2), s.Aspect())
	}
}

func TestStep(t *testing.T) {
	{ // Test dt clamping
		s := newTestSolver(t, 8, 8, 1, nil)
		assert.Equal(t, s.Config().MaxDT, s.ClampDT(1))
		assert.Equal(t, float32(0.01), s.ClampDT(0.01))
		assert.Equal(t, float32(0), s.ClampDT(-1))
		assert.Equal(t, float32(0), s.ClampDT(float32(math.NaN())))
	}
	{ // Test a quiescent field stays quiescent
		s := newTestSolver(t, 16, 16, 1, nil)
		for n := 0; n < 3; n++ {
			s.Step(0.016)
		}
		assert.Equal(t, 3, s.Frame())
		assert.Equal(t, 0., floatSum(s.VelocityField().Data()))
		assert.Equal(t, 0., floatSum(s.DyeField().Data()))
	}
	{ // Test pointer input is consumed once per motion
		s := newTestSolver(t, 16, 16, 1, nil)
		p := s.Pointer()
		p.Press(0.5, 0.5, Color{1, 0, 0})
		s.Step(0.016)
		assert.Equal(t, 0., floatSum(s.DyeField().Data()))
		p.Move(0.55, 0.5)
		assert.True(t, p.Moved)
		s.Step(0.016)
		assert.False(t, p.Moved)
		assert.True(t, p.Down)
		assert.Greater(t, floatSum(s.DyeField().Data()), 0.)
		assert.Greater(t, floatSum(s.VelocityField().Data()), 0.)
		p.Release()
		p.Move(0.6, 0.5)
		assert.False(t, p.Moved)
	}
	{ // Test dye is advected by the velocity advected earlier in the same step
		s := newTestSolver(t, 16, 32, 1, func(cfg *Config) {
			cfg.VelocityDissipation = 0.5
			cfg.DensityDissipation = 1
		})
		s.velocity.Read.Fill(160, 0)
		dye := s.dye.Read
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				u, _ := dye.UV(x, y)
				dye.Set(x, y, 0, u)
			}
		}
		s.Step(0.01)
		// Velocity halves before dye moves: 0.01 * 80 velocity texels of 1/16
		assert.InDelta(t, 80, s.VelocityField().At(5, 5, 0), 1e-3)
		assert.InDelta(t, 0, s.VelocityField().At(5, 5, 1), 1e-6)
		assert.InDelta(t, 16.5/32-0.05, s.DyeField().At(16, 16, 0), 1e-5)
	}
	{ // Test random splats evolve without producing non-finite values
		s := newTestSolver(t, 32, 64, 1, func(cfg *Config) { cfg.CheckNaN = true })
		rng := rand.New(rand.NewPCG(1, 2))
		s.RandomSplats(InitialSplatCount(rng), rng)
		for n := 0; n < 40; n++ {
			s.Step(0.016)
		}
		assert.False(t, utils.IsNan(s.VelocityField().Data()))
		assert.False(t, utils.IsNan(s.DyeField().Data()))
		assert.False(t, utils.IsNan(s.PressureField().Data()))
	}
}

func TestParallelExecution(t *testing.T) {
	var (
		solvers [2]*Solver
	)
	for i, np := range []int{1, 4} {
		solvers[i] = newTestSolver(t, 80, 96, 1.5, func(cfg *Config) { cfg.ParallelDegree = np })
		solvers[i].Splat(0.3, 0.4, 200, 100, Color{0.5, 0.2, 0.1})
		solvers[i].Splat(0.7, 0.6, -100, 50, Color{0.1, 0.2, 0.5})
		for n := 0; n < 3; n++ {
			solvers[i].Step(0.016)
		}
	}
	assert.Equal(t, solvers[0].VelocityField().Data(), solvers[1].VelocityField().Data())
	assert.Equal(t, solvers[0].DyeField().Data(), solvers[1].DyeField().Data())
	assert.Equal(t, solvers[0].PressureField().Data(), solvers[1].PressureField().Data())
}

func TestStats(t *testing.T) {
	s := newTestSolver(t, 32, 32, 1, func(cfg *Config) { cfg.PressureRetention = 0 })
	s.Splat(0.5, 0.5, 300, -200, Color{1, 1, 1})
	s.Step(0.016)
	st := s.Stats()
	assert.Equal(t, 1, st.Frame)
	assert.Greater(t, st.MeanAbsDivergencePre, 0.)
	assert.Less(t, st.MeanAbsDivergence, st.MeanAbsDivergencePre)
	assert.Greater(t, st.KineticEnergy, 0.)
	assert.Greater(t, st.MaxSpeed, 0.)
	assert.Greater(t, st.TotalDye, 0.)
	assert.False(t, math.IsNaN(st.PressureResidual))
	assert.GreaterOrEqual(t, st.PressureResidual, 0.)

	// A failed scratch allocation is reported, not dereferenced
	defer func(limit int) { grid.MaxCells = limit }(grid.MaxCells)
	grid.MaxCells = 16
	_, err := s.MeanAbsDivergence(s.velocity.Read)
	assert.True(t, errors.Is(err, grid.ErrAllocation))
	assert.NotPanics(t, func() { st = s.Stats() })
	assert.Equal(t, 0., st.MeanAbsDivergence)
}

func TestColor(t *testing.T) {
	c := HueColor(0)
	assert.InDelta(t, 1, c.R, 1e-6)
	assert.InDelta(t, 0, c.G, 1e-6)
	assert.InDelta(t, 0, c.B, 1e-6)
	c = HueColor(0.5)
	assert.InDelta(t, 0, c.R, 1e-6)
	assert.InDelta(t, 1, c.G, 1e-6)
	assert.InDelta(t, 1, c.B, 1e-6)
	rng := rand.New(rand.NewPCG(3, 4))
	for n := 0; n < 50; n++ {
		c = GenerateColor(rng)
		assert.InDelta(t, 0.15, max(c.R, c.G, c.B), 1e-6)
		assert.GreaterOrEqual(t, min(c.R, c.G, c.B), float32(0))
	}
}

func TestLogger(t *testing.T) {
	var (
		buf bytes.Buffer
	)
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)
	s := newTestSolver(t, 8, 8, 1, nil)
	assert.Contains(t, buf.String(), "allocated fields")
	iters := 3
	require.NoError(t, s.SetConfig(ConfigUpdate{PressureIterations: &iters}))
	assert.Contains(t, buf.String(), "configuration updated")
	SetLogger(nil)
	buf.Reset()
	require.NoError(t, s.Resize(1))
	assert.Empty(t, buf.String())
}

func floatSum(d []float32) (sum float64) {
	for _, v := range d {
		sum += math.Abs(float64(v))
	}
	return
}

func BenchmarkStep(b *testing.B) {
	s, err := NewSolver(DefaultConfig(), 16./9.)
	if err != nil {
		b.Fatal(err)
	}
	rng := rand.New(rand.NewPCG(1, 1))
	s.RandomSplats(10, rng)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.Step(0.016)
	}
}
