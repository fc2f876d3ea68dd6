package Fluid2D

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/utils"
)

// Stats summarizes the current state of the solution.
type Stats struct {
	Frame                int     `csv:"frame"`
	MeanAbsDivergence    float64 `csv:"mean_abs_divergence"`     // After projection
	MeanAbsDivergencePre float64 `csv:"mean_abs_divergence_pre"` // Before projection
	KineticEnergy        float64 `csv:"kinetic_energy"`
	MaxSpeed             float64 `csv:"max_speed"`
	MeanCurl             float64 `csv:"mean_abs_curl"`
	TotalDye             float64 `csv:"total_dye"`
	PressureResidual     float64 `csv:"pressure_residual"`
}

func to64(f []float32) (d []float64) {
	d = make([]float64, len(f))
	for i, v := range f {
		d[i] = float64(v)
	}
	return
}

func absAll(d []float64) []float64 {
	for i, v := range d {
		d[i] = math.Abs(v)
	}
	return d
}

// MeanAbsDivergence computes the mean |div| of a two component velocity field.
func (s *Solver) MeanAbsDivergence(vel *grid.Field) (mean float64, err error) {
	var (
		W, H = vel.Dims()
		div  *grid.Field
	)
	if div, err = grid.New(W, H, 1); err != nil {
		return
	}
	s.computeDivergence(vel, div)
	mean = stat.Mean(absAll(to64(div.Data())), nil)
	return
}

// Stats computes diagnostics for the current frame. The pressure residual is
// measured against the divergence recorded before projection, using a sparse
// Laplacian built on first use after each allocation.
func (s *Solver) Stats() (st Stats) {
	var (
		vel    = to64(s.velocity.Read.Data())
		speeds = make([]float64, len(vel)/2)
		err    error
	)
	for i := range speeds {
		u, v := vel[2*i], vel[2*i+1]
		speeds[i] = math.Hypot(u, v)
	}
	st.Frame = s.frame
	if st.MeanAbsDivergence, err = s.MeanAbsDivergence(s.velocity.Read); err != nil {
		Logger().Warn("divergence after projection", "error", err)
	}
	st.MeanAbsDivergencePre = stat.Mean(absAll(to64(s.divergence.Data())), nil)
	st.KineticEnergy = 0.5 * floats.Dot(vel, vel)
	if len(speeds) > 0 {
		st.MaxSpeed = floats.Max(speeds)
	}
	st.MeanCurl = stat.Mean(absAll(to64(s.curl.Data())), nil)
	st.TotalDye = floats.Sum(to64(s.dye.Read.Data()))
	if s.poisson == nil {
		W, H := s.pressure.Dims()
		s.poisson = utils.NewPoissonOperator(W, H)
	}
	if st.PressureResidual, err = s.poisson.Residual(s.pressure.Read.Data(), s.divergence.Data()); err != nil {
		Logger().Warn("pressure residual", "error", err)
	}
	return
}
