package Fluid2D

import (
	"fmt"
	"math"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/utils"
)

// Solver owns every field of the simulation and advances it one frame per
// Step. It is not safe for concurrent use.
type Solver struct {
	cfg                     Config
	aspect                  float32
	velocity, dye, pressure *grid.DoubleBuffer
	curl, divergence        *grid.Field
	exec                    *Executor
	pointer                 *Pointer
	frame                   int
	poisson                 *utils.PoissonOperator // built on demand for diagnostics
}

// fieldSet is one complete allocation of the solver's fields.
type fieldSet struct {
	velocity, dye, pressure *grid.DoubleBuffer
	curl, divergence        *grid.Field
}

func allocateFields(cfg Config, aspect float32) (fs *fieldSet, err error) {
	var (
		simW, simH = GetResolution(cfg.SimResolution, aspect)
		dyeW, dyeH = GetResolution(cfg.DyeResolution, aspect)
	)
	fs = &fieldSet{}
	if fs.velocity, err = grid.NewDoubleBuffer(simW, simH, 2); err != nil {
		return nil, fmt.Errorf("velocity: %w", err)
	}
	if fs.dye, err = grid.NewDoubleBuffer(dyeW, dyeH, 3); err != nil {
		return nil, fmt.Errorf("dye: %w", err)
	}
	if fs.pressure, err = grid.NewDoubleBuffer(simW, simH, 1); err != nil {
		return nil, fmt.Errorf("pressure: %w", err)
	}
	if fs.curl, err = grid.New(simW, simH, 1); err != nil {
		return nil, fmt.Errorf("curl: %w", err)
	}
	if fs.divergence, err = grid.New(simW, simH, 1); err != nil {
		return nil, fmt.Errorf("divergence: %w", err)
	}
	Logger().Debug("allocated fields",
		"sim_width", simW, "sim_height", simH, "dye_width", dyeW, "dye_height", dyeH)
	return
}

func checkAspect(aspect float32) (err error) {
	if !(aspect > 0) || math.IsInf(float64(aspect), 0) {
		err = fmt.Errorf("%w: aspect ratio must be positive and finite, got %v", ErrConfiguration, aspect)
	}
	return
}

// NewSolver validates cfg and allocates all fields for a surface with the
// given aspect ratio (width/height).
func NewSolver(cfg Config, aspect float32) (s *Solver, err error) {
	var (
		fs *fieldSet
	)
	if err = cfg.Validate(); err != nil {
		return
	}
	if err = checkAspect(aspect); err != nil {
		return
	}
	if fs, err = allocateFields(cfg, aspect); err != nil {
		return
	}
	s = &Solver{
		cfg:     cfg,
		exec:    NewExecutor(cfg.ParallelDegree),
		pointer: &Pointer{},
	}
	s.install(fs, aspect)
	return
}

func (s *Solver) install(fs *fieldSet, aspect float32) {
	s.aspect = aspect
	s.velocity, s.dye, s.pressure = fs.velocity, fs.dye, fs.pressure
	s.curl, s.divergence = fs.curl, fs.divergence
	s.poisson = nil
	s.frame = 0
}

// Resize reallocates every field for a new surface aspect ratio using the
// configured resolutions. Field contents are discarded. On failure the
// solver keeps running on its previous fields.
func (s *Solver) Resize(aspect float32) (err error) {
	var (
		fs *fieldSet
	)
	if err = checkAspect(aspect); err != nil {
		return
	}
	if fs, err = allocateFields(s.cfg, aspect); err != nil {
		Logger().Warn("resize failed, keeping previous fields", "aspect", aspect, "error", err)
		return
	}
	s.install(fs, aspect)
	Logger().Info("resized", "aspect", aspect, "sim", s.simDims(), "dye", s.dyeDims())
	return
}

// SetConfig merges up into the live configuration. Nothing changes if the
// merged configuration is invalid. Resolution changes take effect on the
// next Resize.
func (s *Solver) SetConfig(up ConfigUpdate) (err error) {
	var (
		merged = s.cfg.Merge(up)
	)
	if err = merged.Validate(); err != nil {
		return
	}
	if merged.ParallelDegree != s.cfg.ParallelDegree {
		s.exec = NewExecutor(merged.ParallelDegree)
	}
	s.cfg = merged
	Logger().Info("configuration updated", "config", fmt.Sprintf("%+v", merged))
	return
}

func (s *Solver) Config() Config { return s.cfg }

func (s *Solver) Aspect() float32 { return s.aspect }

// Frame is the number of completed Steps since the last allocation.
func (s *Solver) Frame() int { return s.frame }

// Pointer returns the pointer state consumed by Step. Input collectors
// mutate it between frames.
func (s *Solver) Pointer() *Pointer { return s.pointer }

// DyeField is a read-only handle on the current dye. It is invalidated by Resize.
func (s *Solver) DyeField() grid.Reader { return s.dye.Read }

func (s *Solver) VelocityField() grid.Reader { return s.velocity.Read }

func (s *Solver) PressureField() grid.Reader { return s.pressure.Read }

func (s *Solver) CurlField() grid.Reader { return s.curl }

// DivergenceField holds the velocity divergence measured before the last projection.
func (s *Solver) DivergenceField() grid.Reader { return s.divergence }

func (s *Solver) simDims() [2]int {
	w, h := s.velocity.Dims()
	return [2]int{w, h}
}

func (s *Solver) dyeDims() [2]int {
	w, h := s.dye.Dims()
	return [2]int{w, h}
}

// Resolution returns the simulation and dye grid sizes currently allocated.
func (s *Solver) Resolution() (simW, simH, dyeW, dyeH int) {
	simW, simH = s.velocity.Dims()
	dyeW, dyeH = s.dye.Dims()
	return
}

// ClampDT limits dt to the configured stability ceiling. Non-positive or
// NaN steps become zero.
func (s *Solver) ClampDT(dt float32) float32 {
	if !(dt > 0) {
		return 0
	}
	return min(dt, s.cfg.MaxDT)
}

// Step applies pending pointer input and advances the simulation by dt,
// clamped to MaxDT.
func (s *Solver) Step(dt float32) {
	var (
		cfg = s.cfg
		p   = s.pointer
	)
	dt = s.ClampDT(dt)
	if p.Down && p.Moved {
		s.Splat(p.X, p.Y, p.DX*cfg.SplatForce, p.DY*cfg.SplatForce, p.Color)
		p.Moved = false
	}

	s.computeCurl(s.velocity.Read, s.curl)
	s.applyVorticity(s.velocity, s.curl, cfg.CurlStrength, dt)
	s.advect(s.velocity.Read, s.velocity, dt, cfg.VelocityDissipation)
	s.advect(s.velocity.Read, s.dye, dt, cfg.DensityDissipation)
	s.computeDivergence(s.velocity.Read, s.divergence)
	s.solvePressure(s.pressure, s.divergence, cfg.PressureIterations, cfg.PressureRetention)
	s.subtractGradient(s.pressure.Read, s.velocity)
	s.frame++

	if cfg.CheckNaN {
		if utils.IsNan(s.velocity.Read.Data()) || utils.IsNan(s.dye.Read.Data()) {
			Logger().Warn("non-finite values in solution", "frame", s.frame)
		}
	}
}
