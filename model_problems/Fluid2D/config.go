package Fluid2D

import (
	"errors"
	"fmt"
	"math"
)

var ErrConfiguration = errors.New("invalid configuration")

// Config holds the solver parameters. It is fixed for the duration of a Step
// and replaced between frames through SetConfig.
type Config struct {
	SimResolution       int     // Target size of the larger dimension of the velocity grid
	DyeResolution       int     // Target size of the larger dimension of the dye grid
	DensityDissipation  float32 // Per step dye fade, in (0,1]
	VelocityDissipation float32 // Per step velocity fade, in (0,1]
	PressureIterations  int
	PressureRetention   float32 // Fraction of last frame's pressure kept as the Jacobi start, 0 clears it
	CurlStrength        float32
	SplatRadius         float32 // In percent of the surface, divided by 100 when applied
	SplatForce          float32
	MaxDT               float32 // Step clamps dt to this ceiling
	ParallelDegree      int     // Goroutines per pass, 0 means one per CPU
	CheckNaN            bool    // Scan velocity and dye after each step and log non-finite values
}

func DefaultConfig() Config {
	return Config{
		SimResolution:       128,
		DyeResolution:       512,
		DensityDissipation:  0.97,
		VelocityDissipation: 0.98,
		PressureIterations:  20,
		PressureRetention:   0.8,
		CurlStrength:        30,
		SplatRadius:         0.25,
		SplatForce:          6000,
		MaxDT:               0.016666,
	}
}

// ConfigUpdate is a partial Config. Nil fields keep their current value.
type ConfigUpdate struct {
	SimResolution       *int
	DyeResolution       *int
	DensityDissipation  *float32
	VelocityDissipation *float32
	PressureIterations  *int
	PressureRetention   *float32
	CurlStrength        *float32
	SplatRadius         *float32
	SplatForce          *float32
	MaxDT               *float32
	ParallelDegree      *int
	CheckNaN            *bool
}

// Merge returns cfg with the non-nil fields of up applied. cfg is not modified.
func (cfg Config) Merge(up ConfigUpdate) (merged Config) {
	merged = cfg
	if up.SimResolution != nil {
		merged.SimResolution = *up.SimResolution
	}
	if up.DyeResolution != nil {
		merged.DyeResolution = *up.DyeResolution
	}
	if up.DensityDissipation != nil {
		merged.DensityDissipation = *up.DensityDissipation
	}
	if up.VelocityDissipation != nil {
		merged.VelocityDissipation = *up.VelocityDissipation
	}
	if up.PressureIterations != nil {
		merged.PressureIterations = *up.PressureIterations
	}
	if up.PressureRetention != nil {
		merged.PressureRetention = *up.PressureRetention
	}
	if up.CurlStrength != nil {
		merged.CurlStrength = *up.CurlStrength
	}
	if up.SplatRadius != nil {
		merged.SplatRadius = *up.SplatRadius
	}
	if up.SplatForce != nil {
		merged.SplatForce = *up.SplatForce
	}
	if up.MaxDT != nil {
		merged.MaxDT = *up.MaxDT
	}
	if up.ParallelDegree != nil {
		merged.ParallelDegree = *up.ParallelDegree
	}
	if up.CheckNaN != nil {
		merged.CheckNaN = *up.CheckNaN
	}
	return
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

func (cfg Config) Validate() (err error) {
	switch {
	case cfg.SimResolution <= 0:
		err = fmt.Errorf("%w: SimResolution must be positive, got %d", ErrConfiguration, cfg.SimResolution)
	case cfg.DyeResolution <= 0:
		err = fmt.Errorf("%w: DyeResolution must be positive, got %d", ErrConfiguration, cfg.DyeResolution)
	case !(cfg.DensityDissipation > 0 && cfg.DensityDissipation <= 1):
		err = fmt.Errorf("%w: DensityDissipation must be in (0,1], got %v", ErrConfiguration, cfg.DensityDissipation)
	case !(cfg.VelocityDissipation > 0 && cfg.VelocityDissipation <= 1):
		err = fmt.Errorf("%w: VelocityDissipation must be in (0,1], got %v", ErrConfiguration, cfg.VelocityDissipation)
	case cfg.PressureIterations < 0:
		err = fmt.Errorf("%w: PressureIterations must not be negative, got %d", ErrConfiguration, cfg.PressureIterations)
	case !(cfg.PressureRetention >= 0 && cfg.PressureRetention <= 1):
		err = fmt.Errorf("%w: PressureRetention must be in [0,1], got %v", ErrConfiguration, cfg.PressureRetention)
	case !(cfg.CurlStrength >= 0) || !finite(cfg.CurlStrength):
		err = fmt.Errorf("%w: CurlStrength must be a finite non-negative value, got %v", ErrConfiguration, cfg.CurlStrength)
	case !(cfg.SplatRadius > 0) || !finite(cfg.SplatRadius):
		err = fmt.Errorf("%w: SplatRadius must be positive, got %v", ErrConfiguration, cfg.SplatRadius)
	case !(cfg.SplatForce >= 0) || !finite(cfg.SplatForce):
		err = fmt.Errorf("%w: SplatForce must be a finite non-negative value, got %v", ErrConfiguration, cfg.SplatForce)
	case !(cfg.MaxDT > 0) || !finite(cfg.MaxDT):
		err = fmt.Errorf("%w: MaxDT must be positive, got %v", ErrConfiguration, cfg.MaxDT)
	case cfg.ParallelDegree < 0:
		err = fmt.Errorf("%w: ParallelDegree must not be negative, got %d", ErrConfiguration, cfg.ParallelDegree)
	}
	return
}

// GetResolution sizes a grid for a surface of the given aspect ratio
// (width/height): the larger dimension gets the target resolution and the
// smaller one is scaled down by the aspect ratio, never below one cell.
func GetResolution(target int, aspect float32) (width, height int) {
	var (
		ratio = float64(aspect)
		small int
	)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	small = int(math.Round(float64(target) / ratio))
	if small < 1 {
		small = 1
	}
	if aspect >= 1 {
		width, height = target, small
	} else {
		width, height = small, target
	}
	return
}
