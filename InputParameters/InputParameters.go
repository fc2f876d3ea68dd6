package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/gofluid/model_problems/Fluid2D"
	"github.com/notargets/gofluid/types"
)

// SplatEvent is a scripted splat applied before the step of the given frame.
// Position is normalized, impulse is in velocity units.
type SplatEvent struct {
	Frame int        `json:"Frame"`
	X     float32    `json:"X"`
	Y     float32    `json:"Y"`
	DX    float32    `json:"DX"`
	DY    float32    `json:"DY"`
	Color [3]float32 `json:"Color"`
}

// Parameters obtained from the YAML input file. Zero valued solver
// parameters keep the solver defaults.
type InputParameters2D struct {
	Title               string       `json:"Title"`
	SimResolution       int          `json:"SimResolution"`
	DyeResolution       int          `json:"DyeResolution"`
	DensityDissipation  float32      `json:"DensityDissipation"`
	VelocityDissipation float32      `json:"VelocityDissipation"`
	PressureIterations  int          `json:"PressureIterations"`
	PressureRetention   *float32     `json:"PressureRetention"` // Explicit 0 clears pressure every frame
	Curl                *float32     `json:"Curl"`
	SplatRadius         float32      `json:"SplatRadius"`
	SplatForce          float32      `json:"SplatForce"`
	MaxDT               float32      `json:"MaxDT"`
	Width               int          `json:"Width"`  // Output surface width in pixels
	Height              int          `json:"Height"` // Output surface height in pixels
	Frames              int          `json:"Frames"`
	DT                  float32      `json:"DT"`
	RandomSplats        int          `json:"RandomSplats"` // Opening burst, -1 picks a random count
	Seed                uint64       `json:"Seed"`
	DisplayField        string       `json:"DisplayField"`
	Splats              []SplatEvent `json:"Splats"`
}

func (ip *InputParameters2D) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.setDefaults()
	return ip.validate()
}

func (ip *InputParameters2D) setDefaults() {
	if ip.Width == 0 && ip.Height == 0 {
		ip.Width, ip.Height = 1280, 720
	}
	if ip.Frames == 0 {
		ip.Frames = 300
	}
	if ip.DT == 0 {
		ip.DT = 1. / 60.
	}
	if ip.DisplayField == "" {
		ip.DisplayField = "dye"
	}
}

func (ip *InputParameters2D) validate() (err error) {
	switch {
	case ip.Width <= 0 || ip.Height <= 0:
		err = fmt.Errorf("surface size must be positive, got %dx%d", ip.Width, ip.Height)
	case ip.Frames < 0:
		err = fmt.Errorf("frame count must not be negative, got %d", ip.Frames)
	case ip.DT < 0:
		err = fmt.Errorf("time step must not be negative, got %v", ip.DT)
	}
	if err == nil {
		_, err = types.ParseDisplayField(ip.DisplayField)
	}
	for i, sp := range ip.Splats {
		if err != nil {
			break
		}
		if sp.Frame < 0 || sp.X < 0 || sp.X > 1 || sp.Y < 0 || sp.Y > 1 {
			err = fmt.Errorf("splat %d: frame %d position (%v, %v) out of range", i, sp.Frame, sp.X, sp.Y)
		}
	}
	return
}

func (ip *InputParameters2D) Aspect() float32 {
	return float32(ip.Width) / float32(ip.Height)
}

// ConfigUpdate carries the solver parameters set in the file.
func (ip *InputParameters2D) ConfigUpdate() (up Fluid2D.ConfigUpdate) {
	setInt := func(v int) *int {
		if v == 0 {
			return nil
		}
		return &v
	}
	setF32 := func(v float32) *float32 {
		if v == 0 {
			return nil
		}
		return &v
	}
	up.SimResolution = setInt(ip.SimResolution)
	up.DyeResolution = setInt(ip.DyeResolution)
	up.DensityDissipation = setF32(ip.DensityDissipation)
	up.VelocityDissipation = setF32(ip.VelocityDissipation)
	up.PressureIterations = setInt(ip.PressureIterations)
	up.PressureRetention = ip.PressureRetention
	up.CurlStrength = ip.Curl
	up.SplatRadius = setF32(ip.SplatRadius)
	up.SplatForce = setF32(ip.SplatForce)
	up.MaxDT = setF32(ip.MaxDT)
	return
}

// SplatsAt returns the scripted splats for a frame, in file order.
func (ip *InputParameters2D) SplatsAt(frame int) (splats []SplatEvent) {
	for _, sp := range ip.Splats {
		if sp.Frame == frame {
			splats = append(splats, sp)
		}
	}
	return
}

func (ip *InputParameters2D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d x %d]\t\t= Surface Size\n", ip.Width, ip.Height)
	fmt.Printf("[%d, %d]\t\t= Sim, Dye Resolution (0 = default)\n", ip.SimResolution, ip.DyeResolution)
	fmt.Printf("%8.5f\t\t= DT\n", ip.DT)
	fmt.Printf("[%d]\t\t\t= Frames\n", ip.Frames)
	fmt.Printf("[%d]\t\t\t= Pressure Iterations (0 = default)\n", ip.PressureIterations)
	if ip.PressureRetention != nil {
		fmt.Printf("%8.5f\t\t= Pressure Retention\n", *ip.PressureRetention)
	}
	if ip.Curl != nil {
		fmt.Printf("%8.5f\t\t= Curl\n", *ip.Curl)
	}
	fmt.Printf("[%s]\t\t\t= Display Field\n", ip.DisplayField)
	fmt.Printf("[%d]\t\t\t= Random Splats, Seed = %d\n", ip.RandomSplats, ip.Seed)
	for i, sp := range ip.Splats {
		fmt.Printf("Splats[%d] = %+v\n", i, sp)
	}
}
