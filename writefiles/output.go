package writefiles

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/notargets/gofluid/grid"
	"github.com/notargets/gofluid/model_problems/Fluid2D"
)

// FrameRecord is one row of stats.csv.
type FrameRecord struct {
	Fluid2D.Stats
	StepMillis float64 `csv:"step_ms"`
}

// OutputManager writes the products of a run into one directory: a stats
// CSV row per frame, PNG frames and raw field dumps. A nil manager discards
// everything.
type OutputManager struct {
	dir           string
	statsFile     *os.File
	headerWritten bool
}

// NewOutputManager creates dir and opens stats.csv. An empty dir disables output.
func NewOutputManager(dir string) (om *OutputManager, err error) {
	var (
		f *os.File
	)
	if dir == "" {
		return
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if f, err = os.Create(filepath.Join(dir, "stats.csv")); err != nil {
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	om = &OutputManager{dir: dir, statsFile: f}
	return
}

func (om *OutputManager) WriteStats(rec FrameRecord) (err error) {
	if om == nil {
		return
	}
	records := []FrameRecord{rec}
	if !om.headerWritten {
		if err = gocsv.Marshal(records, om.statsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		om.headerWritten = true
		return
	}
	if err = gocsv.MarshalWithoutHeaders(records, om.statsFile); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return
}

func (om *OutputManager) WriteFrame(frame int, p *Palette, width, height int) (err error) {
	if om == nil {
		return
	}
	return WritePNG(filepath.Join(om.dir, fmt.Sprintf("frame_%05d.png", frame)), p, width, height)
}

// DumpSolution writes the dye, velocity and pressure fields of s.
func (om *OutputManager) DumpSolution(s *Fluid2D.Solver) (err error) {
	if om == nil {
		return
	}
	for _, item := range []struct {
		name  string
		field grid.Reader
	}{
		{"dye.fld", s.DyeField()},
		{"velocity.fld", s.VelocityField()},
		{"pressure.fld", s.PressureField()},
	} {
		var f *os.File
		if f, err = os.Create(filepath.Join(om.dir, item.name)); err != nil {
			return
		}
		if err = WriteField(f, item.field); err != nil {
			f.Close()
			return fmt.Errorf("dumping %s: %w", item.name, err)
		}
		if err = f.Close(); err != nil {
			return
		}
	}
	return
}

func (om *OutputManager) Close() (err error) {
	if om == nil {
		return
	}
	return om.statsFile.Close()
}
