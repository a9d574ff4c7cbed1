package render

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/creatures/sim"
)

// FrameRenderer writes a PNG of the terminal frame every few generations.
// It implements sim.Observer.
type FrameRenderer struct {
	dir       string
	every     int
	predicate sim.FitnessPredicate
	logger    *slog.Logger
}

// NewFrameRenderer renders every `every` generations into dir.
// every <= 0 renders every generation.
func NewFrameRenderer(dir string, every int, pred sim.FitnessPredicate, logger *slog.Logger) *FrameRenderer {
	if every <= 0 {
		every = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameRenderer{dir: dir, every: every, predicate: pred, logger: logger}
}

// FramePath returns the file a generation is rendered to.
func (r *FrameRenderer) FramePath(generation int) string {
	return filepath.Join(r.dir, fmt.Sprintf("gen_%05d.png", generation))
}

// ObserveGeneration renders the report's terminal frame when due.
// Extinct generations are always rendered.
func (r *FrameRenderer) ObserveGeneration(rep sim.GenerationReport) error {
	if rep.Generation%r.every != 0 && rep.Outcome != sim.OutcomeExtinct {
		return nil
	}
	path := r.FramePath(rep.Generation)
	if err := Frame(rep.Frame(), r.predicate, path); err != nil {
		return err
	}
	r.logger.Debug("frame rendered", "generation", rep.Generation, "path", path)
	return nil
}
