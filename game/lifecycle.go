package game

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/render"
	"github.com/pthm-cable/creatures/telemetry"
)

// resumePoint is where a resumed run picks up.
type resumePoint struct {
	pool  *genome.Pool
	start int
	seed  uint64
}

// loadResume reads a snapshot and checks it fits cfg's genome shape.
func loadResume(path string, cfg *config.Config) (*resumePoint, error) {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if snap.GenomeLength != cfg.Genome.Length {
		return nil, &config.ValidationError{
			Field:  "genome.length",
			Reason: fmt.Sprintf("snapshot has %d genes, config %d", snap.GenomeLength, cfg.Genome.Length),
		}
	}
	if snap.InternalNeurons != cfg.Genome.InternalNeurons {
		return nil, &config.ValidationError{
			Field:  "genome.internal_neurons",
			Reason: fmt.Sprintf("snapshot has %d, config %d", snap.InternalNeurons, cfg.Genome.InternalNeurons),
		}
	}
	pool, err := snap.GenePool()
	if err != nil {
		return nil, err
	}
	return &resumePoint{pool: pool, start: snap.Generation + 1, seed: snap.Seed}, nil
}

// Unload writes the end-of-run artifacts and closes output files.
// It is safe to call more than once.
func (g *Game) Unload() error {
	g.mu.Lock()
	if g.unloaded {
		g.mu.Unlock()
		return nil
	}
	g.unloaded = true
	summaries := g.summaries
	g.mu.Unlock()

	if g.output == nil {
		return nil
	}

	var errs []error
	if pool := g.loop.Pool(); pool.Len() > 0 {
		if err := g.output.WritePool(pool); err != nil {
			errs = append(errs, err)
		}
	}
	if len(summaries) > 0 {
		path := filepath.Join(g.output.Dir(), "survival.png")
		if err := render.Survival(summaries, path); err != nil {
			errs = append(errs, fmt.Errorf("rendering survival plot: %w", err))
		}
	}
	if err := g.closeOutput(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (g *Game) closeOutput() error {
	if g.output == nil {
		return nil
	}
	err := g.output.Close()
	g.output = nil
	return err
}
