package game

import (
	"errors"

	"github.com/pthm-cable/creatures/sim"
)

func (g *Game) logRunStart() {
	g.logger.Info("starting run",
		"seed", g.cfg.Seed,
		"first_generation", g.loop.Generation(),
		"generations", g.cfg.Simulation.Generations,
		"population", g.cfg.Population.Size,
		"pool_size", g.cfg.Population.PoolSize,
		"fitness", g.cfg.Fitness.Kind,
	)
}

func (g *Game) logRunEnd(summaries []sim.Summary, err error) {
	attrs := []any{"generations_run", len(summaries)}
	if n := len(summaries); n > 0 {
		last := summaries[n-1]
		rate := 0.0
		if last.Population > 0 {
			rate = float64(last.Survivors) / float64(last.Population)
		}
		attrs = append(attrs, "final_survivors", last.Survivors, "final_survival_rate", rate)
	}
	attrs = append(attrs, "perf", g.perf.Stats())

	var ext *sim.ExtinctionError
	switch {
	case err == nil:
		g.logger.Info("run finished", attrs...)
	case errors.As(err, &ext):
		g.logger.Warn("run aborted by extinction", append(attrs, "generation", ext.Generation)...)
	default:
		g.logger.Error("run failed", append(attrs, "error", err)...)
	}
}
