package game

import (
	"github.com/pthm-cable/creatures/render"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/stream"
	"github.com/pthm-cable/creatures/telemetry"
)

// collaborators builds the observer chain: telemetry first, then frames,
// the stream hub, and finally any caller-supplied observers.
func (g *Game) collaborators() ([]sim.Option, error) {
	output, err := telemetry.NewOutputManager(g.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.output = output
	if err := output.WriteConfig(g.cfg); err != nil {
		g.closeOutput()
		return nil, err
	}

	g.collector = telemetry.NewCollector(g.cfg, telemetry.CollectorOptions{
		Output:      output,
		Perf:        g.perf,
		SnapshotDir: g.opts.SnapshotDir,
		LogStats:    g.opts.LogStats,
		Logger:      g.logger,
	})
	opts := []sim.Option{sim.WithObserver(g.collector)}

	if g.opts.RenderDir != "" {
		fr := render.NewFrameRenderer(g.opts.RenderDir, g.cfg.Output.RenderEvery, g.predicate, g.logger)
		opts = append(opts, sim.WithObserver(fr))
	}

	if g.opts.ServeAddr != "" {
		g.hub = stream.NewHub(g.Bounds(), g.logger)
		opts = append(opts, sim.WithObserver(g.hub), sim.WithFrameObserver(g.hub))
	}

	for _, o := range g.opts.Observers {
		opts = append(opts, sim.WithObserver(o))
	}
	for _, f := range g.opts.FrameObservers {
		opts = append(opts, sim.WithFrameObserver(f))
	}
	return opts, nil
}
