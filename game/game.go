// Package game assembles a complete run: the evolution loop plus the
// telemetry, rendering and streaming collaborators chosen by Options.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/stream"
	"github.com/pthm-cable/creatures/telemetry"
)

// Options selects run overrides and optional collaborators.
type Options struct {
	Seed        uint64 // 0 = config seed (or the snapshot's when resuming)
	Generations int    // 0 = config value
	LogStats    bool
	OutputDir   string // CSV logs, final pool, config and survival plot
	SnapshotDir string // bookmark snapshots
	ResumePath  string // snapshot to resume from
	RenderDir   string // per-generation PNG frames
	ServeAddr   string // websocket stream address
	Logger      *slog.Logger

	// Extra collaborators, notified after the built-in ones.
	Observers      []sim.Observer
	FrameObservers []sim.FrameObserver
}

// Game holds a configured run and its collaborators.
type Game struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	loop      *sim.Loop
	predicate sim.FitnessPredicate
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	collector *telemetry.Collector
	hub       *stream.Hub

	mu        sync.Mutex
	summaries []sim.Summary
	unloaded  bool
}

// NewGameWithOptions validates cfg with the overrides applied and wires
// every collaborator opts asks for.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg = cfg.Clone()
	if opts.Generations > 0 {
		cfg.Simulation.Generations = opts.Generations
	}

	var resume *resumePoint
	if opts.ResumePath != "" {
		r, err := loadResume(opts.ResumePath, cfg)
		if err != nil {
			return nil, err
		}
		resume = r
		cfg.Seed = r.seed
	}
	if opts.Seed != 0 {
		cfg.Seed = opts.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	pred, err := sim.PredicateFromConfig(cfg.Fitness)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		logger:    logger,
		predicate: pred,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
	}

	loopOpts, err := g.collaborators()
	if err != nil {
		return nil, err
	}
	loopOpts = append(loopOpts, sim.WithLogger(logger), sim.WithPredicate(pred), sim.WithPhaseTimer(g.perf))
	if resume != nil {
		loopOpts = append(loopOpts, sim.WithInitialPool(resume.pool, resume.start))
	}

	loop, err := sim.NewLoop(cfg, loopOpts...)
	if err != nil {
		g.closeOutput()
		return nil, fmt.Errorf("building loop: %w", err)
	}
	g.loop = loop
	return g, nil
}

// Config returns the effective configuration.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Bounds returns the world bounds.
func (g *Game) Bounds() components.Bounds {
	return components.Bounds{Width: g.cfg.Derived.WorldW32, Height: g.cfg.Derived.WorldH32}
}

// Predicate returns the fitness predicate in use.
func (g *Game) Predicate() sim.FitnessPredicate {
	return g.predicate
}

// Perf returns the phase timing collector.
func (g *Game) Perf() *telemetry.PerfCollector {
	return g.perf
}

// Collector returns the telemetry collector.
func (g *Game) Collector() *telemetry.Collector {
	return g.collector
}

// Loop returns the underlying evolution loop.
func (g *Game) Loop() *sim.Loop {
	return g.loop
}

// Summaries returns the summaries of the last Run.
func (g *Game) Summaries() []sim.Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sim.Summary(nil), g.summaries...)
}

// Run executes the configured generations. The stream server, if any,
// lives until ctx is done or Run returns.
func (g *Game) Run(ctx context.Context) ([]sim.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if g.hub != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := stream.Serve(ctx, g.opts.ServeAddr, g.hub); err != nil {
				g.logger.Error("stream server failed", "addr", g.opts.ServeAddr, "error", err)
			}
		}()
	}

	g.logRunStart()
	summaries, err := g.loop.Run(ctx)
	g.mu.Lock()
	g.summaries = summaries
	g.mu.Unlock()
	g.logRunEnd(summaries, err)

	cancel()
	wg.Wait()
	return summaries, err
}
