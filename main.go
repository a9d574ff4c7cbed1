package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/game"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	generations := flag.Int("generations", 0, "Number of generations (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, final pool and config snapshot")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshot files")
	resume := flag.String("resume", "", "Resume from a pool snapshot file")
	renderDir := flag.String("render-dir", "", "Directory for per-generation PNG frames")
	serve := flag.String("serve", "", "Stream frames over websocket on this address (e.g. :8080)")
	view := flag.Bool("view", false, "Open the live viewer window")
	logStats := flag.Bool("log-stats", false, "Output per-generation stats via slog")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := game.Options{
		Seed:        *seed,
		Generations: *generations,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		ResumePath:  *resume,
		RenderDir:   *renderDir,
		ServeAddr:   *serve,
		Logger:      logger,
	}

	var (
		gate   *sim.Gate
		viewer *ui.Viewer
	)
	if *view {
		gate = sim.NewGate()
		viewer = ui.NewViewer(gate, ui.ViewerOptions{
			Title:     "Creatures",
			Width:     int32(cfg.Screen.Width),
			Height:    int32(cfg.Screen.Height),
			TargetFPS: int32(cfg.Screen.TargetFPS),
			Logger:    logger,
		})
		opts.Observers = []sim.Observer{viewer, gate}
		opts.FrameObservers = []sim.FrameObserver{viewer}
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to set up run", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if viewer != nil {
		viewer.Attach(ui.RunInfo{
			Bounds:      g.Bounds(),
			Predicate:   g.Predicate(),
			Perf:        g.Perf(),
			Generations: g.Loop().Generation() + g.Config().Simulation.Generations,
			Iterations:  g.Config().Simulation.IterationsPerGeneration,
		})
		err = runWithViewer(ctx, g, viewer)
	} else {
		_, err = g.Run(ctx)
	}

	if uerr := g.Unload(); uerr != nil {
		slog.Error("failed to write final output", "error", uerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, sim.ErrDegenerateGeneration):
		os.Exit(2)
	case errors.Is(err, context.Canceled):
		slog.Info("run interrupted")
	default:
		os.Exit(1)
	}
}

// runWithViewer runs the loop in the background while the window owns the
// main goroutine. Closing the window cancels the run.
func runWithViewer(ctx context.Context, g *game.Game, viewer *ui.Viewer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := g.Run(ctx)
		viewer.Finish()
		done <- err
	}()

	viewer.Run(ctx)
	cancel()
	return <-done
}
