package game

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/telemetry"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.World.Width = 48
	cfg.World.Height = 48
	cfg.Population.PoolSize = 10
	cfg.Population.Size = 24
	cfg.Genome.Length = 6
	cfg.Simulation.IterationsPerGeneration = 30
	cfg.Simulation.Generations = 3
	cfg.Fitness = config.FitnessConfig{Kind: "always"}
	cfg.Output.RenderEvery = 1
	cfg.ComputeDerived()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}

func TestRunWritesArtifacts(t *testing.T) {
	out := t.TempDir()
	frames := t.TempDir()

	g, err := NewGameWithOptions(testConfig(t), Options{OutputDir: out, RenderDir: frames, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	summaries, err := g.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}
	if err := g.Unload(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"generations.csv", "perf.csv", "bookmarks.csv", "config.yaml", "pool.csv", "survival.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; lines != 4 {
		t.Errorf("generations.csv has %d lines, want header + 3", lines)
	}

	pngs, _ := filepath.Glob(filepath.Join(frames, "*.png"))
	if len(pngs) != 3 {
		t.Errorf("rendered %d frames, want 3", len(pngs))
	}

	if err := g.Unload(); err != nil {
		t.Errorf("second Unload: %v", err)
	}
}

func TestOverrides(t *testing.T) {
	g, err := NewGameWithOptions(testConfig(t), Options{Seed: 7, Generations: 2, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if g.Config().Seed != 7 {
		t.Errorf("seed = %d, want 7", g.Config().Seed)
	}
	summaries, err := g.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Errorf("ran %d generations, want 2", len(summaries))
	}
	if err := g.Unload(); err != nil {
		t.Errorf("Unload without output dir: %v", err)
	}
}

func TestResumeFromSnapshot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed = 99

	first, err := NewGameWithOptions(cfg, Options{Generations: 1, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := telemetry.NewSnapshot(first.Config(), 4, first.Loop().Pool())
	path, err := telemetry.SaveSnapshot(snap, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	resumed, err := NewGameWithOptions(testConfig(t), Options{ResumePath: path, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if got := resumed.Loop().Generation(); got != 5 {
		t.Errorf("resumed at generation %d, want 5", got)
	}
	if resumed.Config().Seed != 99 {
		t.Errorf("resumed seed = %d, want snapshot seed 99", resumed.Config().Seed)
	}
	if !resumed.Loop().Pool().Equal(first.Loop().Pool()) {
		t.Error("resumed pool differs from snapshot pool")
	}

	summaries, err := resumed.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summaries[0].Generation != 5 {
		t.Errorf("first resumed generation = %d, want 5", summaries[0].Generation)
	}
}

func TestResumeRejectsMismatchedGenome(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewGameWithOptions(cfg, Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(cfg, 0, g.Loop().Pool()), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	other := testConfig(t)
	other.Genome.Length = 9
	if _, err := NewGameWithOptions(other, Options{ResumePath: path, Logger: quiet}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestInvalidOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mutation.Rate = 2
	if _, err := NewGameWithOptions(cfg, Options{Logger: quiet}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestExtinctionAbortStillUnloads(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fitness.Kind = "never"
	out := t.TempDir()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	g, err := NewGameWithOptions(cfg, Options{OutputDir: out, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.Run(context.Background())
	var ext *sim.ExtinctionError
	if !errors.As(err, &ext) || ext.Generation != 0 {
		t.Fatalf("err = %v, want extinction at generation 0", err)
	}
	if !strings.Contains(buf.String(), "run aborted by extinction") {
		t.Error("extinction not logged")
	}

	if err := g.Unload(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "pool.csv")); err != nil {
		t.Errorf("pool.csv not written after abort: %v", err)
	}
}

func TestExtraObservers(t *testing.T) {
	var generations, frames int
	obs := sim.ObserverFunc(func(sim.GenerationReport) error {
		generations++
		return nil
	})
	fobs := sim.FrameObserverFunc(func(sim.Frame) { frames++ })

	g, err := NewGameWithOptions(testConfig(t), Options{
		Logger:         quiet,
		Observers:      []sim.Observer{obs},
		FrameObservers: []sim.FrameObserver{fobs},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if generations != 3 {
		t.Errorf("observer saw %d generations, want 3", generations)
	}
	if frames < 3 {
		t.Errorf("frame observer saw %d frames, want at least the 3 terminal ones", frames)
	}
}

func TestRunWithStreamShutsDown(t *testing.T) {
	g, err := NewGameWithOptions(testConfig(t), Options{ServeAddr: "127.0.0.1:0", Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRunCancelled(t *testing.T) {
	g, err := NewGameWithOptions(testConfig(t), Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summaries, err := g.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(summaries) != 0 {
		t.Errorf("ran %d generations after cancel", len(summaries))
	}
}
