package sim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func runLoop(t *testing.T, cfg *config.Config, opts ...Option) ([]Summary, *Loop) {
	t.Helper()
	opts = append([]Option{WithLogger(quiet)}, opts...)
	l, err := NewLoop(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	sums, err := l.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return sums, l
}

func TestLoopDeterministic(t *testing.T) {
	cfg := smallConfig(t)
	sumsA, a := runLoop(t, cfg)
	sumsB, b := runLoop(t, cfg)

	if len(sumsA) != cfg.Simulation.Generations {
		t.Fatalf("ran %d generations", len(sumsA))
	}
	for i := range sumsA {
		if sumsA[i] != sumsB[i] {
			t.Fatalf("generation %d: %+v vs %+v", i, sumsA[i], sumsB[i])
		}
	}
	if !a.Pool().Equal(b.Pool()) {
		t.Error("final pools differ")
	}
}

func TestLoopWorkerCountIndependent(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Simulation.ParallelThreshold = 1
	cfg.Simulation.Workers = 1
	_, single := runLoop(t, cfg)

	for _, workers := range []int{2, 5} {
		c := cfg.Clone()
		c.Simulation.Workers = workers
		_, multi := runLoop(t, c)
		if !single.Pool().Equal(multi.Pool()) {
			t.Errorf("workers=%d: pool differs from single-threaded run", workers)
		}
	}
}

func TestLoopSeedMatters(t *testing.T) {
	cfg := smallConfig(t)
	_, a := runLoop(t, cfg)
	other := cfg.Clone()
	other.Seed = cfg.Seed + 1
	_, b := runLoop(t, other)
	if a.Pool().Equal(b.Pool()) {
		t.Error("different seeds produced identical pools")
	}
}

func TestLoopAbortOnExtinction(t *testing.T) {
	cfg := smallConfig(t)
	var reports []GenerationReport
	l, err := NewLoop(cfg,
		WithLogger(quiet),
		WithPredicate(Never),
		WithObserver(ObserverFunc(func(r GenerationReport) error {
			reports = append(reports, r)
			return nil
		})),
	)
	if err != nil {
		t.Fatal(err)
	}
	before := l.Pool()

	sums, err := l.Run(context.Background())
	if !errors.Is(err, ErrDegenerateGeneration) {
		t.Fatalf("err = %v, want ErrDegenerateGeneration", err)
	}
	var ext *ExtinctionError
	if !errors.As(err, &ext) || ext.Generation != 0 {
		t.Errorf("err = %#v, want extinction at generation 0", err)
	}
	if len(sums) != 1 || sums[0].Outcome != OutcomeExtinct {
		t.Errorf("summaries = %+v", sums)
	}
	if len(reports) != 1 || reports[0].Pool != nil {
		t.Error("observers should see the extinct report without a pool")
	}
	if l.Pool() != before {
		t.Error("pool replaced after aborted generation")
	}
}

func TestLoopReseedOnExtinction(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Evolution.OnExtinction = "reseed"
	sums, l := runLoop(t, cfg, WithPredicate(Never))

	if len(sums) != cfg.Simulation.Generations {
		t.Fatalf("ran %d generations", len(sums))
	}
	for _, s := range sums {
		if !s.Reseeded || s.Survivors != 0 {
			t.Errorf("generation %d: %+v", s.Generation, s)
		}
	}
	if err := l.Pool().Validate(cfg.Genome.Length); err != nil {
		t.Error(err)
	}
	if l.Generation() != cfg.Simulation.Generations {
		t.Errorf("next generation = %d", l.Generation())
	}
}

func TestLoopResumeFromPool(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Simulation.Generations = 1
	pool := genome.NewRandomPool(NewRand(99), cfg.Population.PoolSize, cfg.Genome.Length)

	var seen int
	_, l := runLoop(t, cfg, WithInitialPool(pool, 7), WithObserver(ObserverFunc(func(r GenerationReport) error {
		seen = r.Generation
		return nil
	})))
	if seen != 7 || l.Generation() != 8 {
		t.Errorf("resumed generation = %d, next = %d", seen, l.Generation())
	}

	bad := genome.NewRandomPool(NewRand(99), 3, cfg.Genome.Length+2)
	if _, err := NewLoop(cfg, WithInitialPool(bad, 0)); !errors.Is(err, genome.ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestLoopRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Mutation.Rate = 1.5
	if _, err := NewLoop(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoopObserverErrorStops(t *testing.T) {
	cfg := smallConfig(t)
	boom := errors.New("disk full")
	l, err := NewLoop(cfg, WithLogger(quiet), WithObserver(ObserverFunc(func(GenerationReport) error { return boom })))
	if err != nil {
		t.Fatal(err)
	}
	sums, err := l.Run(context.Background())
	if !errors.Is(err, boom) || len(sums) != 1 {
		t.Errorf("err = %v after %d generations", err, len(sums))
	}
}

func TestLoopContextCancelled(t *testing.T) {
	cfg := smallConfig(t)
	l, err := NewLoop(cfg, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sums, err := l.Run(ctx)
	if !errors.Is(err, context.Canceled) || len(sums) != 0 {
		t.Errorf("err = %v, summaries = %d", err, len(sums))
	}
}

func TestLoopTerminalFrame(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Simulation.Generations = 1
	var frames []Frame
	runLoop(t, cfg, WithFrameObserver(FrameObserverFunc(func(f Frame) { frames = append(frames, f) })))

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want only the terminal one", len(frames))
	}
	f := frames[0]
	if !f.Terminal || len(f.Positions) != cfg.Population.Size || len(f.SurvivorMask) != cfg.Population.Size {
		t.Errorf("terminal frame: terminal=%v positions=%d mask=%d", f.Terminal, len(f.Positions), len(f.SurvivorMask))
	}
}

// Default world with the centre region predicate: selection should bite
// without wiping out the population.
func TestLoopSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("full-size generation")
	}
	cfg := config.Default()
	cfg.Seed = 42
	cfg.Simulation.Generations = 1
	cfg.Fitness = config.FitnessConfig{Kind: "region", MinX: 30, MaxX: 90, MinY: 30, MaxY: 90}

	sums, _ := runLoop(t, cfg)
	got := sums[0].Survivors
	if got <= 0 || got >= cfg.Population.Size {
		t.Errorf("survivors = %d, want strictly between 0 and %d", got, cfg.Population.Size)
	}
}
