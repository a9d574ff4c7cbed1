package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
)

// ExtinctionPolicy decides what the loop does after a generation with no survivors.
type ExtinctionPolicy string

const (
	// ExtinctionAbort stops the run with an *ExtinctionError.
	ExtinctionAbort ExtinctionPolicy = "abort"
	// ExtinctionReseed replaces the pool with fresh random genomes.
	ExtinctionReseed ExtinctionPolicy = "reseed"
)

// GenerationReport is published to observers after every generation.
type GenerationReport struct {
	Generation   int
	Outcome      Outcome
	Reseeded     bool
	Bounds       components.Bounds
	Population   []Creature
	Positions    []components.Position
	SurvivorMask []bool
	Survivors    int
	Pool         *genome.Pool // breeding pool for the next generation
	Parents      []int        // nil when reseeded
	Duration     time.Duration
}

// SurvivalRate returns the fraction of the population that survived.
func (r GenerationReport) SurvivalRate() float64 {
	if len(r.Population) == 0 {
		return 0
	}
	return float64(r.Survivors) / float64(len(r.Population))
}

// Frame returns the terminal frame of the reported generation.
func (r GenerationReport) Frame() Frame {
	return Frame{
		Generation:   r.Generation,
		Tick:         terminalTick(r.Population),
		Terminal:     true,
		Bounds:       r.Bounds,
		Positions:    r.Positions,
		SurvivorMask: r.SurvivorMask,
	}
}

// LogValue implements slog.LogValuer.
func (r GenerationReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", r.Generation),
		slog.String("outcome", r.Outcome.String()),
		slog.Int("population", len(r.Population)),
		slog.Int("survivors", r.Survivors),
		slog.Float64("survival_rate", r.SurvivalRate()),
		slog.Bool("reseeded", r.Reseeded),
		slog.Int("pool_distinct", r.Pool.Distinct()),
		slog.Duration("duration", r.Duration),
	)
}

func terminalTick(pop []Creature) int {
	if len(pop) == 0 {
		return 0
	}
	return int(pop[0].Steps)
}

// Summary is the compact per-generation record returned by Run.
type Summary struct {
	Generation int
	Outcome    Outcome
	Survivors  int
	Population int
	Reseeded   bool
}

// Observer receives a report after each generation.
// A returned error stops the run.
type Observer interface {
	ObserveGeneration(GenerationReport) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(GenerationReport) error

// ObserveGeneration calls f(r).
func (f ObserverFunc) ObserveGeneration(r GenerationReport) error {
	return f(r)
}

// FrameObserver receives intermediate and terminal population frames.
type FrameObserver interface {
	ObserveFrame(Frame)
}

// FrameObserverFunc adapts a function to FrameObserver.
type FrameObserverFunc func(Frame)

// ObserveFrame calls f(fr).
func (f FrameObserverFunc) ObserveFrame(fr Frame) {
	f(fr)
}

type frameFanout []FrameObserver

func (fs frameFanout) ObserveFrame(fr Frame) {
	for _, f := range fs {
		f.ObserveFrame(fr)
	}
}

// Option configures a Loop.
type Option func(*Loop)

// WithPredicate replaces the configured fitness predicate.
func WithPredicate(p FitnessPredicate) Option {
	return func(l *Loop) { l.predicate = p }
}

// WithInitialPool starts from pool at generation start instead of a random pool.
func WithInitialPool(pool *genome.Pool, start int) Option {
	return func(l *Loop) {
		l.pool = pool
		l.generation = start
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithObserver adds a generation observer.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// WithFrameObserver adds a frame observer.
func WithFrameObserver(f FrameObserver) Option {
	return func(l *Loop) { l.frames = append(l.frames, f) }
}

// WithPhaseTimer sets the timer that receives phase durations.
func WithPhaseTimer(t PhaseTimer) Option {
	return func(l *Loop) { l.timer = t }
}

// Loop drives generations, carrying the breeding pool from one to the next.
type Loop struct {
	cfg       *config.Config
	params    Params
	policy    ExtinctionPolicy
	predicate FitnessPredicate
	rng       *rand.Rand
	logger    *slog.Logger

	observers []Observer
	frames    frameFanout
	timer     PhaseTimer

	pool       *genome.Pool
	generation int
}

// NewLoop validates cfg and prepares a run.
func NewLoop(cfg *config.Config, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()
	cfg.ComputeDerived()

	l := &Loop{
		cfg:    cfg,
		params: ParamsFromConfig(cfg),
		policy: ExtinctionPolicy(cfg.Evolution.OnExtinction),
		rng:    NewRand(cfg.Seed),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.predicate == nil {
		p, err := PredicateFromConfig(cfg.Fitness)
		if err != nil {
			return nil, err
		}
		l.predicate = p
	}

	if l.pool == nil {
		l.pool = genome.NewRandomPool(l.rng, l.params.PoolSize, l.params.GenomeLength)
	} else if err := l.pool.Validate(l.params.GenomeLength); err != nil {
		return nil, fmt.Errorf("%w: initial pool: %w", config.ErrInvalidConfig, err)
	}
	return l, nil
}

// Pool returns the current breeding pool.
func (l *Loop) Pool() *genome.Pool {
	return l.pool
}

// Generation returns the index of the next generation to run.
func (l *Loop) Generation() int {
	return l.generation
}

// Config returns the loop's validated configuration.
func (l *Loop) Config() *config.Config {
	return l.cfg
}

// Run executes the configured number of generations.
// ctx is checked between generations only; a generation always runs to completion.
func (l *Loop) Run(ctx context.Context) ([]Summary, error) {
	summaries := make([]Summary, 0, l.cfg.Simulation.Generations)
	for i := 0; i < l.cfg.Simulation.Generations; i++ {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		report, err := l.Step()
		summaries = append(summaries, Summary{
			Generation: report.Generation,
			Outcome:    report.Outcome,
			Survivors:  report.Survivors,
			Population: len(report.Population),
			Reseeded:   report.Reseeded,
		})
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// Step runs one generation and publishes its report.
// On extinction under the abort policy the report is still published and
// the returned error is an *ExtinctionError.
func (l *Loop) Step() (GenerationReport, error) {
	runner, err := NewRunner(l.generation, l.pool, l.params, l.predicate, l.rng)
	if err != nil {
		return GenerationReport{Generation: l.generation}, err
	}
	if l.timer != nil {
		runner.SetPhaseTimer(l.timer)
	}
	if len(l.frames) > 0 {
		runner.SetFrameObserver(l.frames)
	}

	res, err := runner.Run()
	if err != nil {
		return GenerationReport{Generation: l.generation}, err
	}

	report := GenerationReport{
		Generation:   res.Generation,
		Outcome:      res.Outcome,
		Bounds:       res.Bounds,
		Population:   res.Population,
		Positions:    res.Positions(),
		SurvivorMask: res.SurvivorMask,
		Survivors:    res.Survivors,
		Pool:         res.Pool,
		Parents:      res.Parents,
		Duration:     res.Duration,
	}

	var stepErr error
	if res.Outcome == OutcomeExtinct {
		switch l.policy {
		case ExtinctionReseed:
			report.Pool = genome.NewRandomPool(l.rng, l.params.PoolSize, l.params.GenomeLength)
			report.Reseeded = true
			l.logger.Warn("extinction, reseeding pool", "generation", res.Generation)
		default:
			stepErr = &ExtinctionError{Generation: res.Generation}
			l.logger.Warn("extinction, aborting run", "generation", res.Generation)
		}
	}

	l.logger.Info("generation", "report", report)

	if len(l.frames) > 0 {
		l.frames.ObserveFrame(report.Frame())
	}
	for _, o := range l.observers {
		if err := o.ObserveGeneration(report); err != nil {
			return report, fmt.Errorf("observer: %w", err)
		}
	}
	if stepErr != nil {
		return report, stepErr
	}

	l.pool = report.Pool
	l.generation++
	return report, nil
}
