package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
)

// Phase is a state of the generation state machine.
type Phase int

const (
	PhaseSpawning Phase = iota
	PhaseRunning
	PhaseEvaluating
	PhaseHarvesting
	PhaseDone
)

var phaseNames = [...]string{"spawning", "running", "evaluating", "harvesting", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Outcome tags how a generation ended.
type Outcome int

const (
	// OutcomeSurvived means at least one creature survived and a pool was harvested.
	OutcomeSurvived Outcome = iota
	// OutcomeExtinct means no creature survived; there is no next pool.
	OutcomeExtinct
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSurvived:
		return "survived"
	case OutcomeExtinct:
		return "extinct"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// SpawnPolicy places new creatures.
type SpawnPolicy struct {
	Random bool
	X, Y   float32 // used when Random is false
}

// Params holds everything a generation needs besides its pool and predicate.
type Params struct {
	PopulationSize int
	PoolSize       int
	GenomeLength   int
	Width, Height  int
	Layout         neural.Layout
	MutationRate   float64
	MutationMode   genome.MutationMode
	Spawn          SpawnPolicy
	World          WorldOptions
	FrameEvery     int // ticks between intermediate frames (0 = none)
}

// ParamsFromConfig extracts generation parameters from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		PopulationSize: cfg.Population.Size,
		PoolSize:       cfg.Population.PoolSize,
		GenomeLength:   cfg.Genome.Length,
		Width:          cfg.World.Width,
		Height:         cfg.World.Height,
		Layout:         neural.Layout{Internal: cfg.Genome.InternalNeurons},
		MutationRate:   cfg.Mutation.Rate,
		MutationMode:   genome.MutationMode(cfg.Mutation.Mode),
		Spawn: SpawnPolicy{
			Random: cfg.Spawn.Mode != "fixed",
			X:      float32(cfg.Spawn.X),
			Y:      float32(cfg.Spawn.Y),
		},
		World: WorldOptions{
			Iterations:        cfg.Simulation.IterationsPerGeneration,
			MaxStep:           cfg.Derived.MaxStep,
			OscillatorPeriod:  cfg.Movement.OscillatorPeriod,
			Workers:           cfg.Simulation.Workers,
			ParallelThreshold: cfg.Simulation.ParallelThreshold,
		},
		FrameEvery: cfg.Output.FrameEvery,
	}
}

// PhaseTimer receives phase boundaries of a generation.
type PhaseTimer interface {
	StartGeneration()
	StartPhase(name string)
	EndGeneration()
}

// Frame is the population state handed to rendering collaborators.
type Frame struct {
	Generation   int
	Tick         int
	Terminal     bool
	Bounds       components.Bounds
	Positions    []components.Position
	SurvivorMask []bool // nil unless Terminal
}

// Result is everything one generation produced.
type Result struct {
	Generation   int
	Outcome      Outcome
	Bounds       components.Bounds
	Population   []Creature // terminal states in spawn order
	SurvivorMask []bool
	Survivors    int
	Pool         *genome.Pool // nil when extinct
	Parents      []int        // Population index of each pool member's parent
	Duration     time.Duration
}

// SurvivalRate returns the fraction of the population that survived.
func (r Result) SurvivalRate() float64 {
	if len(r.Population) == 0 {
		return 0
	}
	return float64(r.Survivors) / float64(len(r.Population))
}

// Positions returns the terminal positions in spawn order.
func (r Result) Positions() []components.Position {
	out := make([]components.Position, len(r.Population))
	for i, c := range r.Population {
		out[i] = c.Position
	}
	return out
}

// Frame returns the terminal frame of the generation.
func (r Result) Frame() Frame {
	tick := 0
	if len(r.Population) > 0 {
		tick = int(r.Population[0].Steps)
	}
	return Frame{
		Generation:   r.Generation,
		Tick:         tick,
		Terminal:     true,
		Bounds:       r.Bounds,
		Positions:    r.Positions(),
		SurvivorMask: r.SurvivorMask,
	}
}

// Runner drives a single generation through its phases.
type Runner struct {
	gen       int
	params    Params
	pool      *genome.Pool
	predicate FitnessPredicate
	rng       *rand.Rand

	timer  PhaseTimer
	frames FrameObserver

	phase  Phase
	world  *World
	result Result
	start  time.Time
}

// NewRunner prepares generation gen to breed from pool.
// rng is shared with the caller and advanced as the generation runs.
func NewRunner(gen int, pool *genome.Pool, params Params, predicate FitnessPredicate, rng *rand.Rand) (*Runner, error) {
	if predicate == nil {
		return nil, errors.New("sim: nil fitness predicate")
	}
	if params.PopulationSize <= 0 || params.PoolSize <= 0 {
		return nil, &config.ValidationError{Field: "population", Reason: "sizes must be > 0"}
	}
	if err := pool.Validate(params.GenomeLength); err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	w, err := NewWorld(params.Width, params.Height, params.World)
	if err != nil {
		return nil, err
	}
	return &Runner{
		gen:       gen,
		params:    params,
		pool:      pool,
		predicate: predicate,
		rng:       rng,
		world:     w,
		phase:     PhaseSpawning,
	}, nil
}

// SetPhaseTimer attaches a timer for phase durations.
func (r *Runner) SetPhaseTimer(t PhaseTimer) {
	r.timer = t
}

// SetFrameObserver attaches an observer for intermediate frames.
func (r *Runner) SetFrameObserver(f FrameObserver) {
	r.frames = f
}

// Phase returns the phase the next Advance will execute.
func (r *Runner) Phase() Phase {
	return r.phase
}

// World returns the generation's world.
func (r *Runner) World() *World {
	return r.world
}

// Advance executes the current phase to completion and moves to the next.
func (r *Runner) Advance() error {
	if r.phase != PhaseDone && r.timer != nil {
		r.timer.StartPhase(r.phase.String())
	}
	switch r.phase {
	case PhaseSpawning:
		r.start = time.Now()
		r.spawn()
		r.phase = PhaseRunning
	case PhaseRunning:
		if err := r.run(); err != nil {
			return err
		}
		r.phase = PhaseEvaluating
	case PhaseEvaluating:
		r.evaluate()
		r.phase = PhaseHarvesting
	case PhaseHarvesting:
		r.harvest()
		r.result.Duration = time.Since(r.start)
		r.phase = PhaseDone
	case PhaseDone:
		return fmt.Errorf("sim: generation %d already done", r.gen)
	}
	return nil
}

// Run advances through every remaining phase and returns the result.
func (r *Runner) Run() (Result, error) {
	if r.timer != nil {
		r.timer.StartGeneration()
	}
	for r.phase != PhaseDone {
		if err := r.Advance(); err != nil {
			return Result{}, err
		}
	}
	if r.timer != nil {
		r.timer.EndGeneration()
	}
	return r.result, nil
}

// Result returns the outcome once the runner is done.
func (r *Runner) Result() (Result, bool) {
	return r.result, r.phase == PhaseDone
}

func (r *Runner) spawn() {
	p := r.params
	bounds := r.world.Bounds()
	for i := 0; i < p.PopulationSize; i++ {
		idx, g := r.pool.Sample(r.rng)
		pos := components.Position{X: p.Spawn.X, Y: p.Spawn.Y}
		if p.Spawn.Random {
			pos = components.Position{
				X: r.rng.Float32() * bounds.Width,
				Y: r.rng.Float32() * bounds.Height,
			}
		}
		c := Spawn(g, pos, p.Layout)
		c.PoolIndex = idx
		r.world.Spawn(c)
	}
}

func (r *Runner) run() error {
	every := r.params.FrameEvery
	for !r.world.Finished() {
		if err := r.world.Tick(); err != nil {
			return err
		}
		if r.frames != nil && every > 0 && r.world.CurrentTick()%every == 0 && !r.world.Finished() {
			r.frames.ObserveFrame(Frame{
				Generation: r.gen,
				Tick:       r.world.CurrentTick(),
				Bounds:     r.world.Bounds(),
				Positions:  r.world.Positions(),
			})
		}
	}
	return nil
}

func (r *Runner) evaluate() {
	bounds := r.world.Bounds()
	pop := r.world.Creatures()
	mask := make([]bool, len(pop))
	survivors := 0
	for i, c := range pop {
		if r.predicate.IsAlive(c.Terminal(bounds)) {
			mask[i] = true
			survivors++
		}
	}
	r.result = Result{
		Generation:   r.gen,
		Bounds:       bounds,
		Population:   pop,
		SurvivorMask: mask,
		Survivors:    survivors,
	}
}

// harvest draws the next pool from survivors only.
func (r *Runner) harvest() {
	if r.result.Survivors == 0 {
		r.result.Outcome = OutcomeExtinct
		return
	}

	alive := make([]int, 0, r.result.Survivors)
	for i, ok := range r.result.SurvivorMask {
		if ok {
			alive = append(alive, i)
		}
	}

	p := r.params
	genomes := make([]genome.Genome, p.PoolSize)
	parents := make([]int, p.PoolSize)
	for i := range genomes {
		parent := alive[r.rng.IntN(len(alive))]
		parents[i] = parent
		genomes[i] = genome.Mutate(r.result.Population[parent].Genome, p.MutationRate, p.MutationMode, r.rng)
	}

	r.result.Outcome = OutcomeSurvived
	r.result.Pool = genome.NewPool(genomes)
	r.result.Parents = parents
}
