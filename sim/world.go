package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/systems"
)

// WorldOptions holds the per-generation tick parameters.
type WorldOptions struct {
	Iterations        int     // ticks before the world is finished
	MaxStep           float32 // world units per tick at full output
	OscillatorPeriod  int     // ticks
	Workers           int     // movement workers (0 = GOMAXPROCS)
	ParallelThreshold int     // min population to go parallel (0 = default)
}

// World is the bounded space one generation lives in.
// Creatures are stored as ECS entities in spawn order.
type World struct {
	bounds components.Bounds
	opts   WorldOptions
	tick   int

	ecs      *ecs.World
	mapper   *ecs.Map4[components.Position, components.Age, components.Genotype, components.Brain]
	entities []ecs.Entity
	movement *systems.MovementSystem
}

// NewWorld creates an empty world of the given size.
func NewWorld(width, height int, opts WorldOptions) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, &config.ValidationError{Field: "world", Reason: fmt.Sprintf("dimensions must be > 0, got %dx%d", width, height)}
	}
	if opts.Iterations <= 0 {
		return nil, &config.ValidationError{Field: "simulation.iterations_per_generation", Reason: fmt.Sprintf("must be > 0, got %d", opts.Iterations)}
	}

	w := ecs.NewWorld()
	return &World{
		bounds:   components.Bounds{Width: float32(width), Height: float32(height)},
		opts:     opts,
		ecs:      w,
		mapper:   ecs.NewMap4[components.Position, components.Age, components.Genotype, components.Brain](w),
		movement: systems.NewMovementSystem(w, opts.Workers, opts.ParallelThreshold),
	}, nil
}

// Bounds returns the world extent.
func (w *World) Bounds() components.Bounds {
	return w.bounds
}

// CurrentTick returns the number of ticks run so far.
func (w *World) CurrentTick() int {
	return w.tick
}

// Iterations returns the tick budget.
func (w *World) Iterations() int {
	return w.opts.Iterations
}

// Finished reports whether every iteration has run.
func (w *World) Finished() bool {
	return w.tick >= w.opts.Iterations
}

// Len returns the population size.
func (w *World) Len() int {
	return len(w.entities)
}

// Spawn adds c to the world, clamped into bounds.
func (w *World) Spawn(c Creature) {
	pos := systems.Clamp(c.Position, w.bounds)
	age := components.Age{Steps: c.Steps}
	gt := components.Genotype{Genome: c.Genome, PoolIndex: c.PoolIndex}
	brain := components.Brain{Net: c.Brain}
	w.entities = append(w.entities, w.mapper.NewEntity(&pos, &age, &gt, &brain))
}

// Environment returns what creatures perceive on the current tick.
func (w *World) Environment() systems.Environment {
	return systems.Environment{
		Bounds:     w.bounds,
		Tick:       int32(w.tick),
		Iterations: int32(w.opts.Iterations),
		MaxStep:    w.opts.MaxStep,
		OscPeriod:  int32(w.opts.OscillatorPeriod),
	}
}

// Tick advances every creature by exactly one step.
func (w *World) Tick() error {
	if w.Finished() {
		return ErrWorldFinished
	}
	w.movement.Update(w.Environment())
	w.tick++
	return nil
}

// Creatures returns a snapshot of the population in spawn order.
func (w *World) Creatures() []Creature {
	out := make([]Creature, len(w.entities))
	for i, e := range w.entities {
		pos, age, gt, brain := w.mapper.Get(e)
		out[i] = Creature{
			Genome:    gt.Genome,
			PoolIndex: gt.PoolIndex,
			Brain:     brain.Net,
			Position:  *pos,
			Steps:     age.Steps,
		}
	}
	return out
}

// Positions returns every creature's position in spawn order.
func (w *World) Positions() []components.Position {
	out := make([]components.Position, len(w.entities))
	for i, e := range w.entities {
		pos, _, _, _ := w.mapper.Get(e)
		out[i] = *pos
	}
	return out
}
