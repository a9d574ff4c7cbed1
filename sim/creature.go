// Package sim runs the evolutionary simulation: creatures moving in a bounded
// world, survival evaluation, and breeding the next gene pool.
//
// Nothing in this package performs I/O. Collaborators observe progress through
// Observer and FrameObserver.
package sim

import (
	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/systems"
)

// Creature is one agent of a generation.
// It owns its genome; the brain is compiled from it once at spawn.
type Creature struct {
	Genome    genome.Genome
	PoolIndex int
	Brain     *neural.Brain
	Position  components.Position
	Steps     int32
}

// Spawn creates a creature with a zero step counter at pos.
func Spawn(g genome.Genome, pos components.Position, layout neural.Layout) Creature {
	return Creature{
		Genome:   g,
		Brain:    g.Brain(layout),
		Position: pos,
	}
}

// Step returns the creature after one move in env.
// It reads nothing but the creature and env.
func (c Creature) Step(env systems.Environment) Creature {
	pos, age := systems.Step(c.Position, components.Age{Steps: c.Steps}, c.Brain, env)
	c.Position = pos
	c.Steps = age.Steps
	return c
}

// Terminal returns the state the fitness predicate sees.
func (c Creature) Terminal(bounds components.Bounds) TerminalState {
	return TerminalState{Position: c.Position, Steps: c.Steps, Bounds: bounds}
}
