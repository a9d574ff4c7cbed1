// Package systems contains ECS systems for the simulation.
package systems

import (
	"math"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/neural"
)

// Environment is the read-only world state shared by every creature on a tick.
type Environment struct {
	Bounds     components.Bounds
	Tick       int32
	Iterations int32
	MaxStep    float32
	OscPeriod  int32
}

// Perceive builds the neural state a creature sees at pos.
func (env Environment) Perceive(pos components.Position, age components.Age) neural.State {
	return neural.State{
		X:          pos.X,
		Y:          pos.Y,
		Width:      env.Bounds.Width,
		Height:     env.Bounds.Height,
		Tick:       env.Tick,
		Steps:      age.Steps,
		Iterations: env.Iterations,
		OscPeriod:  env.OscPeriod,
	}
}

// Step advances one creature by one tick.
// It reads only the creature's own state and env, which makes it safe to run in parallel.
func Step(pos components.Position, age components.Age, brain *neural.Brain, env Environment) (components.Position, components.Age) {
	if brain != nil {
		m := brain.Move(env.Perceive(pos, age))
		pos.X += m.DX * env.MaxStep
		pos.Y += m.DY * env.MaxStep
	}
	pos = Clamp(pos, env.Bounds)
	age.Steps++
	return pos, age
}

// Clamp pulls p into [0, Width) x [0, Height).
func Clamp(p components.Position, b components.Bounds) components.Position {
	p.X = clampAxis(p.X, b.Width)
	p.Y = clampAxis(p.Y, b.Height)
	return p
}

func clampAxis(v, extent float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v >= extent {
		// Largest float32 strictly below the bound.
		return math.Nextafter32(extent, 0)
	}
	return v
}
