package config

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError describes one rejected configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate rejects configurations the simulation cannot run with.
// All failures are fatal; every returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("must be > 0, got %d", v)})
		}
	}
	nonNegative := func(field string, v int) {
		if v < 0 {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("must be >= 0, got %d", v)})
		}
	}

	positive("world.width", c.World.Width)
	positive("world.height", c.World.Height)
	positive("population.pool_size", c.Population.PoolSize)
	positive("population.size", c.Population.Size)
	positive("genome.length", c.Genome.Length)
	nonNegative("genome.internal_neurons", c.Genome.InternalNeurons)
	if c.Genome.InternalNeurons > 128 {
		errs = append(errs, &ValidationError{Field: "genome.internal_neurons", Reason: "must be <= 128"})
	}
	positive("simulation.iterations_per_generation", c.Simulation.IterationsPerGeneration)
	positive("simulation.generations", c.Simulation.Generations)
	nonNegative("simulation.workers", c.Simulation.Workers)
	nonNegative("simulation.parallel_threshold", c.Simulation.ParallelThreshold)
	nonNegative("movement.oscillator_period", c.Movement.OscillatorPeriod)
	nonNegative("output.frame_every", c.Output.FrameEvery)
	nonNegative("output.render_every", c.Output.RenderEvery)
	positive("screen.width", c.Screen.Width)
	positive("screen.height", c.Screen.Height)
	positive("screen.target_fps", c.Screen.TargetFPS)

	if c.Mutation.Rate < 0 || c.Mutation.Rate > 1 || c.Mutation.Rate != c.Mutation.Rate {
		errs = append(errs, &ValidationError{Field: "mutation.rate", Reason: fmt.Sprintf("must be in [0,1], got %v", c.Mutation.Rate)})
	}
	if c.Mutation.Mode != "replace" && c.Mutation.Mode != "bitflip" {
		errs = append(errs, &ValidationError{Field: "mutation.mode", Reason: fmt.Sprintf("unknown mode %q", c.Mutation.Mode)})
	}
	if c.Movement.MaxStep <= 0 || math.IsNaN(c.Movement.MaxStep) || math.IsInf(c.Movement.MaxStep, 0) {
		errs = append(errs, &ValidationError{Field: "movement.max_step", Reason: fmt.Sprintf("must be > 0, got %v", c.Movement.MaxStep)})
	}

	switch c.Spawn.Mode {
	case "random":
	case "fixed":
		if c.Spawn.X < 0 || c.Spawn.X >= float64(c.World.Width) || c.Spawn.Y < 0 || c.Spawn.Y >= float64(c.World.Height) {
			errs = append(errs, &ValidationError{Field: "spawn", Reason: "fixed position outside world"})
		}
	default:
		errs = append(errs, &ValidationError{Field: "spawn.mode", Reason: fmt.Sprintf("unknown mode %q", c.Spawn.Mode)})
	}

	switch c.Fitness.Kind {
	case "region":
		if c.Fitness.MinX >= c.Fitness.MaxX || c.Fitness.MinY >= c.Fitness.MaxY {
			errs = append(errs, &ValidationError{Field: "fitness", Reason: "region min must be below max"})
		}
	case "circle":
		if c.Fitness.Radius <= 0 {
			errs = append(errs, &ValidationError{Field: "fitness.radius", Reason: "must be > 0"})
		}
	case "edge":
		if c.Fitness.EdgeDistance <= 0 {
			errs = append(errs, &ValidationError{Field: "fitness.edge_distance", Reason: "must be > 0"})
		}
	case "always", "never":
	default:
		errs = append(errs, &ValidationError{Field: "fitness.kind", Reason: fmt.Sprintf("unknown kind %q", c.Fitness.Kind)})
	}

	switch c.Evolution.OnExtinction {
	case "abort", "reseed":
	default:
		errs = append(errs, &ValidationError{Field: "evolution.on_extinction", Reason: fmt.Sprintf("unknown policy %q", c.Evolution.OnExtinction)})
	}

	return errors.Join(errs...)
}
