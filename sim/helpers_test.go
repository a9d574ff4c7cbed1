package sim

import (
	"testing"

	"github.com/pthm-cable/creatures/config"
)

// smallConfig returns a fast configuration for tests.
func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.World.Width = 64
	cfg.World.Height = 64
	cfg.Population.PoolSize = 20
	cfg.Population.Size = 50
	cfg.Genome.Length = 8
	cfg.Simulation.IterationsPerGeneration = 60
	cfg.Simulation.Generations = 3
	cfg.Fitness = config.FitnessConfig{Kind: "region", MinX: 16, MaxX: 48, MinY: 16, MaxY: 48}
	cfg.ComputeDerived()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}
