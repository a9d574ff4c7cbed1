// Package components defines ECS components for creatures.
package components

import (
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
)

// Position represents a creature's world position.
type Position struct {
	X, Y float32
}

// Age counts the steps a creature has taken this generation.
type Age struct {
	Steps int32
}

// Genotype holds the creature's genome and where it was drawn from.
// The genome is never modified after spawn.
type Genotype struct {
	Genome    genome.Genome
	PoolIndex int // index in the gene pool the creature was spawned from
}

// Brain holds the wiring compiled from the creature's genome.
type Brain struct {
	Net *neural.Brain
}

// Bounds represents the world extent: [0, Width) x [0, Height).
type Bounds struct {
	Width, Height float32
}

// Contains reports whether p lies inside b.
func (b Bounds) Contains(p Position) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}
