package genome

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// Pool is an immutable breeding population of genomes.
type Pool struct {
	genomes []Genome
}

// NewPool builds a pool from genomes. The slice is copied; the genomes are not
// cloned, so callers must not modify them afterwards.
func NewPool(genomes []Genome) *Pool {
	p := &Pool{genomes: make([]Genome, len(genomes))}
	copy(p.genomes, genomes)
	return p
}

// NewRandomPool seeds a pool with size random genomes of the given length.
func NewRandomPool(rng *rand.Rand, size, length int) *Pool {
	genomes := make([]Genome, size)
	for i := range genomes {
		genomes[i] = NewRandom(rng, length)
	}
	return &Pool{genomes: genomes}
}

// Len returns the number of genomes in the pool.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.genomes)
}

// At returns the i-th genome.
func (p *Pool) At(i int) Genome {
	return p.genomes[i]
}

// Genomes returns a copy of the pool's genome list.
func (p *Pool) Genomes() []Genome {
	out := make([]Genome, len(p.genomes))
	copy(out, p.genomes)
	return out
}

// Sample draws one genome uniformly, with replacement.
// Returns its index in the pool alongside it.
func (p *Pool) Sample(rng *rand.Rand) (int, Genome) {
	i := rng.IntN(len(p.genomes))
	return i, p.genomes[i]
}

// Distinct counts the genomes that differ from every other member.
func (p *Pool) Distinct() int {
	if p == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(p.genomes))
	for _, g := range p.genomes {
		seen[g.String()] = struct{}{}
	}
	return len(seen)
}

// Equal reports whether both pools hold the same genomes in the same order.
func (p *Pool) Equal(o *Pool) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i := range p.genomes {
		if !p.genomes[i].Equal(o.genomes[i]) {
			return false
		}
	}
	return true
}

// Validate checks every member against length.
func (p *Pool) Validate(length int) error {
	if p.Len() == 0 {
		return errors.New("genome pool is empty")
	}
	for i, g := range p.genomes {
		if err := Validate(g, length); err != nil {
			return fmt.Errorf("pool member %d: %w", i, err)
		}
	}
	return nil
}
