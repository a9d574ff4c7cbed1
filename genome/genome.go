package genome

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/pthm-cable/creatures/neural"
)

// ErrLengthMismatch is returned when a genome does not have the configured length.
var ErrLengthMismatch = errors.New("genome length mismatch")

// MutationMode selects how a mutated gene changes.
type MutationMode string

const (
	// MutateReplace redraws the whole gene.
	MutateReplace MutationMode = "replace"
	// MutateBitFlip flips one random bit of the gene.
	MutateBitFlip MutationMode = "bitflip"
)

// Valid reports whether m is a known mode.
func (m MutationMode) Valid() bool {
	return m == MutateReplace || m == MutateBitFlip
}

// Genome is an ordered, fixed-length sequence of genes.
// Genomes are treated as immutable; every operation returns a new slice.
type Genome []Gene

// NewRandom returns a genome of length independently drawn genes.
func NewRandom(rng *rand.Rand, length int) Genome {
	g := make(Genome, length)
	for i := range g {
		g[i] = RandomGene(rng)
	}
	return g
}

// Mutate returns a copy of g where each gene is changed with probability rate.
// Rate 0 returns an identical copy without consuming randomness.
func Mutate(g Genome, rate float64, mode MutationMode, rng *rand.Rand) Genome {
	out := g.Clone()
	if rate <= 0 {
		return out
	}
	for i := range out {
		if rate < 1 && rng.Float64() >= rate {
			continue
		}
		switch mode {
		case MutateBitFlip:
			out[i] = out[i].FlipBit(rng.UintN(GeneBits))
		default:
			out[i] = RandomGene(rng)
		}
	}
	return out
}

// Validate checks that g has exactly length genes.
func Validate(g Genome, length int) error {
	if len(g) != length {
		return fmt.Errorf("%w: got %d genes, want %d", ErrLengthMismatch, len(g), length)
	}
	return nil
}

// Connections decodes every gene against layout.
func (g Genome) Connections(layout neural.Layout) []neural.Connection {
	conns := make([]neural.Connection, len(g))
	for i, gene := range g {
		conns[i] = gene.Connection(layout)
	}
	return conns
}

// Brain compiles the genome's wiring.
func (g Genome) Brain(layout neural.Layout) *neural.Brain {
	return neural.Compile(g.Connections(layout), layout)
}

// DecodeMove maps the genome and a creature state to a movement decision.
// It is a pure function: the same inputs always give the same move.
func DecodeMove(g Genome, layout neural.Layout, s neural.State) neural.Move {
	return g.Brain(layout).Move(s)
}

// Clone returns an independent copy of g.
func (g Genome) Clone() Genome {
	if g == nil {
		return nil
	}
	out := make(Genome, len(g))
	copy(out, g)
	return out
}

// Equal reports whether g and o hold the same genes in the same order.
func (g Genome) Equal(o Genome) bool {
	if len(g) != len(o) {
		return false
	}
	for i := range g {
		if g[i] != o[i] {
			return false
		}
	}
	return true
}

// Fingerprint hashes the genome's raw genes (FNV-1a).
func (g Genome) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	for _, gene := range g {
		raw := gene.Raw()
		buf[0] = byte(raw >> 24)
		buf[1] = byte(raw >> 16)
		buf[2] = byte(raw >> 8)
		buf[3] = byte(raw)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// String renders the genome as space-separated hex genes.
func (g Genome) String() string {
	parts := make([]string, len(g))
	for i, gene := range g {
		parts[i] = gene.String()
	}
	return strings.Join(parts, " ")
}

// Parse reads the form produced by Genome.String.
func Parse(s string) (Genome, error) {
	fields := strings.Fields(s)
	g := make(Genome, len(fields))
	for i, f := range fields {
		gene, err := ParseGene(f)
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		g[i] = gene
	}
	return g, nil
}
