// Package genome defines the fixed-length wiring genomes that encode creature
// movement, and the gene pools they are bred from.
package genome

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/pthm-cable/creatures/neural"
)

// GeneBits is the width of a gene.
const GeneBits = 32

// WeightScale converts the raw signed weight to a float in [-4, 4).
const WeightScale = 1.0 / 8192.0

const (
	kindBit    = 0b1000_0000
	numberMask = 0b0111_1111
)

// Gene is one wiring instruction: a source neuron, a sink neuron and a weight.
//
// Source top bit: 0 = input, 1 = internal.
// Sink top bit: 0 = internal, 1 = output.
// The low seven bits select the neuron modulo the layer size.
type Gene struct {
	Source uint8
	Sink   uint8
	Weight int16
}

// FromRaw unpacks a 32-bit gene value (source in the top byte).
func FromRaw(raw uint32) Gene {
	return Gene{
		Source: uint8(raw >> 24),
		Sink:   uint8(raw >> 16),
		Weight: int16(uint16(raw)),
	}
}

// Raw packs the gene into its 32-bit form.
func (g Gene) Raw() uint32 {
	return uint32(g.Source)<<24 | uint32(g.Sink)<<16 | uint32(uint16(g.Weight))
}

// RandomGene draws a gene uniformly over all 32-bit values.
func RandomGene(rng *rand.Rand) Gene {
	return FromRaw(rng.Uint32())
}

// FlipBit returns g with one bit of its raw form inverted.
// Panics if bit is out of range.
func (g Gene) FlipBit(bit uint) Gene {
	if bit >= GeneBits {
		panic(fmt.Sprintf("genome: bit %d out of range", bit))
	}
	return FromRaw(g.Raw() ^ (1 << bit))
}

// SourceKind reports whether the source is an input or an internal neuron.
func (g Gene) SourceKind() neural.NeuronKind {
	if g.Source&kindBit == 0 {
		return neural.KindInput
	}
	return neural.KindInternal
}

// SinkKind reports whether the sink is an internal or an output neuron.
func (g Gene) SinkKind() neural.NeuronKind {
	if g.Sink&kindBit == 0 {
		return neural.KindInternal
	}
	return neural.KindOutput
}

// SourceNeuron resolves the source against layout.
func (g Gene) SourceNeuron(layout neural.Layout) neural.Neuron {
	return resolve(g.SourceKind(), g.Source, layout)
}

// SinkNeuron resolves the sink against layout.
func (g Gene) SinkNeuron(layout neural.Layout) neural.Neuron {
	return resolve(g.SinkKind(), g.Sink, layout)
}

// WeightValue returns the scaled connection weight.
func (g Gene) WeightValue() float32 {
	return float32(g.Weight) * WeightScale
}

// Connection converts the gene into a brain connection.
func (g Gene) Connection(layout neural.Layout) neural.Connection {
	return neural.Connection{
		Source: g.SourceNeuron(layout),
		Sink:   g.SinkNeuron(layout),
		Weight: g.WeightValue(),
	}
}

func resolve(kind neural.NeuronKind, raw uint8, layout neural.Layout) neural.Neuron {
	size := layout.Size(kind)
	if size <= 0 {
		// No neurons of this kind; Compile drops the connection.
		return neural.Neuron{Kind: kind, Number: -1}
	}
	return neural.Neuron{Kind: kind, Number: int(raw&numberMask) % size}
}

// String renders the gene as eight hex digits: source, sink, weight.
func (g Gene) String() string {
	return fmt.Sprintf("%08X", g.Raw())
}

// ParseGene parses the form produced by String.
func ParseGene(s string) (Gene, error) {
	if len(s) != 8 {
		return Gene{}, fmt.Errorf("parse gene %q: want 8 hex digits", s)
	}
	raw, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Gene{}, fmt.Errorf("parse gene %q: %w", s, err)
	}
	return FromRaw(uint32(raw)), nil
}
