// Package neural decodes wiring genes into small stateless brains that turn a
// creature's perceived state into a movement decision.
package neural

import (
	"fmt"
	"strings"
)

// NeuronKind identifies the layer a neuron belongs to.
type NeuronKind uint8

const (
	KindInput NeuronKind = iota
	KindInternal
	KindOutput
)

func (k NeuronKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindInternal:
		return "internal"
	case KindOutput:
		return "output"
	}
	return fmt.Sprintf("NeuronKind(%d)", uint8(k))
}

// Layout holds the layer sizes of a brain.
// Inputs and outputs are fixed by the sensor set; internal neurons are configurable.
type Layout struct {
	Internal int
}

// DefaultLayout returns the layout used when no config is supplied.
func DefaultLayout() Layout {
	return Layout{Internal: 4}
}

// Size returns the neuron count for kind.
func (l Layout) Size(kind NeuronKind) int {
	switch kind {
	case KindInput:
		return NumInputs
	case KindInternal:
		return l.Internal
	case KindOutput:
		return NumOutputs
	}
	return 0
}

// Neuron addresses a single neuron in a layout.
type Neuron struct {
	Kind   NeuronKind
	Number int
}

func (n Neuron) String() string {
	switch n.Kind {
	case KindInput:
		return InputName(n.Number)
	case KindOutput:
		return OutputName(n.Number)
	}
	return fmt.Sprintf("n%d", n.Number)
}

// Connection is a weighted link between two neurons.
// Sources are inputs or internals; sinks are internals or outputs.
type Connection struct {
	Source Neuron
	Sink   Neuron
	Weight float32
}

// Move is a displacement in units of the maximum step, each axis in [-1, 1].
type Move struct {
	DX, DY float32
}

type link struct {
	src, dst int
	w        float32
}

// Brain is a compiled, immutable wiring. Safe for concurrent use.
type Brain struct {
	layout Layout

	inToInternal       []link
	internalToInternal []link
	inToOut            []link
	internalToOut      []link
}

// Compile resolves connections against layout.
// Connections touching an internal neuron when the layout has none are dropped.
func Compile(conns []Connection, layout Layout) *Brain {
	b := &Brain{layout: layout}
	for _, c := range conns {
		if !layout.valid(c.Source) || !layout.valid(c.Sink) {
			continue
		}
		l := link{src: c.Source.Number, dst: c.Sink.Number, w: c.Weight}
		switch {
		case c.Source.Kind == KindInput && c.Sink.Kind == KindInternal:
			b.inToInternal = append(b.inToInternal, l)
		case c.Source.Kind == KindInternal && c.Sink.Kind == KindInternal:
			b.internalToInternal = append(b.internalToInternal, l)
		case c.Source.Kind == KindInput && c.Sink.Kind == KindOutput:
			b.inToOut = append(b.inToOut, l)
		case c.Source.Kind == KindInternal && c.Sink.Kind == KindOutput:
			b.internalToOut = append(b.internalToOut, l)
		}
	}
	return b
}

func (l Layout) valid(n Neuron) bool {
	return n.Number >= 0 && n.Number < l.Size(n.Kind)
}

// Layout returns the layout the brain was compiled against.
func (b *Brain) Layout() Layout {
	return b.layout
}

// LinkCount returns the number of live connections.
func (b *Brain) LinkCount() int {
	return len(b.inToInternal) + len(b.internalToInternal) + len(b.inToOut) + len(b.internalToOut)
}

// Forward evaluates the brain on a sensor vector.
// Outputs are in [-1, 1].
func (b *Brain) Forward(inputs [NumInputs]float32) [NumOutputs]float32 {
	var out [NumOutputs]float32

	internal := make([]float32, b.layout.Internal)
	pre := make([]float32, b.layout.Internal)
	for _, l := range b.inToInternal {
		pre[l.dst] += l.w * inputs[l.src]
	}
	for i := range pre {
		internal[i] = tanh(pre[i])
	}

	// One lateral pass over internal links, reading the first-pass activations.
	if len(b.internalToInternal) > 0 {
		lateral := make([]float32, b.layout.Internal)
		copy(lateral, pre)
		for _, l := range b.internalToInternal {
			lateral[l.dst] += l.w * internal[l.src]
		}
		for i := range lateral {
			internal[i] = tanh(lateral[i])
		}
	}

	var sums [NumOutputs]float32
	for _, l := range b.inToOut {
		sums[l.dst] += l.w * inputs[l.src]
	}
	for _, l := range b.internalToOut {
		sums[l.dst] += l.w * internal[l.src]
	}
	for i := range sums {
		out[i] = tanh(sums[i])
	}
	return out
}

// Move decodes the movement decision for s.
func (b *Brain) Move(s State) Move {
	out := b.Forward(s.Inputs())
	return Move{DX: out[OutputMoveX], DY: out[OutputMoveY]}
}

// String lists the wiring, one connection per line.
func (b *Brain) String() string {
	var sb strings.Builder
	write := func(links []link, src, dst NeuronKind) {
		for _, l := range links {
			fmt.Fprintf(&sb, "%s -> %s %.3f\n",
				Neuron{Kind: src, Number: l.src}, Neuron{Kind: dst, Number: l.dst}, l.w)
		}
	}
	write(b.inToInternal, KindInput, KindInternal)
	write(b.internalToInternal, KindInternal, KindInternal)
	write(b.inToOut, KindInput, KindOutput)
	write(b.internalToOut, KindInternal, KindOutput)
	return sb.String()
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	r := x * (27 + x2) / (27 + 9*x2)
	// The approximation overshoots slightly just below |x| = 4.
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
