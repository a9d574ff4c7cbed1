package sim

import (
	"fmt"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
)

// TerminalState is a creature's state after the final tick of a generation.
type TerminalState struct {
	Position components.Position
	Steps    int32
	Bounds   components.Bounds
}

// FitnessPredicate decides whether a creature survives the generation.
// Implementations must be pure and safe for concurrent use.
type FitnessPredicate interface {
	IsAlive(TerminalState) bool
}

// PredicateFunc adapts a function to FitnessPredicate.
type PredicateFunc func(TerminalState) bool

// IsAlive calls f(s).
func (f PredicateFunc) IsAlive(s TerminalState) bool {
	return f(s)
}

var (
	// Always keeps every creature.
	Always FitnessPredicate = PredicateFunc(func(TerminalState) bool { return true })
	// Never kills every creature.
	Never FitnessPredicate = PredicateFunc(func(TerminalState) bool { return false })
)

// Region keeps creatures strictly inside an open rectangle.
type Region struct {
	MinX, MaxX, MinY, MaxY float32
}

// IsAlive reports whether the terminal position is inside r.
func (r Region) IsAlive(s TerminalState) bool {
	p := s.Position
	return p.X > r.MinX && p.X < r.MaxX && p.Y > r.MinY && p.Y < r.MaxY
}

// Circle keeps creatures closer than Radius to the world centre.
type Circle struct {
	Radius float32
}

// IsAlive reports whether the terminal position is within the radius.
func (c Circle) IsAlive(s TerminalState) bool {
	dx := s.Position.X - s.Bounds.Width/2
	dy := s.Position.Y - s.Bounds.Height/2
	return dx*dx+dy*dy < c.Radius*c.Radius
}

// Edge keeps creatures within Distance of any world edge.
type Edge struct {
	Distance float32
}

// IsAlive reports whether the terminal position is near an edge.
func (e Edge) IsAlive(s TerminalState) bool {
	p, b := s.Position, s.Bounds
	return p.X < e.Distance || p.Y < e.Distance ||
		b.Width-p.X < e.Distance || b.Height-p.Y < e.Distance
}

// Not inverts p.
func Not(p FitnessPredicate) FitnessPredicate {
	return PredicateFunc(func(s TerminalState) bool { return !p.IsAlive(s) })
}

// And keeps creatures every predicate keeps.
func And(ps ...FitnessPredicate) FitnessPredicate {
	return PredicateFunc(func(s TerminalState) bool {
		for _, p := range ps {
			if !p.IsAlive(s) {
				return false
			}
		}
		return true
	})
}

// Or keeps creatures any predicate keeps.
func Or(ps ...FitnessPredicate) FitnessPredicate {
	return PredicateFunc(func(s TerminalState) bool {
		for _, p := range ps {
			if p.IsAlive(s) {
				return true
			}
		}
		return false
	})
}

// PredicateFromConfig builds the built-in predicate named by fc.Kind.
func PredicateFromConfig(fc config.FitnessConfig) (FitnessPredicate, error) {
	switch fc.Kind {
	case "region":
		return Region{MinX: float32(fc.MinX), MaxX: float32(fc.MaxX), MinY: float32(fc.MinY), MaxY: float32(fc.MaxY)}, nil
	case "circle":
		return Circle{Radius: float32(fc.Radius)}, nil
	case "edge":
		return Edge{Distance: float32(fc.EdgeDistance)}, nil
	case "always":
		return Always, nil
	case "never":
		return Never, nil
	}
	return nil, &config.ValidationError{Field: "fitness.kind", Reason: fmt.Sprintf("unknown kind %q", fc.Kind)}
}
