package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateGeneration reports a generation in which no creature survived.
	ErrDegenerateGeneration = errors.New("degenerate generation: no survivors")

	// ErrWorldFinished is returned by World.Tick once every iteration has run.
	ErrWorldFinished = errors.New("world finished")
)

// ExtinctionError is returned by Loop.Run when a generation has no survivors
// and the extinction policy is to abort.
type ExtinctionError struct {
	Generation int
}

func (e *ExtinctionError) Error() string {
	return fmt.Sprintf("generation %d: %v", e.Generation, ErrDegenerateGeneration)
}

func (e *ExtinctionError) Unwrap() error {
	return ErrDegenerateGeneration
}
