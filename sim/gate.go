package sim

import (
	"sync"
	"time"
)

// Gate is an Observer that holds the loop between generations.
// While paused, each Step lets exactly one more generation through.
// Delay throttles every generation, paused or not.
type Gate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
	steps  int
	closed bool
	delay  time.Duration
}

// NewGate returns an open gate.
func NewGate() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Pause blocks the loop after the next reported generation.
func (g *Gate) Pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

// Resume releases the loop and drops pending steps.
func (g *Gate) Resume() {
	g.mu.Lock()
	g.paused = false
	g.steps = 0
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Toggle flips between paused and running and returns the new paused state.
func (g *Gate) Toggle() bool {
	if g.Paused() {
		g.Resume()
		return false
	}
	g.Pause()
	return true
}

// Step lets one generation through while paused. It is a no-op when running.
func (g *Gate) Step() {
	g.mu.Lock()
	if g.paused {
		g.steps++
	}
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Close releases the loop for good. Later calls to Wait return immediately.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

// Paused reports whether the gate is holding the loop.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// SetDelay sets the pause inserted after every generation.
func (g *Gate) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	g.mu.Lock()
	g.delay = d
	g.mu.Unlock()
}

// Delay returns the current per-generation delay.
func (g *Gate) Delay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delay
}

// Wait blocks until the gate lets the caller through.
func (g *Gate) Wait() {
	g.mu.Lock()
	for g.paused && g.steps == 0 && !g.closed {
		g.cond.Wait()
	}
	if g.steps > 0 {
		g.steps--
	}
	delay, closed := g.delay, g.closed
	g.mu.Unlock()

	if delay > 0 && !closed {
		time.Sleep(delay)
	}
}

// ObserveGeneration implements Observer.
func (g *Gate) ObserveGeneration(GenerationReport) error {
	g.Wait()
	return nil
}
