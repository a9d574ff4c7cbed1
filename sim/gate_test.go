package sim

import (
	"testing"
	"time"
)

func waitReturns(g *Gate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()
	return done
}

func TestGateOpenByDefault(t *testing.T) {
	g := NewGate()
	select {
	case <-waitReturns(g):
	case <-time.After(time.Second):
		t.Fatal("open gate blocked")
	}
}

func TestGatePauseBlocksUntilResume(t *testing.T) {
	g := NewGate()
	g.Pause()
	done := waitReturns(g)

	select {
	case <-done:
		t.Fatal("paused gate let the caller through")
	case <-time.After(50 * time.Millisecond):
	}

	g.Resume()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resume did not release the caller")
	}
}

func TestGateStepReleasesOne(t *testing.T) {
	g := NewGate()
	g.Pause()
	g.Step()

	select {
	case <-waitReturns(g):
	case <-time.After(time.Second):
		t.Fatal("step did not release the caller")
	}

	done := waitReturns(g)
	select {
	case <-done:
		t.Fatal("second caller passed without a step")
	case <-time.After(50 * time.Millisecond):
	}
	g.Close()
	<-done
}

func TestGateStepWhileRunningIsNoop(t *testing.T) {
	g := NewGate()
	g.Step()
	g.Pause()

	done := waitReturns(g)
	select {
	case <-done:
		t.Fatal("step taken while running leaked into paused state")
	case <-time.After(50 * time.Millisecond):
	}
	g.Close()
	<-done
}

func TestGateToggle(t *testing.T) {
	g := NewGate()
	if !g.Toggle() || !g.Paused() {
		t.Fatal("first toggle should pause")
	}
	if g.Toggle() || g.Paused() {
		t.Fatal("second toggle should resume")
	}
}

func TestGateDelay(t *testing.T) {
	g := NewGate()
	g.SetDelay(-time.Second)
	if g.Delay() != 0 {
		t.Fatalf("negative delay stored as %v", g.Delay())
	}

	g.SetDelay(20 * time.Millisecond)
	start := time.Now()
	if err := g.ObserveGeneration(GenerationReport{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("delay not applied: %v", elapsed)
	}
}

func TestGateHoldsLoop(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Simulation.Generations = 2

	g := NewGate()
	g.Pause()
	loop, err := NewLoop(cfg, WithLogger(quiet), WithPredicate(Always), WithObserver(g))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := loop.Run(t.Context())
		done <- err
	}()

	g.Step()
	g.Step()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		g.Close()
		t.Fatal("loop did not finish after two steps")
	}
	if loop.Generation() != 2 {
		t.Errorf("generation = %d, want 2", loop.Generation())
	}
}
