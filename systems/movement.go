package systems

import (
	"runtime"

	"github.com/mlange-42/ark/ecs"
	"github.com/sourcegraph/conc/pool"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/neural"
)

// DefaultParallelThreshold is the minimum creature count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// creatureSnapshot captures read-only state for parallel processing.
type creatureSnapshot struct {
	Entity ecs.Entity
	Pos    components.Position
	Age    components.Age
	Brain  *neural.Brain
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Pos components.Position
	Age components.Age
}

// MovementSystem advances every creature by one step per Update.
type MovementSystem struct {
	filter *ecs.Filter3[components.Position, components.Age, components.Brain]
	mapper *ecs.Map2[components.Position, components.Age]

	workers   int
	threshold int

	snapshots []creatureSnapshot
	intents   []intent
}

// NewMovementSystem creates a movement system over w.
// workers <= 0 uses GOMAXPROCS; threshold <= 0 uses DefaultParallelThreshold.
func NewMovementSystem(w *ecs.World, workers, threshold int) *MovementSystem {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &MovementSystem{
		filter:    ecs.NewFilter3[components.Position, components.Age, components.Brain](w),
		mapper:    ecs.NewMap2[components.Position, components.Age](w),
		workers:   workers,
		threshold: threshold,
		snapshots: make([]creatureSnapshot, 0, 512),
		intents:   make([]intent, 0, 512),
	}
}

// Workers returns the configured degree of parallelism.
func (s *MovementSystem) Workers() int {
	return s.workers
}

// Update steps every creature once.
// Results do not depend on the number of workers.
func (s *MovementSystem) Update(env Environment) {
	// Phase A: Build snapshots (single-threaded)
	s.snapshots = s.snapshots[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, age, brain := query.Get()
		s.snapshots = append(s.snapshots, creatureSnapshot{
			Entity: query.Entity(),
			Pos:    *pos,
			Age:    *age,
			Brain:  brain.Net,
		})
	}

	n := len(s.snapshots)
	if n == 0 {
		return
	}

	if cap(s.intents) < n {
		s.intents = make([]intent, n)
	}
	s.intents = s.intents[:n]

	// Phase B: Compute - choose single or parallel based on creature count
	if n < s.threshold || s.workers == 1 {
		s.computeChunk(0, n, env)
	} else {
		s.computeParallel(n, env)
	}

	// Phase C: Apply intents (single-threaded, preserves determinism)
	for i, snap := range s.snapshots {
		pos, age := s.mapper.Get(snap.Entity)
		*pos = s.intents[i].Pos
		*age = s.intents[i].Age
	}
}

// computeParallel splits the snapshot range into one chunk per worker.
func (s *MovementSystem) computeParallel(n int, env Environment) {
	chunkSize := (n + s.workers - 1) / s.workers

	p := pool.New().WithMaxGoroutines(s.workers)
	for w := 0; w < s.workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.Go(func() {
			s.computeChunk(start, end, env)
		})
	}
	p.Wait()
}

// computeChunk processes a range of creatures. Chunks never overlap.
func (s *MovementSystem) computeChunk(i0, i1 int, env Environment) {
	for i := i0; i < i1; i++ {
		snap := &s.snapshots[i]
		pos, age := Step(snap.Pos, snap.Age, snap.Brain, env)
		s.intents[i] = intent{Pos: pos, Age: age}
	}
}
