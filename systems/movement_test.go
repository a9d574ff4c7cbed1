package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/neural"
)

func testEnv() Environment {
	return Environment{
		Bounds:     components.Bounds{Width: 100, Height: 50},
		Iterations: 1000,
		MaxStep:    1,
		OscPeriod:  100,
	}
}

// pushBrain drives both outputs from the bias input.
func pushBrain(wx, wy float32) *neural.Brain {
	bias := neural.Neuron{Kind: neural.KindInput, Number: neural.InputBias}
	return neural.Compile([]neural.Connection{
		{Source: bias, Sink: neural.Neuron{Kind: neural.KindOutput, Number: neural.OutputMoveX}, Weight: wx},
		{Source: bias, Sink: neural.Neuron{Kind: neural.KindOutput, Number: neural.OutputMoveY}, Weight: wy},
	}, neural.DefaultLayout())
}

func TestClamp(t *testing.T) {
	b := components.Bounds{Width: 10, Height: 20}
	tests := []struct {
		name string
		in   components.Position
	}{
		{"inside", components.Position{X: 5, Y: 5}},
		{"negative", components.Position{X: -3, Y: -0.5}},
		{"on upper bound", components.Position{X: 10, Y: 20}},
		{"far outside", components.Position{X: 1e9, Y: 1e9}},
		{"nan", components.Position{X: float32(math.NaN()), Y: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Clamp(tt.in, b)
			if !b.Contains(p) {
				t.Errorf("Clamp(%v) = %v, outside %v", tt.in, p, b)
			}
		})
	}

	if got := Clamp(components.Position{X: 5, Y: 7}, b); got != (components.Position{X: 5, Y: 7}) {
		t.Errorf("inside point moved to %v", got)
	}
}

func TestStepMovesAndAges(t *testing.T) {
	env := testEnv()
	pos, age := Step(components.Position{X: 50, Y: 25}, components.Age{}, pushBrain(4, -4), env)

	if age.Steps != 1 {
		t.Errorf("steps = %d, want 1", age.Steps)
	}
	if pos.X <= 50 || pos.X > 51 {
		t.Errorf("x = %v, want in (50, 51]", pos.X)
	}
	if pos.Y >= 25 || pos.Y < 24 {
		t.Errorf("y = %v, want in [24, 25)", pos.Y)
	}
}

func TestStepNilBrainStaysPut(t *testing.T) {
	start := components.Position{X: 3, Y: 4}
	pos, age := Step(start, components.Age{Steps: 7}, nil, testEnv())
	if pos != start {
		t.Errorf("pos = %v, want %v", pos, start)
	}
	if age.Steps != 8 {
		t.Errorf("steps = %d, want 8", age.Steps)
	}
}

func TestStepStaysInBounds(t *testing.T) {
	env := testEnv()
	env.MaxStep = 7
	brains := []*neural.Brain{pushBrain(4, 4), pushBrain(-4, -4), pushBrain(4, -4), pushBrain(-4, 4)}

	for i, brain := range brains {
		pos := components.Position{X: 1, Y: 49}
		age := components.Age{}
		for tick := int32(0); tick < 200; tick++ {
			env.Tick = tick
			pos, age = Step(pos, age, brain, env)
			if !env.Bounds.Contains(pos) {
				t.Fatalf("brain %d tick %d: %v out of bounds", i, tick, pos)
			}
		}
	}
}

func spawnGrid(w *ecs.World, n int) []ecs.Entity {
	mapper := ecs.NewMap3[components.Position, components.Age, components.Brain](w)
	entities := make([]ecs.Entity, n)
	for i := 0; i < n; i++ {
		pos := components.Position{X: float32(i % 100), Y: float32(i % 50)}
		age := components.Age{}
		brain := components.Brain{Net: pushBrain(float32(i%9)-4, float32(i%7)-3)}
		entities[i] = mapper.NewEntity(&pos, &age, &brain)
	}
	return entities
}

func runMovement(t *testing.T, n, workers, ticks int) []components.Position {
	t.Helper()
	w := ecs.NewWorld()
	entities := spawnGrid(w, n)
	sys := NewMovementSystem(w, workers, 16)

	env := testEnv()
	for tick := 0; tick < ticks; tick++ {
		env.Tick = int32(tick)
		sys.Update(env)
	}

	posMap := ecs.NewMap1[components.Position](w)
	out := make([]components.Position, n)
	for i, e := range entities {
		out[i] = *posMap.Get(e)
	}
	return out
}

func TestMovementSystemWorkerCountIndependent(t *testing.T) {
	const n = 300
	baseline := runMovement(t, n, 1, 50)
	for _, workers := range []int{2, 3, 8} {
		got := runMovement(t, n, workers, 50)
		for i := range baseline {
			if got[i] != baseline[i] {
				t.Fatalf("workers=%d: creature %d at %v, want %v", workers, i, got[i], baseline[i])
			}
		}
	}
}

func TestMovementSystemAgesEveryCreature(t *testing.T) {
	w := ecs.NewWorld()
	entities := spawnGrid(w, 100)
	sys := NewMovementSystem(w, 4, 0)

	for tick := 0; tick < 5; tick++ {
		sys.Update(testEnv())
	}

	ageMap := ecs.NewMap1[components.Age](w)
	for i, e := range entities {
		if got := ageMap.Get(e).Steps; got != 5 {
			t.Errorf("creature %d steps = %d, want 5", i, got)
		}
	}
}

func TestMovementSystemEmptyWorld(t *testing.T) {
	sys := NewMovementSystem(ecs.NewWorld(), 0, 0)
	sys.Update(testEnv())
	if sys.Workers() <= 0 {
		t.Errorf("workers = %d, want > 0", sys.Workers())
	}
}

func BenchmarkMovementSystem(b *testing.B) {
	w := ecs.NewWorld()
	spawnGrid(w, 400)
	sys := NewMovementSystem(w, 0, 0)
	env := testEnv()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		env.Tick = int32(i)
		sys.Update(env)
	}
}
