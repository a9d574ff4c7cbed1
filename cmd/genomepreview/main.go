// Genome preview tool - interactive trajectory of one random creature with sliders.
//
// Usage: go run ./cmd/genomepreview
package main

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/config"
	"github.com/pthm-cable/creatures/genome"
	"github.com/pthm-cable/creatures/neural"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// PreviewParams holds the slider values.
type PreviewParams struct {
	Seed            uint64
	GenomeLength    int
	InternalNeurons int
	MaxStep         float32
	OscPeriod       int
	SpawnX, SpawnY  float32
	Iterations      int
}

// trajectory is the result of one preview run.
type trajectory struct {
	genome   genome.Genome
	brain    *neural.Brain
	path     []components.Position
	survived bool
}

func main() {
	cfg := config.Default()
	bounds := components.Bounds{Width: cfg.Derived.WorldW32, Height: cfg.Derived.WorldH32}
	pred, err := sim.PredicateFromConfig(cfg.Fitness)
	if err != nil {
		pred = sim.Always
	}

	rl.InitWindow(windowWidth, windowHeight, "Genome Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := PreviewParams{
		Seed:            cfg.Seed,
		GenomeLength:    cfg.Genome.Length,
		InternalNeurons: cfg.Genome.InternalNeurons,
		MaxStep:         cfg.Derived.MaxStep,
		OscPeriod:       cfg.Movement.OscillatorPeriod,
		SpawnX:          bounds.Width / 2,
		SpawnY:          bounds.Height / 2,
		Iterations:      cfg.Simulation.IterationsPerGeneration,
	}
	params := defaults
	traj := simulate(params, bounds, pred)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			traj = simulate(params, bounds, pred)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		drawPreview(traj, bounds, pred)

		statsY := int32(previewSize + 25)
		last := traj.path[len(traj.path)-1]
		rl.DrawText(fmt.Sprintf("End: (%.1f, %.1f)  Links: %d  Survived: %v", last.X, last.Y, traj.brain.LinkCount(), traj.survived), 15, statsY, 16, rl.DarkGray)
		for i, line := range wrap(traj.genome.String(), 6) {
			rl.DrawText(line, 15, statsY+22+int32(i)*16, 14, rl.Gray)
		}

		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Creature Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, left, right string, value, minV, maxV float32, shown string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				left, right, value, minV, maxV,
			)
			rl.DrawText(shown, int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return v
		}

		if v := uint64(slider("Seed", "0", "9999", float32(params.Seed), 0, 9999, fmt.Sprintf("%d", params.Seed))); v != params.Seed {
			params.Seed = v
			needsRegen = true
		}
		if v := int(slider("Genome length", "1", "64", float32(params.GenomeLength), 1, 64, fmt.Sprintf("%d", params.GenomeLength))); v != params.GenomeLength {
			params.GenomeLength = v
			needsRegen = true
		}
		if v := int(slider("Internal neurons", "0", "16", float32(params.InternalNeurons), 0, 16, fmt.Sprintf("%d", params.InternalNeurons))); v != params.InternalNeurons {
			params.InternalNeurons = v
			needsRegen = true
		}
		if v := slider("Max step", "0.1", "4.0", params.MaxStep, 0.1, 4, fmt.Sprintf("%.2f", params.MaxStep)); v != params.MaxStep {
			params.MaxStep = v
			needsRegen = true
		}
		if v := int(slider("Oscillator period", "0", "400", float32(params.OscPeriod), 0, 400, fmt.Sprintf("%d", params.OscPeriod))); v != params.OscPeriod {
			params.OscPeriod = v
			needsRegen = true
		}
		if v := slider("Spawn X", "0", "max", params.SpawnX, 0, bounds.Width-1, fmt.Sprintf("%.0f", params.SpawnX)); v != params.SpawnX {
			params.SpawnX = v
			needsRegen = true
		}
		if v := slider("Spawn Y", "0", "max", params.SpawnY, 0, bounds.Height-1, fmt.Sprintf("%.0f", params.SpawnY)); v != params.SpawnY {
			params.SpawnY = v
			needsRegen = true
		}
		if v := int(slider("Iterations", "10", "3000", float32(params.Iterations), 10, 3000, fmt.Sprintf("%d", params.Iterations))); v != params.Iterations {
			params.Iterations = v
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Next Seed") {
			params.Seed++
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}

		rl.DrawText("Press C to copy the genome to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(traj.genome.String())
		}

		rl.EndDrawing()
	}
}

// simulate runs a single creature alone for params.Iterations ticks.
func simulate(params PreviewParams, bounds components.Bounds, pred sim.FitnessPredicate) trajectory {
	rng := sim.NewRand(params.Seed)
	g := genome.NewRandom(rng, params.GenomeLength)
	c := sim.Spawn(g, systems.Clamp(components.Position{X: params.SpawnX, Y: params.SpawnY}, bounds), neural.Layout{Internal: params.InternalNeurons})

	env := systems.Environment{
		Bounds:     bounds,
		Iterations: int32(params.Iterations),
		MaxStep:    params.MaxStep,
		OscPeriod:  int32(params.OscPeriod),
	}
	path := make([]components.Position, 0, params.Iterations+1)
	path = append(path, c.Position)
	for tick := 0; tick < params.Iterations; tick++ {
		env.Tick = int32(tick)
		c = c.Step(env)
		path = append(path, c.Position)
	}
	return trajectory{
		genome:   g,
		brain:    c.Brain,
		path:     path,
		survived: pred.IsAlive(c.Terminal(bounds)),
	}
}

// drawPreview draws the world box, the fitness zone and the path.
func drawPreview(t trajectory, bounds components.Bounds, pred sim.FitnessPredicate) {
	scale := previewSize / max(bounds.Width, bounds.Height)
	toScreen := func(p components.Position) rl.Vector2 {
		return rl.Vector2{X: 10 + p.X*scale, Y: 10 + p.Y*scale}
	}

	rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Color{R: 235, G: 235, B: 235, A: 255})
	zone := rl.Color{R: 100, G: 200, B: 100, A: 80}
	switch p := pred.(type) {
	case sim.Region:
		a := toScreen(components.Position{X: p.MinX, Y: p.MinY})
		b := toScreen(components.Position{X: p.MaxX, Y: p.MaxY})
		rl.DrawRectangleV(a, rl.Vector2{X: b.X - a.X, Y: b.Y - a.Y}, zone)
	case sim.Circle:
		rl.DrawCircleV(toScreen(components.Position{X: bounds.Width / 2, Y: bounds.Height / 2}), p.Radius*scale, zone)
	}
	rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

	for i := 1; i < len(t.path); i++ {
		rl.DrawLineV(toScreen(t.path[i-1]), toScreen(t.path[i]), rl.SkyBlue)
	}
	rl.DrawCircleV(toScreen(t.path[0]), 4, rl.DarkBlue)
	end := rl.Red
	if t.survived {
		end = rl.DarkGreen
	}
	rl.DrawCircleV(toScreen(t.path[len(t.path)-1]), 5, end)
}

// wrap splits space-separated words into lines of n words.
func wrap(s string, n int) []string {
	words := strings.Fields(s)
	var lines []string
	for i := 0; i < len(words); i += n {
		lines = append(lines, strings.Join(words[i:min(i+n, len(words))], " "))
	}
	return lines
}
