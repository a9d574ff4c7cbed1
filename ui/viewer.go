package ui

import (
	"context"
	"log/slog"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/sim"
	"github.com/pthm-cable/creatures/systems"
	"github.com/pthm-cable/creatures/telemetry"
)

const (
	sidebarWidth = 240
	historyWidth = 300
	historyH     = 120
	controlsHelp = "Space: pause | N: step | Wheel/arrows: zoom/pan | Home: fit | Click: inspect | Esc: deselect"
)

// ViewerOptions configures the viewer window.
type ViewerOptions struct {
	Title     string
	Width     int32
	Height    int32
	TargetFPS int32
	Logger    *slog.Logger
}

// RunInfo describes the run a viewer is attached to.
type RunInfo struct {
	Bounds      components.Bounds
	Predicate   sim.FitnessPredicate
	Perf        *telemetry.PerfCollector // optional
	Generations int
	Iterations  int
}

// Viewer is a live raylib window over a running evolution loop.
// The loop reports into it from its own goroutine; Run owns the window and
// must be called from the main goroutine.
type Viewer struct {
	opts   ViewerOptions
	run    RunInfo
	gate   *sim.Gate
	logger *slog.Logger

	mu        sync.Mutex
	live      sim.Frame
	hasLive   bool
	report    sim.GenerationReport
	hasReport bool
	distinct  int
	history   []float64
	finished  bool
}

// NewViewer creates a viewer that drives gate from its controls.
func NewViewer(gate *sim.Gate, opts ViewerOptions) *Viewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "Creatures"
	}
	return &Viewer{
		opts:   opts,
		gate:   gate,
		logger: opts.Logger,
	}
}

// Attach sets the run being shown. Call it before Run.
func (v *Viewer) Attach(info RunInfo) {
	v.run = info
}

// ObserveFrame implements sim.FrameObserver. Only intermediate frames are
// kept; terminal state arrives with the generation report.
func (v *Viewer) ObserveFrame(f sim.Frame) {
	if f.Terminal {
		return
	}
	positions := make([]components.Position, len(f.Positions))
	copy(positions, f.Positions)
	f.Positions = positions

	v.mu.Lock()
	v.live = f
	v.hasLive = true
	v.mu.Unlock()
}

// ObserveGeneration implements sim.Observer.
func (v *Viewer) ObserveGeneration(r sim.GenerationReport) error {
	distinct := r.Pool.Distinct()
	v.mu.Lock()
	v.report = r
	v.hasReport = true
	v.hasLive = false
	v.distinct = distinct
	v.history = append(v.history, r.SurvivalRate())
	v.mu.Unlock()
	return nil
}

// Finish marks the run as over. The window stays open until closed.
func (v *Viewer) Finish() {
	v.mu.Lock()
	v.finished = true
	v.mu.Unlock()
}

// viewState is a consistent copy of what the loop last reported.
type viewState struct {
	live      sim.Frame
	hasLive   bool
	report    sim.GenerationReport
	hasReport bool
	distinct  int
	history   []float64
	finished  bool
}

func (v *Viewer) state() viewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return viewState{
		live:      v.live,
		hasLive:   v.hasLive,
		report:    v.report,
		hasReport: v.hasReport,
		distinct:  v.distinct,
		history:   append([]float64(nil), v.history...),
		finished:  v.finished,
	}
}

// Run opens the window and draws until it is closed or ctx is done.
// Closing the window releases the gate so the loop can observe cancellation.
func (v *Viewer) Run(ctx context.Context) {
	defer v.gate.Close()

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(v.opts.Width, v.opts.Height, v.opts.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(v.opts.TargetFPS)

	screenW, screenH := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	cam := camera.New(screenW, screenH, v.run.Bounds.Width, v.run.Bounds.Height)
	world := NewWorldView(v.run.Bounds, v.run.Predicate)
	overlays := NewOverlayRegistry()
	hud := NewHUD()
	controls := NewControlsPanel(10, 100, sidebarWidth)
	history := NewHistoryPanel(0, 10, historyWidth, historyH)
	perf := NewPerfPanel(0, 0)
	inspector := NewInspector(0, 0)
	stages := systems.NewStageRegistry()

	v.logger.Info("viewer opened", "width", v.opts.Width, "height", v.opts.Height)

	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if v.run.Perf != nil {
			v.run.Perf.RecordFrame()
		}

		if rl.IsWindowResized() {
			screenW, screenH = float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
			cam.Resize(screenW, screenH)
		}
		right := int32(screenW) - historyWidth - 10
		history.SetPosition(right, 10)
		inspector.SetPosition(right, 10+historyH+10)
		perf.SetPosition(10, int32(screenH)-110)

		s := v.state()
		var report *sim.GenerationReport
		if s.hasReport {
			report = &s.report
		}

		v.handleInput(cam, overlays)
		if overlays.IsEnabled(OverlayInspector) {
			blocked := []rl.Rectangle{
				{X: 0, Y: 0, Width: sidebarWidth + 20, Height: screenH},
				{X: float32(right), Y: 0, Width: historyWidth + 10, Height: screenH},
			}
			inspector.HandleInput(rl.GetMousePosition(), cam, report, blocked)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		world.DrawBackground(cam)
		if overlays.IsEnabled(OverlayZone) {
			world.DrawZone(cam)
		}
		selected := -1
		if idx, ok := inspector.Selected(); ok {
			selected = idx
		}
		switch {
		case s.hasLive && overlays.IsEnabled(OverlayLive):
			world.DrawFrame(cam, s.live, false, -1)
		case report != nil:
			world.DrawFrame(cam, report.Frame(), overlays.IsEnabled(OverlayDead), selected)
		}

		hud.Draw(v.hudData(s))
		controls.Draw(v.gate, overlays)
		if overlays.IsEnabled(OverlayHistory) {
			history.Draw(s.history)
		}
		if overlays.IsEnabled(OverlayPerf) && v.run.Perf != nil {
			stats := v.run.Perf.Stats()
			perf.Draw(PerfPanelData{
				PhaseTimes:           stats.PhaseAvg,
				Total:                stats.AvgGenerationDuration,
				GenerationsPerSecond: stats.GenerationsPerSecond,
				Registry:             stages,
			})
		}
		if overlays.IsEnabled(OverlayInspector) {
			inspector.Draw(report)
		}
		hud.DrawControls(int32(screenW), int32(screenH), controlsHelp)

		rl.EndDrawing()
	}
}

func (v *Viewer) handleInput(cam *camera.Camera, overlays *OverlayRegistry) {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.gate.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		if v.gate.Paused() {
			v.gate.Step()
		} else {
			v.gate.Pause()
		}
	}
	if key := rl.GetKeyPressed(); key != 0 {
		overlays.HandleKeyPress(key)
	}

	panSpeed := float32(8.0)
	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panSpeed)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}

func (v *Viewer) hudData(s viewState) HUDData {
	d := HUDData{
		Title:       v.opts.Title,
		Generations: v.run.Generations,
		Iterations:  v.run.Iterations,
		FPS:         rl.GetFPS(),
		Paused:      v.gate.Paused(),
		Finished:    s.finished,
	}
	if s.hasReport {
		r := s.report
		d.Generation = r.Generation
		d.Tick = v.run.Iterations
		d.Survivors = r.Survivors
		d.Population = len(r.Population)
		d.SurvivalRate = r.SurvivalRate()
		d.PoolDistinct = s.distinct
		d.PoolSize = r.Pool.Len()
		d.Extinct = r.Outcome == sim.OutcomeExtinct
		d.Reseeded = r.Reseeded
	}
	if s.hasLive {
		d.Generation = s.live.Generation
		d.Tick = s.live.Tick
	}
	return d
}
