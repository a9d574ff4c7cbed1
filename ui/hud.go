package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pthm-cable/creatures/systems"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Generation   int
	Generations  int
	Tick         int
	Iterations   int
	Survivors    int
	Population   int
	SurvivalRate float64
	PoolDistinct int
	PoolSize     int
	Extinct      bool
	Reseeded     bool
	FPS          int32
	Paused       bool
	Finished     bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Generation: %d/%d | Tick: %d/%d | FPS: %d", data.Generation, data.Generations, data.Tick, data.Iterations, data.FPS),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Survivors: %d/%d (%.1f%%) | Pool: %d distinct of %d",
			data.Survivors, data.Population, data.SurvivalRate*100, data.PoolDistinct, data.PoolSize),
		10, 55, 16, rl.LightGray,
	)

	statusText, statusColor := "Running", rl.Yellow
	switch {
	case data.Finished:
		statusText, statusColor = "FINISHED", rl.Green
	case data.Paused:
		statusText = "PAUSED"
	}
	if data.Extinct {
		statusText += " | EXTINCT"
		if data.Reseeded {
			statusText += " (reseeded)"
		}
		statusColor = rl.Red
	}
	rl.DrawText(statusText, 10, 75, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds phase timings for display.
type PerfPanelData struct {
	PhaseTimes           map[string]time.Duration
	Total                time.Duration
	GenerationsPerSecond float64
	Registry             *systems.StageRegistry
}

// PerfPanel renders the generation phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. Phases are listed in registry order.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Phase Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s | %.1f gen/s", data.Total.Round(time.Microsecond), data.GenerationsPerSecond), x, y, 14, rl.Yellow)
	y += 16

	if data.Registry == nil {
		return
	}
	for _, id := range data.Registry.IDs() {
		avg := data.PhaseTimes[id]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %9s %5.1f%%", data.Registry.GetName(id), avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// HistoryPanel plots survival rate across generations.
type HistoryPanel struct {
	renderer      *Renderer
	x, y          int32
	width, height int32
}

// NewHistoryPanel creates a new history panel.
func NewHistoryPanel(x, y, width, height int32) *HistoryPanel {
	return &HistoryPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		height:   height,
	}
}

// SetPosition updates the panel position.
func (h *HistoryPanel) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Draw renders the survival history.
func (h *HistoryPanel) Draw(history []float64) {
	r := h.renderer
	padding := r.Theme.Padding
	r.DrawPanel(h.x, h.y, h.width, h.height)

	y := h.y + padding
	rl.DrawText("Survival Rate", h.x+padding, y, 14, rl.White)
	if n := len(history); n > 0 {
		last := fmt.Sprintf("%.1f%%", history[n-1]*100)
		w := rl.MeasureText(last, r.Theme.FontSize)
		rl.DrawText(last, h.x+h.width-padding-w, y, r.Theme.FontSize, r.Theme.ValueColor)
	}
	y += r.Theme.LineHeight + 4

	r.DrawSparkline(h.x+padding, y, h.width-padding*2, h.y+h.height-padding-y, history)
}
