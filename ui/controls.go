package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pthm-cable/creatures/sim"
)

// MaxDelay is the upper end of the per-generation delay slider.
const MaxDelay = time.Second

// ControlsPanel renders the run controls and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Draw renders the controls panel and applies clicks to gate and overlays.
// Returns the Y position below the panel.
func (c *ControlsPanel) Draw(gate *sim.Gate, overlays *OverlayRegistry) int32 {
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := c.width - padding*2

	panelHeight := padding*2 + lineHeight + 4 + 30 + 8 + lineHeight + 24 + 8
	for _, cat := range overlays.Categories() {
		panelHeight += lineHeight + int32(len(overlays.ByCategory(cat)))*24
	}
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Controls", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	half := float32(inner-8) / 2
	paused := gate.Paused()
	if gui.Button(rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: half, Height: 26}, toggleText(paused, "Resume", "Pause")) {
		gate.Toggle()
	}
	if gui.Button(rl.Rectangle{X: float32(c.x+padding) + half + 8, Y: float32(y), Width: half, Height: 26}, "Step") {
		if !paused {
			gate.Pause()
		} else {
			gate.Step()
		}
	}
	y += 30 + 8

	delay := gate.Delay()
	r.DrawLabelValue(c.x+padding, y, "Delay", delay.Round(time.Millisecond).String(), inner)
	y += lineHeight
	ms := gui.SliderBar(
		rl.Rectangle{X: float32(c.x + padding + 30), Y: float32(y), Width: float32(inner - 70), Height: 16},
		"0", fmt.Sprintf("%d", MaxDelay.Milliseconds()),
		float32(delay.Milliseconds()), 0, float32(MaxDelay.Milliseconds()),
	)
	if next := time.Duration(ms) * time.Millisecond; next != delay {
		gate.SetDelay(next)
	}
	y += 24 + 8

	for _, cat := range overlays.Categories() {
		y = r.DrawSectionHeader(c.x+padding, y, categoryLabel(cat))
		for _, desc := range overlays.ByCategory(cat) {
			label := fmt.Sprintf("%s  [%s]", desc.Name, desc.KeyLabel)
			if gui.Button(rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: float32(inner), Height: 20}, toggleText(overlays.IsEnabled(desc.ID), "# ", "- ")+label) {
				overlays.Toggle(desc.ID)
			}
			y += 24
		}
	}

	return c.y + panelHeight
}

func categoryLabel(cat string) string {
	switch cat {
	case "world":
		return "World"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
