package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/sim"
)

// Inspector panel dimensions.
const (
	InspectorWidth = 300
	inspectorLinks = 12
	hitRadiusPx    = 6
)

// Inspector manages creature selection and shows the selected creature's
// genome and wiring. Selection is an index into the last reported population.
type Inspector struct {
	renderer    *Renderer
	selected    int
	hasSelected bool
	generation  int
	x, y        int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Selected returns the selected population index.
func (ins *Inspector) Selected() (int, bool) {
	return ins.selected, ins.hasSelected
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// HandleInput processes click detection for creature selection.
// Clicks inside blocked are ignored so panels stay clickable.
func (ins *Inspector) HandleInput(mouse rl.Vector2, cam *camera.Camera, report *sim.GenerationReport, blocked []rl.Rectangle) {
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) || report == nil {
		return
	}
	for _, r := range blocked {
		if rl.CheckCollisionPointRec(mouse, r) {
			return
		}
	}

	wx, wy := cam.ScreenToWorld(mouse.X, mouse.Y)
	idx := Nearest(report.Positions, wx, wy, hitRadiusPx/cam.Zoom)
	if idx < 0 {
		return
	}
	ins.selected = idx
	ins.hasSelected = true
	ins.generation = report.Generation
}

// Nearest returns the index of the position closest to (x, y) within
// maxDist, or -1 when none is that close.
func Nearest(positions []components.Position, x, y, maxDist float32) int {
	best := -1
	bestDist := maxDist * maxDist
	for i, p := range positions {
		dx, dy := p.X-x, p.Y-y
		if d := dx*dx + dy*dy; d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Draw renders the inspector for the selected creature of report.
func (ins *Inspector) Draw(report *sim.GenerationReport) {
	if !ins.hasSelected || report == nil || ins.selected >= len(report.Population) {
		return
	}
	r := ins.renderer
	padding := r.Theme.Padding
	width := int32(InspectorWidth)
	inner := width - padding*2
	c := report.Population[ins.selected]

	var links []string
	if c.Brain != nil {
		if wiring := strings.TrimSpace(c.Brain.String()); wiring != "" {
			links = strings.Split(wiring, "\n")
		}
	}
	shown := min(len(links), inspectorLinks)
	genes := wrapGenes(c.Genome.String(), 3)

	height := padding*2 + r.Theme.LineHeight*int32(8+len(genes)+shown) + 12
	r.DrawPanel(ins.x, ins.y, width, height)

	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Creature #%d", ins.selected), ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	status := "dead"
	if ins.selected < len(report.SurvivorMask) && report.SurvivorMask[ins.selected] {
		status = "survived"
	}
	if ins.generation != report.Generation {
		status += fmt.Sprintf(" (gen %d)", report.Generation)
	}
	y = r.DrawLabelValue(ins.x+padding, y, "Status", status, inner)
	y = r.DrawLabelValue(ins.x+padding, y, "Position", fmt.Sprintf("%.1f, %.1f", c.Position.X, c.Position.Y), inner)
	y = r.DrawLabelValue(ins.x+padding, y, "Steps", fmt.Sprintf("%d", c.Steps), inner)
	y = r.DrawLabelValue(ins.x+padding, y, "Pool slot", fmt.Sprintf("%d", c.PoolIndex), inner)

	y = r.DrawSectionHeader(ins.x+padding, y+4, "Genome")
	for _, line := range genes {
		rl.DrawText(line, ins.x+padding, y, r.Theme.FontSize, r.Theme.ValueColor)
		y += r.Theme.LineHeight
	}

	y = r.DrawSectionHeader(ins.x+padding, y+4, fmt.Sprintf("Wiring (%d links)", len(links)))
	for _, line := range links[:shown] {
		rl.DrawText(line, ins.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
		y += r.Theme.LineHeight
	}
	if len(links) > shown {
		rl.DrawText(fmt.Sprintf("... %d more", len(links)-shown), ins.x+padding, y, r.Theme.FontSize, rl.Gray)
	}
}

// wrapGenes groups space-separated genes perLine to a line.
func wrapGenes(s string, perLine int) []string {
	fields := strings.Fields(s)
	var lines []string
	for i := 0; i < len(fields); i += perLine {
		end := min(i+perLine, len(fields))
		lines = append(lines, strings.Join(fields[i:end], " "))
	}
	return lines
}
