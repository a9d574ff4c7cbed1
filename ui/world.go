package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pthm-cable/creatures/camera"
	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/sim"
)

// WorldView draws the bounded world and its creatures through a camera.
type WorldView struct {
	renderer  *Renderer
	bounds    components.Bounds
	predicate sim.FitnessPredicate
}

// NewWorldView creates a world view. predicate may be nil.
func NewWorldView(bounds components.Bounds, predicate sim.FitnessPredicate) *WorldView {
	return &WorldView{
		renderer:  NewRenderer(),
		bounds:    bounds,
		predicate: predicate,
	}
}

// DrawBackground fills the world rectangle and outlines it.
func (v *WorldView) DrawBackground(cam *camera.Camera) {
	rect := v.screenRect(cam, 0, 0, v.bounds.Width, v.bounds.Height)
	rl.DrawRectangleRec(rect, v.renderer.Theme.WorldBg)
	rl.DrawRectangleLinesEx(rect, 1, v.renderer.Theme.WorldBorder)
}

// DrawZone shades the area the fitness predicate keeps.
// Only the built-in shapes are drawn; others are skipped.
func (v *WorldView) DrawZone(cam *camera.Camera) {
	zone := v.renderer.Theme.Zone
	switch p := v.predicate.(type) {
	case sim.Region:
		rl.DrawRectangleRec(v.screenRect(cam, p.MinX, p.MinY, p.MaxX, p.MaxY), zone)
	case sim.Circle:
		cx, cy := cam.WorldToScreen(v.bounds.Width/2, v.bounds.Height/2)
		rl.DrawCircleV(rl.Vector2{X: cx, Y: cy}, p.Radius*cam.Zoom, zone)
	case sim.Edge:
		d := p.Distance
		w, h := v.bounds.Width, v.bounds.Height
		rl.DrawRectangleRec(v.screenRect(cam, 0, 0, w, d), zone)
		rl.DrawRectangleRec(v.screenRect(cam, 0, h-d, w, h), zone)
		rl.DrawRectangleRec(v.screenRect(cam, 0, d, d, h-d), zone)
		rl.DrawRectangleRec(v.screenRect(cam, w-d, d, w, h-d), zone)
	}
}

// DrawFrame draws creature dots. Terminal frames colour survivors and
// dead creatures; intermediate frames use a single colour.
func (v *WorldView) DrawFrame(cam *camera.Camera, f sim.Frame, showDead bool, selected int) {
	theme := v.renderer.Theme
	radius := max(2, cam.Zoom*0.6)
	for i, p := range f.Positions {
		if !cam.IsVisible(p.X, p.Y, radius/cam.Zoom) {
			continue
		}
		color := theme.Moving
		if f.Terminal {
			alive := i < len(f.SurvivorMask) && f.SurvivorMask[i]
			if !alive && !showDead {
				continue
			}
			color = theme.Dead
			if alive {
				color = theme.Survivor
			}
		}
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, color)
		if f.Terminal && i == selected {
			rl.DrawCircleLines(int32(sx), int32(sy), radius+3, theme.Selected)
		}
	}
}

// screenRect maps a world-space box to a screen rectangle.
func (v *WorldView) screenRect(cam *camera.Camera, minX, minY, maxX, maxY float32) rl.Rectangle {
	x0, y0 := cam.WorldToScreen(minX, minY)
	x1, y1 := cam.WorldToScreen(maxX, maxY)
	return rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
