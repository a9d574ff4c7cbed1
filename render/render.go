// Package render draws generation frames and run summaries as PNG plots.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pthm-cable/creatures/sim"
)

var (
	colorSurvivor = color.RGBA{R: 40, G: 160, B: 70, A: 255}
	colorDead     = color.RGBA{R: 200, G: 60, B: 50, A: 160}
	colorMoving   = color.RGBA{R: 60, G: 90, B: 200, A: 200}
	colorZone     = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// frameSize is the edge length of a rendered frame.
const frameSize = 6 * vg.Inch

// Frame draws a single frame: survivors and non-survivors for terminal
// frames, every creature in one colour otherwise. If pred is a built-in
// shape its survival zone is outlined.
func Frame(f sim.Frame, pred sim.FitnessPredicate, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Generation %d, tick %d", f.Generation, f.Tick)
	p.X.Min, p.X.Max = 0, float64(f.Bounds.Width)
	p.Y.Min, p.Y.Max = 0, float64(f.Bounds.Height)

	var alive, dead plotter.XYs
	for i, pos := range f.Positions {
		pt := plotter.XY{X: float64(pos.X), Y: float64(pos.Y)}
		if f.SurvivorMask == nil || f.SurvivorMask[i] {
			alive = append(alive, pt)
		} else {
			dead = append(dead, pt)
		}
	}

	aliveColor, aliveLabel := colorSurvivor, "survived"
	if !f.Terminal {
		aliveColor, aliveLabel = colorMoving, "creatures"
	}
	if err := addScatter(p, alive, aliveColor, aliveLabel); err != nil {
		return err
	}
	if err := addScatter(p, dead, colorDead, "died"); err != nil {
		return err
	}

	if outline := zoneOutline(pred, f); len(outline) > 0 {
		line, err := plotter.NewLine(outline)
		if err != nil {
			return fmt.Errorf("zone outline: %w", err)
		}
		line.Color = colorZone
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
	}

	// Add widens the axes to fit data; pin them back to the world.
	p.X.Min, p.X.Max = 0, float64(f.Bounds.Width)
	p.Y.Min, p.Y.Max = 0, float64(f.Bounds.Height)
	p.Legend.Top = true

	return save(p, frameSize, frameSize, path)
}

func addScatter(p *plot.Plot, pts plotter.XYs, c color.Color, label string) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter %s: %w", label, err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(1.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	p.Legend.Add(fmt.Sprintf("%s (%d)", label, len(pts)), s)
	return nil
}

// zoneOutline returns a closed polyline around the survival zone of
// built-in predicates, or nil for anything else.
func zoneOutline(pred sim.FitnessPredicate, f sim.Frame) plotter.XYs {
	switch z := pred.(type) {
	case sim.Region:
		return plotter.XYs{
			{X: float64(z.MinX), Y: float64(z.MinY)},
			{X: float64(z.MaxX), Y: float64(z.MinY)},
			{X: float64(z.MaxX), Y: float64(z.MaxY)},
			{X: float64(z.MinX), Y: float64(z.MaxY)},
			{X: float64(z.MinX), Y: float64(z.MinY)},
		}
	case sim.Circle:
		const segments = 64
		cx, cy := float64(f.Bounds.Width)/2, float64(f.Bounds.Height)/2
		pts := make(plotter.XYs, segments+1)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / segments
			pts[i] = plotter.XY{X: cx + float64(z.Radius)*math.Cos(a), Y: cy + float64(z.Radius)*math.Sin(a)}
		}
		return pts
	case sim.Edge:
		d := float64(z.Distance)
		w, h := float64(f.Bounds.Width), float64(f.Bounds.Height)
		return plotter.XYs{
			{X: d, Y: d}, {X: w - d, Y: d}, {X: w - d, Y: h - d}, {X: d, Y: h - d}, {X: d, Y: d},
		}
	}
	return nil
}

// Survival plots survival rate and survivor count over a run.
func Survival(summaries []sim.Summary, path string) error {
	p := plot.New()
	p.Title.Text = "Survival by generation"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Survival rate"
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(summaries))
	for i, s := range summaries {
		pts[i].X = float64(s.Generation)
		if s.Population > 0 {
			pts[i].Y = float64(s.Survivors) / float64(s.Population)
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("survival line: %w", err)
	}
	line.Color = colorSurvivor
	p.Add(line)
	p.Legend.Add("survival rate", line)
	p.Legend.Top = true
	p.Legend.Left = true
	p.Y.Min, p.Y.Max = 0, 1

	return save(p, 6*vg.Inch, 4*vg.Inch, path)
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating render directory: %w", err)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("saving %s: %w", filepath.Base(path), err)
	}
	return nil
}
