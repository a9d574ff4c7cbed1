// Package ui draws the live generation viewer: the world, its creatures,
// and the panels around them.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillLow     rl.Color
	BarFillMedium  rl.Color
	BarFillHigh    rl.Color
	WorldBg        rl.Color
	WorldBorder    rl.Color
	Zone           rl.Color
	Survivor       rl.Color
	Dead           rl.Color
	Moving         rl.Color
	Selected       rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillLow:     rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 100, G: 200, B: 100, A: 255},
		WorldBg:        rl.Color{R: 12, G: 14, B: 18, A: 255},
		WorldBorder:    rl.Color{R: 90, G: 100, B: 110, A: 255},
		Zone:           rl.Color{R: 100, G: 200, B: 100, A: 60},
		Survivor:       rl.Color{R: 120, G: 220, B: 120, A: 255},
		Dead:           rl.Color{R: 200, G: 90, B: 90, A: 160},
		Moving:         rl.Color{R: 120, G: 170, B: 230, A: 255},
		Selected:       rl.Yellow,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     80,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
