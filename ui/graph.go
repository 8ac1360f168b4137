package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Series is one line of a graph.
type Series struct {
	Label  string
	Values []float64
	Color  rl.Color
}

// SeriesColors is the palette used for graph lines in order.
var SeriesColors = []rl.Color{
	{R: 100, G: 150, B: 240, A: 255},
	{R: 240, G: 120, B: 90, A: 255},
	{R: 120, G: 210, B: 120, A: 255},
	{R: 230, G: 200, B: 80, A: 255},
	{R: 190, G: 120, B: 220, A: 255},
	{R: 100, G: 210, B: 210, A: 255},
}

// GraphRange is the data box mapped onto a graph's plot area.
type GraphRange struct {
	XMin, XMax float64
	YMin, YMax float64
}

// DataRange returns the box around all finite points. Degenerate axes are
// widened so that they can be projected.
func DataRange(x []float64, series []Series) (GraphRange, bool) {
	rng := GraphRange{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	found := false
	for _, s := range series {
		for i, v := range s.Values {
			if i >= len(x) || !finite(x[i]) || !finite(v) {
				continue
			}
			found = true
			rng.XMin = math.Min(rng.XMin, x[i])
			rng.XMax = math.Max(rng.XMax, x[i])
			rng.YMin = math.Min(rng.YMin, v)
			rng.YMax = math.Max(rng.YMax, v)
		}
	}
	if !found {
		return GraphRange{XMax: 1, YMax: 1}, false
	}
	if rng.XMax == rng.XMin {
		rng.XMax = rng.XMin + 1
	}
	if rng.YMax == rng.YMin {
		pad := math.Max(math.Abs(rng.YMin)*0.5, 1e-12)
		rng.YMin -= pad
		rng.YMax += pad
	}
	return rng, true
}

// Project maps a data point into rect, y up.
func (g GraphRange) Project(x, y float64, rect rl.Rectangle) rl.Vector2 {
	tx := (x - g.XMin) / (g.XMax - g.XMin)
	ty := (y - g.YMin) / (g.YMax - g.YMin)
	return rl.Vector2{
		X: rect.X + float32(tx)*rect.Width,
		Y: rect.Y + rect.Height - float32(ty)*rect.Height,
	}
}

// Graph draws auto-scaled line graphs.
type Graph struct {
	renderer *Renderer
	Title    string
}

// NewGraph creates a graph with the given title.
func NewGraph(title string) *Graph {
	return &Graph{renderer: NewRenderer(), Title: title}
}

// Draw plots series against x inside bounds.
func (g *Graph) Draw(bounds rl.Rectangle, x []float64, series []Series) {
	t := g.renderer.Theme
	rl.DrawRectangleRec(bounds, t.GraphBg)
	rl.DrawRectangleLinesEx(bounds, 1, t.PanelBorder)

	pad := float32(t.Padding)
	rl.DrawText(g.Title, int32(bounds.X+pad), int32(bounds.Y+4), t.FontSize, t.SectionHeader)

	area := rl.Rectangle{
		X:      bounds.X + pad + 50,
		Y:      bounds.Y + pad + float32(t.LineHeight),
		Width:  bounds.Width - 2*pad - 50,
		Height: bounds.Height - 2*pad - 2*float32(t.LineHeight),
	}
	if area.Width <= 0 || area.Height <= 0 {
		return
	}

	rng, ok := DataRange(x, series)
	rl.DrawLineV(rl.Vector2{X: area.X, Y: area.Y + area.Height}, rl.Vector2{X: area.X + area.Width, Y: area.Y + area.Height}, t.GraphAxis)
	rl.DrawLineV(rl.Vector2{X: area.X, Y: area.Y}, rl.Vector2{X: area.X, Y: area.Y + area.Height}, t.GraphAxis)
	if !ok {
		rl.DrawText("no samples", int32(area.X+4), int32(area.Y+4), t.FontSize, t.LabelColor)
		return
	}

	rl.DrawText(fmt.Sprintf("%.3g", rng.YMax), int32(bounds.X+pad), int32(area.Y), t.FontSize, t.LabelColor)
	rl.DrawText(fmt.Sprintf("%.3g", rng.YMin), int32(bounds.X+pad), int32(area.Y+area.Height-float32(t.FontSize)), t.FontSize, t.LabelColor)
	rl.DrawText(fmt.Sprintf("t %.3g - %.3g", rng.XMin, rng.XMax), int32(area.X), int32(area.Y+area.Height+4), t.FontSize, t.LabelColor)

	stride := len(x)/int(area.Width) + 1
	legendX := area.X + 120
	for _, s := range series {
		var prev rl.Vector2
		havePrev := false
		for i := 0; i < len(s.Values) && i < len(x); i += stride {
			if !finite(x[i]) || !finite(s.Values[i]) {
				havePrev = false
				continue
			}
			p := rng.Project(x[i], s.Values[i], area)
			if havePrev {
				rl.DrawLineV(prev, p, s.Color)
			}
			prev, havePrev = p, true
		}

		if s.Label != "" {
			rl.DrawRectangle(int32(legendX), int32(area.Y+area.Height+6), 8, 8, s.Color)
			rl.DrawText(s.Label, int32(legendX)+12, int32(area.Y+area.Height+4), t.FontSize, t.ValueColor)
			legendX += float32(rl.MeasureText(s.Label, t.FontSize)) + 24
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
