package viewer

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/telemetry"
	"github.com/pthm-cable/sph2d/ui"
)

const controlsLegend = "Space pause | Enter step | R reset | C color | F field | F1 help | Esc quit"

var (
	selectionColor = rl.Color{R: 230, G: 40, B: 40, A: 255}
	supportColor   = rl.Color{R: 230, G: 120, B: 20, A: 200}
	neighborColor  = rl.Color{R: 230, G: 120, B: 20, A: 90}
	containerColor = rl.Color{R: 60, G: 160, B: 60, A: 255}
	fluidBoxColor  = rl.Color{R: 40, G: 90, B: 220, A: 255}
)

// Draw renders the scene and the UI.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	v.particles.Draw(v.cam, v.exp.Sets())

	if v.overlays.IsEnabled(ui.OverlayBounds) {
		v.drawBounds()
	}
	if v.overlays.IsEnabled(ui.OverlaySupport) {
		v.drawSupport()
	}
	v.drawSelectionIndicator()

	v.drawUI()

	rl.EndDrawing()
}

// drawBounds outlines the container and the fluid's bounding box.
func (v *Viewer) drawBounds() {
	lo, hi := v.exp.Bounds()
	v.worldRect(lo, hi, containerColor)
	if lo, hi, ok := v.exp.Fluid().Bounds(); ok {
		v.worldRect(lo, hi, fluidBoxColor)
	}
}

// drawSupport shows the neighbor radius and neighbor links of the selection.
func (v *Viewer) drawSupport() {
	data, ok := v.inspectorData()
	if !ok {
		return
	}
	cx, cy := v.cam.WorldToScreen(data.Particle.Position)
	center := rl.Vector2{X: cx, Y: cy}
	for _, n := range data.Neighbors {
		nx, ny := v.cam.WorldToScreen(n)
		rl.DrawLineV(center, rl.Vector2{X: nx, Y: ny}, neighborColor)
	}
	v.worldCircle(data.Particle.Position, data.Support, supportColor)
}

func (v *Viewer) drawSelectionIndicator() {
	p, ok := v.selectedParticle()
	if !ok {
		return
	}
	v.worldCircle(p.Position, 0.8*v.exp.Sets()[v.selected.Set].Spacing, selectionColor)
}

// worldRect outlines the axis-aligned box lo..hi.
func (v *Viewer) worldRect(lo, hi r2.Vec, col rl.Color) {
	x0, y1 := v.cam.WorldToScreen(lo)
	x1, y0 := v.cam.WorldToScreen(hi)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, col)
}

// drawUI renders the HUD, panels and graphs.
func (v *Viewer) drawUI() {
	params := v.exp.Params()
	w := int32(v.screenWidth)
	h := int32(v.screenHeight)

	chrome := ui.NewRenderer()
	chrome.DrawPanel(0, 0, 560, 96)
	v.hud.Draw(ui.HUDData{
		Title:          "SPH Boundary Experiment",
		FluidCount:     v.exp.Fluid().Len(),
		BoundaryCount:  v.boundaryCount(),
		Step:           v.exp.StepCount(),
		Time:           v.exp.Time(),
		DT:             v.exp.LastDT(),
		StepsPerUpdate: params.StepsPerUpdate,
		Spacing:        params.Spacing,
		Search:         v.exp.Simulation().Search().Name(),
		Channel:        v.particles.Channel.String(),
		FPS:            rl.GetFPS(),
		Paused:         v.exp.Paused(),
	})

	// Left column
	y := int32(100)
	if v.overlays.IsEnabled(ui.OverlayStats) {
		v.statsPanel.SetPosition(10, y)
		y = v.statsPanel.Draw(ui.StatsView{
			Stats:       v.lastStats,
			RestDensity: params.RestDensity,
			Valid:       v.hasStats,
		}) + 10
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		height := int32(60 + 14*len(telemetry.Phases))
		chrome.DrawPanel(0, y, statsWidth+10, height)
		v.perfPanel.SetPosition(10, y+8)
		v.perfPanel.Draw(v.exp.Perf().Stats())
		y += height + 10
	}
	if data, ok := v.inspectorData(); ok {
		v.inspector.SetPosition(10, y)
		v.inspector.Draw(data)
	}

	// Right column
	if v.overlays.IsEnabled(ui.OverlayControls) {
		v.pending = v.controls.Draw(params, v.exp.Time(), v.exp.Paused())
	}
	if v.overlays.IsEnabled(ui.OverlayHelp) {
		v.helpPanel.Draw(v.overlays)
	}

	v.drawGraphs(w, h)

	if v.status != "" && time.Now().Before(v.statusUntil) {
		rl.DrawText(v.status, 10, h-45, 14, rl.Maroon)
	}
	v.hud.DrawControls(h, controlsLegend)
}

// drawGraphs plots the tracked particle history and the max distance
// between the side columns.
func (v *Viewer) drawGraphs(w, h int32) {
	showHistory := v.overlays.IsEnabled(ui.OverlayHistory)
	showDistance := v.overlays.IsEnabled(ui.OverlayDistance)
	if !showHistory && !showDistance {
		return
	}

	left := float32(statsWidth + 20)
	right := float32(w - 10)
	if v.overlays.IsEnabled(ui.OverlayControls) {
		right = float32(w - sidePanelWidth - 20)
	}
	top := float32(h - graphHeight - 35)

	slots := 0
	if showHistory {
		slots++
	}
	if showDistance {
		slots++
	}
	width := (right - left - float32(slots-1)*10) / float32(slots)
	if width <= 0 {
		return
	}

	hist := v.exp.History()
	times := hist.Times()
	x := left

	if showHistory {
		tracked := hist.Tracked()
		n := min(len(tracked), len(ui.SeriesColors))
		series := make([]ui.Series, n)
		for k := 0; k < n; k++ {
			series[k] = ui.Series{
				Label:  fmt.Sprintf("#%d", tracked[k]),
				Values: hist.Series(v.historyField, k),
				Color:  ui.SeriesColors[k],
			}
		}
		v.historyGraph.Title = "Tracked particles: " + v.historyField.String()
		v.historyGraph.Draw(rl.Rectangle{X: x, Y: top, Width: width, Height: graphHeight}, times, series)
		x += width + 10
	}

	if showDistance {
		spacing := make([]float64, len(times))
		for i := range spacing {
			spacing[i] = v.exp.Params().Spacing
		}
		v.distanceGraph.Draw(rl.Rectangle{X: x, Y: top, Width: width, Height: graphHeight}, times, []ui.Series{
			{Label: "max |x - x0|", Values: hist.MaxDistance(), Color: ui.SeriesColors[0]},
			{Label: "h", Values: spacing, Color: ui.SeriesColors[1%len(ui.SeriesColors)]},
		})
	}
}
