package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/experiment"
)

// Slider limits. Physical constants are set on a log10 scale.
const (
	minCount = 1
	maxCount = 20

	minStepsPerUpdate = 1
	maxStepsPerUpdate = 20
)

// logRange is a slider over log10 of a positive value.
type logRange struct {
	MinExp, MaxExp float64
}

var (
	dtRange                = logRange{-5, -1}
	restDensityRange       = logRange{2, 5}
	stiffnessRange         = logRange{4, 9}
	viscosityRange         = logRange{-9, -2}
	boundaryViscosityRange = logRange{-4, 0}
)

// toSlider maps a value to its slider position, clamped to the range.
// Non-positive values sit at the left end.
func (r logRange) toSlider(v float64) float32 {
	if !(v > 0) {
		return float32(r.MinExp)
	}
	e := math.Log10(v)
	return float32(math.Max(r.MinExp, math.Min(e, r.MaxExp)))
}

// fromSlider maps a slider position back to a value rounded to three
// significant digits.
func (r logRange) fromSlider(pos float32) float64 {
	e := math.Max(r.MinExp, math.Min(float64(pos), r.MaxExp))
	v := math.Pow(10, e)
	scale := math.Pow(10, math.Floor(e)-2)
	return math.Round(v/scale) * scale
}

// intSlider rounds a slider position to an integer in [lo, hi].
func intSlider(pos float32, lo, hi int) int {
	n := int(math.Round(float64(pos)))
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// ControlsResult reports what the user did in one frame.
type ControlsResult struct {
	TogglePause bool
	Step        bool

	// Timing changes apply immediately
	TimingChanged  bool
	DT             float64
	StepsPerUpdate int

	// Reset rebuilds the scene from Params
	Reset  bool
	Params experiment.Params
}

// ControlsPanel renders the raygui panel for timing and reset parameters.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	// Reset parameters being edited; applied only on Reset
	draft experiment.Params
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

// Sync replaces the edited reset parameters with p.
func (c *ControlsPanel) Sync(p experiment.Params) {
	c.draft = p
}

// Draft returns the reset parameters being edited.
func (c *ControlsPanel) Draft() experiment.Params {
	return c.draft
}

// Height returns the panel height.
func (c *ControlsPanel) Height() int32 {
	return 455
}

// Draw renders the panel for the live parameters and returns the user's actions.
func (c *ControlsPanel) Draw(live experiment.Params, simTime float64, paused bool) ControlsResult {
	r := c.renderer
	padding := float32(r.Theme.Padding)
	res := ControlsResult{DT: live.DT, StepsPerUpdate: live.StepsPerUpdate}

	r.DrawPanel(c.x, c.y, c.width, c.Height())

	x := float32(c.x) + padding
	y := float32(c.y) + padding
	sliderW := float32(c.width) - 2*padding - 70

	// Time
	y = float32(r.DrawSectionHeader(int32(x), int32(y), "Time"))
	y = float32(r.DrawLabelValue(int32(x), int32(y), "t", fmt.Sprintf("%.4f", simTime)))
	y = float32(r.DrawLabelValue(int32(x), int32(y), "h", fmt.Sprintf("%g", live.Spacing)))

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 90, Height: 24}, toggleText(paused, "Play", "Pause")) {
		res.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: y, Width: 90, Height: 24}, "Step") {
		res.Step = true
	}
	y += 32

	if live.Policy == experiment.PolicyFixed {
		dt, ny := c.logSlider(x, y, sliderW, "Time step", dtRange, live.DT)
		y = ny
		if dt != live.DT {
			res.DT = dt
			res.TimingChanged = true
		}
	}

	steps, ny := c.intSliderRow(x, y, sliderW, "Steps per render", live.StepsPerUpdate, minStepsPerUpdate, maxStepsPerUpdate)
	y = ny
	if steps != live.StepsPerUpdate {
		res.StepsPerUpdate = steps
		res.TimingChanged = true
	}

	// Reset
	y += 6
	y = float32(r.DrawSectionHeader(int32(x), int32(y), "Reset simulation"))

	c.draft.CountX, y = c.intSliderRow(x, y, sliderW, "Particles x", c.draft.CountX, minCount, maxCount)
	c.draft.CountY, y = c.intSliderRow(x, y, sliderW, "Particles y", c.draft.CountY, minCount, maxCount)
	c.draft.RestDensity, y = c.logSlider(x, y, sliderW, "Rest density", restDensityRange, c.draft.RestDensity)
	c.draft.Stiffness, y = c.logSlider(x, y, sliderW, "Stiffness", stiffnessRange, c.draft.Stiffness)
	c.draft.Viscosity, y = c.logSlider(x, y, sliderW, "Viscosity", viscosityRange, c.draft.Viscosity)
	c.draft.BoundaryViscosity, y = c.logSlider(x, y, sliderW, "Boundary viscosity", boundaryViscosityRange, c.draft.BoundaryViscosity)

	y += 4
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 90, Height: 24}, "Reset") {
		res.Reset = true
		res.Params = c.ResetParams(live)
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: y, Width: 90, Height: 24}, "Revert") {
		c.draft = live
	}

	return res
}

// ResetParams combines the edited scene with the live timing settings.
func (c *ControlsPanel) ResetParams(live experiment.Params) experiment.Params {
	p := live
	p.CountX = c.draft.CountX
	p.CountY = c.draft.CountY
	p.RestDensity = c.draft.RestDensity
	p.Stiffness = c.draft.Stiffness
	p.Viscosity = c.draft.Viscosity
	p.BoundaryViscosity = c.draft.BoundaryViscosity
	return p
}

func (c *ControlsPanel) logSlider(x, y, w float32, label string, rng logRange, value float64) (float64, float32) {
	t := c.renderer.Theme
	rl.DrawText(label, int32(x), int32(y), t.FontSize, t.LabelColor)
	y += 14
	pos := rng.toSlider(value)
	newPos := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w, Height: 16},
		"", "",
		pos, float32(rng.MinExp), float32(rng.MaxExp),
	)
	if newPos != pos {
		value = rng.fromSlider(newPos)
	}
	rl.DrawText(fmt.Sprintf("%.2e", value), int32(x+w+6), int32(y+2), t.FontSize, t.ValueColor)
	return value, y + 24
}

func (c *ControlsPanel) intSliderRow(x, y, w float32, label string, value, lo, hi int) (int, float32) {
	t := c.renderer.Theme
	rl.DrawText(label, int32(x), int32(y), t.FontSize, t.LabelColor)
	y += 14
	pos := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: w, Height: 16},
		"", "",
		float32(value), float32(lo), float32(hi),
	)
	value = intSlider(pos, lo, hi)
	rl.DrawText(fmt.Sprintf("%d", value), int32(x+w+6), int32(y+2), t.FontSize, t.ValueColor)
	return value, y + 24
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
