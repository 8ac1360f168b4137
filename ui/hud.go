package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/telemetry"
)

// HUDData is the run summary shown in the top left corner.
type HUDData struct {
	Title          string
	FluidCount     int
	BoundaryCount  int
	Step           int
	Time           float64
	DT             float64
	StepsPerUpdate int
	Spacing        float64
	Search         string
	Channel        string
	FPS            int32
	Paused         bool
}

type hudLine struct {
	text  string
	size  int32
	color rl.Color
}

// HUD draws the run summary and the key legend.
type HUD struct{}

// NewHUD creates a HUD.
func NewHUD() *HUD {
	return &HUD{}
}

func (d HUDData) lines() []hudLine {
	state := "Running"
	if d.Paused {
		state = "PAUSED"
	}
	return []hudLine{
		{d.Title, 20, rl.White},
		{fmt.Sprintf("Fluid: %d | Boundary: %d | h = %g | Search: %s", d.FluidCount, d.BoundaryCount, d.Spacing, d.Search), 16, rl.LightGray},
		{fmt.Sprintf("t = %.4f | Step: %d | dt: %.2e x%d | FPS: %d", d.Time, d.Step, d.DT, d.StepsPerUpdate, d.FPS), 16, rl.LightGray},
		{fmt.Sprintf("%s | color: %s", state, d.Channel), 16, rl.Yellow},
	}
}

// Draw renders data at the top left corner.
func (h *HUD) Draw(data HUDData) {
	y := int32(10)
	for _, l := range data.lines() {
		rl.DrawText(l.text, 10, y, l.size, l.color)
		y += l.size + 4
	}
}

// DrawControls renders the key legend along the bottom edge.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel shows the step timing window with a per-phase breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a panel anchored at (x, y).
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition moves the panel.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// phaseColor flags phases that dominate the step.
func phaseColor(pct float64) rl.Color {
	switch {
	case pct > 50:
		return rl.Red
	case pct > 25:
		return rl.Orange
	}
	return rl.LightGray
}

// Draw renders stats.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	us := func(d time.Duration) time.Duration { return d.Round(time.Microsecond) }
	x, y := p.x, p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20
	rl.DrawText(fmt.Sprintf("Step: %s avg (%s - %s)",
		us(stats.AvgStepDuration), us(stats.MinStepDuration), us(stats.MaxStepDuration)), x, y, 14, rl.Yellow)
	y += 16
	rl.DrawText(fmt.Sprintf("%.0f steps/s | %.0f fps", stats.StepsPerSecond, stats.FPS), x, y, 12, rl.LightGray)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		rl.DrawText(fmt.Sprintf("%-12s %8s %5.1f%%", phase, us(stats.PhaseAvg[phase]), pct), x, y, 12, phaseColor(pct))
		y += 14
	}
}
