package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/ui"
)

// handleSelection picks the particle under a left click. Clicking empty
// space clears the selection.
func (v *Viewer) handleSelection() {
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if v.overPanel(mouse) {
		return
	}

	p := v.cam.ScreenToWorld(mouse.X, mouse.Y)
	maxDist := pickRadius * v.exp.Params().Spacing
	ref, ok := ui.PickParticle(v.exp.Sets(), p, maxDist)
	v.selected = ref
	v.hasSelection = ok
}

// selectedParticle returns the selected particle, dropping the selection when
// it no longer exists.
func (v *Viewer) selectedParticle() (*particles.Particle, bool) {
	if !v.hasSelection {
		return nil, false
	}
	p := v.exp.Simulation().Particle(v.selected)
	if p == nil {
		v.hasSelection = false
		return nil, false
	}
	return p, true
}

// inspectorData collects the selected particle and its neighbors.
func (v *Viewer) inspectorData() (ui.InspectorData, bool) {
	p, ok := v.selectedParticle()
	if !ok {
		return ui.InspectorData{}, false
	}
	sim := v.exp.Simulation()
	data := ui.InspectorData{
		Ref:      v.selected,
		Particle: p,
		Boundary: v.exp.Sets()[v.selected.Set].IsBoundary(),
		Support:  v.exp.Params().Support(),
	}
	for _, refs := range [][]particles.Ref{sim.GetNeighbors(v.selected), sim.GetStaticNeighbors(v.selected)} {
		for _, n := range refs {
			if q := sim.Particle(n); q != nil {
				data.Neighbors = append(data.Neighbors, q.Position)
			}
		}
	}
	return data, true
}

// worldCircle draws a circle outline of world radius r around c.
func (v *Viewer) worldCircle(c r2.Vec, r float64, col rl.Color) {
	sx, sy := v.cam.WorldToScreen(c)
	rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, v.cam.WorldLength(r), col)
}
