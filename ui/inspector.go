package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
)

// PickParticle returns the particle closest to p within maxDist.
func PickParticle(sets []*particles.Set, p r2.Vec, maxDist float64) (particles.Ref, bool) {
	best := particles.Ref{}
	bestDist := maxDist * maxDist
	found := false
	for si, s := range sets {
		for i := range s.Particles {
			d := r2.Sub(s.Particles[i].Position, p)
			d2 := d.X*d.X + d.Y*d.Y
			if d2 <= bestDist {
				best = particles.Ref{Set: si, Index: i}
				bestDist = d2
				found = true
			}
		}
	}
	return best, found
}

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Ref       particles.Ref
	Particle  *particles.Particle
	Boundary  bool
	Neighbors []r2.Vec // Positions of all neighbors, self included
	Support   float64
}

// Inspector renders the particle inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	y := ins.y + padding
	contentWidth := ins.width - padding*2

	panelHeight := int32(360)
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	previewHeight := int32(110)
	y = ins.drawNeighborPreview(ins.x+padding, y, contentWidth, previewHeight, data)
	y += 8

	kind := "fluid"
	if data.Boundary {
		kind = "boundary"
	}
	rl.DrawText(fmt.Sprintf("Set %d #%d (%s)", data.Ref.Set, data.Ref.Index, kind), ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 6

	p := data.Particle
	x := ins.x + padding
	y = r.DrawSectionHeader(x, y, "State")
	y = r.DrawLabelValue(x, y, "Position", fmt.Sprintf("(%.3f, %.3f)", p.Position.X, p.Position.Y))
	y = r.DrawLabelValue(x, y, "Velocity", fmt.Sprintf("(%.3g, %.3g)", p.Velocity.X, p.Velocity.Y))
	y = r.DrawLabelValue(x, y, "Density", fmt.Sprintf("%.4g", p.Density))
	y = r.DrawLabelValue(x, y, "Pressure", fmt.Sprintf("%.4g", p.Pressure))
	y = r.DrawLabelValue(x, y, "Mass", fmt.Sprintf("%.4g", p.Mass()))
	y += 4

	y = r.DrawSectionHeader(x, y, "Acceleration")
	y = r.DrawLabelValue(x, y, "Pressure", fmt.Sprintf("%.4g", r2.Norm(p.PressureAccel)))
	y = r.DrawLabelValue(x, y, "Viscosity", fmt.Sprintf("%.4g", r2.Norm(p.ViscosityAccel)))
	y = r.DrawLabelValue(x, y, "Other", fmt.Sprintf("%.4g", r2.Norm(p.OtherAccel)))
	y = r.DrawLabelValue(x, y, "Neighbors", fmt.Sprintf("%d", len(data.Neighbors)))

	return y
}

// drawNeighborPreview renders the neighborhood scaled to the support circle.
func (ins *Inspector) drawNeighborPreview(x, y, width, height int32, data InspectorData) int32 {
	rl.DrawRectangle(x, y, width, height, rl.Color{R: 25, G: 30, B: 35, A: 255})
	rl.DrawRectangleLinesEx(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(height)}, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})

	if data.Particle == nil || !(data.Support > 0) {
		return y + height
	}

	cx := float32(x) + float32(width)/2
	cy := float32(y) + float32(height)/2
	radius := float32(math.Min(float64(width), float64(height))/2 - 6)
	scale := float64(radius) / data.Support

	rl.DrawCircleLines(int32(cx), int32(cy), radius, rl.Color{R: 80, G: 90, B: 100, A: 255})

	center := data.Particle.Position
	for _, n := range data.Neighbors {
		d := r2.Sub(n, center)
		px := cx + float32(d.X*scale)
		py := cy - float32(d.Y*scale)
		rl.DrawCircleV(rl.Vector2{X: px, Y: py}, 3, rl.Color{R: 100, G: 150, B: 240, A: 255})
	}
	rl.DrawCircleV(rl.Vector2{X: cx, Y: cy}, 4, rl.Yellow)

	return y + height
}
