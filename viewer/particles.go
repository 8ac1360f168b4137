package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/camera"
	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/renderer"
)

// ParticleRenderer draws particle sets as filled circles through a camera.
type ParticleRenderer struct {
	Channel renderer.Channel
	Radius  float64 // Fraction of each set's spacing

	verts []renderer.Vertex
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer(ch renderer.Channel, radius float64) *ParticleRenderer {
	return &ParticleRenderer{Channel: ch, Radius: radius}
}

// Draw renders every set. Walls first so the fluid stays on top.
func (r *ParticleRenderer) Draw(cam *camera.Camera, sets []*particles.Set) {
	for _, s := range sets {
		if s.IsBoundary() {
			r.drawSet(cam, s)
		}
	}
	for _, s := range sets {
		if !s.IsBoundary() {
			r.drawSet(cam, s)
		}
	}
}

func (r *ParticleRenderer) drawSet(cam *camera.Camera, s *particles.Set) {
	worldRadius := r.Radius * s.Spacing
	radius := cam.WorldLength(worldRadius)
	if radius < 1 {
		radius = 1
	}

	r.verts = renderer.VertexData(s, r.Channel, r.verts)
	for i, v := range r.verts {
		p := s.Particles[i].Position
		if !cam.IsVisible(p, worldRadius) {
			continue
		}
		sx, sy := cam.WorldToScreen(p)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, toColor(v))
	}
}

func toColor(v renderer.Vertex) rl.Color {
	return rl.Color{
		R: uint8(v.R * 255),
		G: uint8(v.G * 255),
		B: uint8(v.B * 255),
		A: uint8(v.A * 255),
	}
}
