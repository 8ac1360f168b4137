package simulation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/kernel"
	"github.com/pthm-cable/sph2d/particles"
)

// viscosityEps regularises the viscosity denominator as a fraction of h^2.
const viscosityEps = 0.01

// EquationOfState returns the clipped pressure stiffness*(density/restDensity - 1).
// The result is never negative and never NaN.
func EquationOfState(density, restDensity, stiffness float64) float64 {
	if restDensity == 0 {
		return 0
	}
	p := stiffness * (density/restDensity - 1)
	if !(p > 0) {
		return 0
	}
	return p
}

// UpdateParticleQuantities recomputes density, pressure and accelerations of
// every fluid particle from the current neighbor lists. Densities and
// pressures of all fluid particles are settled before any force is evaluated.
func (s *Simulation) UpdateParticleQuantities(gravity r2.Vec) error {
	if !s.fresh() {
		return ErrStaleNeighbors
	}

	kernels := make([]kernel.Cubic, len(s.sets))
	for si, set := range s.sets {
		if set.IsBoundary() || set.Len() == 0 {
			continue
		}
		k, err := kernel.New(set.Spacing)
		if err != nil {
			return fmt.Errorf("set %d: %w", si, err)
		}
		kernels[si] = k
	}

	for si, set := range s.sets {
		if set.IsBoundary() {
			continue
		}
		for i := range set.Particles {
			s.updateDensity(kernels[si], particles.Ref{Set: si, Index: i})
		}
	}

	for si, set := range s.sets {
		if set.IsBoundary() {
			continue
		}
		for i := range set.Particles {
			s.updateForces(kernels[si], particles.Ref{Set: si, Index: i}, gravity)
		}
	}
	return nil
}

func (s *Simulation) updateDensity(k kernel.Cubic, ref particles.Ref) {
	p := s.Particle(ref)
	sum := 0.0
	for _, n := range s.GetNeighbors(ref) {
		sum += k.W(p.Position, s.Particle(n).Position)
	}
	for _, n := range s.GetStaticNeighbors(ref) {
		sum += k.W(p.Position, s.Particle(n).Position)
	}
	p.Density = p.Mass() * sum

	set := p.Set()
	p.Pressure = EquationOfState(p.Density, set.RestDensity, set.Stiffness)
}

func (s *Simulation) updateForces(k kernel.Cubic, ref particles.Ref, gravity r2.Vec) {
	p := s.Particle(ref)
	set := p.Set()
	eps := viscosityEps * set.Spacing * set.Spacing
	ownTerm := p.Pressure * invSq(p.Density)

	var visc, staticVisc, press, staticPress r2.Vec

	for _, n := range s.GetNeighbors(ref) {
		q := s.Particle(n)
		grad := k.Grad(p.Position, q.Position)
		dx := r2.Sub(p.Position, q.Position)
		dv := r2.Sub(p.Velocity, q.Velocity)

		visc = r2.Add(visc, r2.Scale(q.Volume()*r2.Dot(dv, dx)/(r2.Dot(dx, dx)+eps), grad))
		press = r2.Add(press, r2.Scale(ownTerm+q.Pressure*invSq(q.Density), grad))
	}

	wallTerm := p.Pressure * (invSq(p.Density) + invSq(set.RestDensity))
	for _, n := range s.GetStaticNeighbors(ref) {
		q := s.Particle(n)
		grad := k.Grad(p.Position, q.Position)
		dx := r2.Sub(p.Position, q.Position)
		dv := r2.Sub(p.Velocity, q.Velocity)

		// Walls carry their own friction coefficient.
		f := q.Set().Viscosity * q.Volume() * r2.Dot(dv, dx) / (r2.Dot(dx, dx) + eps)
		staticVisc = r2.Add(staticVisc, r2.Scale(f, grad))
		staticPress = r2.Add(staticPress, r2.Scale(wallTerm, grad))
	}

	p.ViscosityAccel = r2.Add(r2.Scale(2*set.Viscosity, visc), r2.Scale(2, staticVisc))
	p.PressureAccel = r2.Scale(-p.Mass(), r2.Add(press, staticPress))
	p.OtherAccel = gravity
	p.Acceleration = r2.Add(r2.Add(p.ViscosityAccel, p.PressureAccel), p.OtherAccel)
}

// invSq returns 1/x^2, or 0 for x == 0.
func invSq(x float64) float64 {
	if x == 0 || math.IsNaN(x) {
		return 0
	}
	return 1 / (x * x)
}
