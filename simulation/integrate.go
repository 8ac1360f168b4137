package simulation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// UpdateParticlePositions advances fluid particles with symplectic Euler:
// the velocity is updated first and the new velocity moves the particle.
func (s *Simulation) UpdateParticlePositions(dt float64) {
	for _, set := range s.sets {
		if set.IsBoundary() {
			continue
		}
		for i := range set.Particles {
			p := &set.Particles[i]
			p.Velocity = r2.Add(p.Velocity, r2.Scale(dt, p.Acceleration))
			p.Position = r2.Add(p.Position, r2.Scale(dt, p.Velocity))
		}
	}
}

// ComputeTimeStep suggests cfl*minSpacing/maxSpeed clamped to the configured
// bounds. A scene at rest gets the maximum step.
func (s *Simulation) ComputeTimeStep(cfl float64) float64 {
	minSpacing := math.Inf(1)
	maxSpeed := 0.0
	for _, set := range s.sets {
		if set.Len() == 0 {
			continue
		}
		minSpacing = math.Min(minSpacing, set.Spacing)
		if set.IsBoundary() {
			continue
		}
		for i := range set.Particles {
			if v := r2.Norm(set.Particles[i].Velocity); v > maxSpeed {
				maxSpeed = v
			}
		}
	}
	if maxSpeed == 0 || math.IsInf(minSpacing, 1) {
		return s.maxStep
	}

	dt := cfl * minSpacing / maxSpeed
	switch {
	case math.IsNaN(dt):
		return s.minStep
	case dt < s.minStep:
		return s.minStep
	case dt > s.maxStep:
		return s.maxStep
	}
	return dt
}

// SetTimeStepBounds changes the clamp applied by ComputeTimeStep. Non-positive
// values select the defaults and hi is raised to lo when below it.
func (s *Simulation) SetTimeStepBounds(lo, hi float64) {
	if lo <= 0 {
		lo = DefaultMinTimeStep
	}
	if hi <= 0 {
		hi = DefaultMaxTimeStep
	}
	s.minStep, s.maxStep = lo, math.Max(lo, hi)
}

// TimeStepBounds returns the clamp applied by ComputeTimeStep.
func (s *Simulation) TimeStepBounds() (lo, hi float64) { return s.minStep, s.maxStep }

// Step runs neighbor search, quantity update and integration in order.
func (s *Simulation) Step(support float64, gravity r2.Vec, dt float64) error {
	if err := s.UpdateNeighbors(support); err != nil {
		return err
	}
	if err := s.UpdateParticleQuantities(gravity); err != nil {
		return err
	}
	s.UpdateParticlePositions(dt)
	return nil
}
