// Package particles holds the particle storage shared by the solver, the viewers and telemetry.
package particles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidGrid is returned by NewSet for negative counts or an unusable spacing.
var ErrInvalidGrid = errors.New("particles: invalid grid")

// Particle is a single fluid or boundary sample.
// Mass and volume are fixed when the particle is created.
type Particle struct {
	Position     r2.Vec
	Velocity     r2.Vec
	Acceleration r2.Vec

	// Contributions to Acceleration, kept for diagnostics.
	PressureAccel  r2.Vec
	ViscosityAccel r2.Vec
	OtherAccel     r2.Vec

	Density  float64
	Pressure float64

	set    *Set
	volume float64
	mass   float64
}

// Mass returns restDensity*volume of the owning set at creation.
func (p *Particle) Mass() float64 { return p.mass }

// Volume returns spacing^2 of the owning set at creation.
func (p *Particle) Volume() float64 { return p.volume }

// Set returns the set that owns this particle.
func (p *Particle) Set() *Set { return p.set }

// Ref identifies a particle by the index of its set in a simulation and its
// index inside that set.
type Ref struct {
	Set   int
	Index int
}

// Less orders refs by set, then index.
func (r Ref) Less(o Ref) bool {
	if r.Set != o.Set {
		return r.Set < o.Set
	}
	return r.Index < o.Index
}

// Set is a homogeneous collection of particles sharing physical constants.
type Set struct {
	Particles []Particle

	Spacing     float64
	RestDensity float64
	Stiffness   float64
	Viscosity   float64

	countX, countY int
	boundary       bool
}

// NewSet fills a countX by countY grid with the given spacing, starting at the origin.
// Particles are stored x-major: the particle at column i, row j has index i*countY+j.
func NewSet(countX, countY int, spacing, restDensity, stiffness, viscosity float64) (*Set, error) {
	if countX < 0 || countY < 0 {
		return nil, fmt.Errorf("%w: counts %dx%d", ErrInvalidGrid, countX, countY)
	}
	if !(spacing > 0) || math.IsInf(spacing, 1) {
		return nil, fmt.Errorf("%w: spacing %v", ErrInvalidGrid, spacing)
	}

	s := &Set{
		Spacing:     spacing,
		RestDensity: restDensity,
		Stiffness:   stiffness,
		Viscosity:   viscosity,
		countX:      countX,
		countY:      countY,
	}
	s.initGrid()
	return s, nil
}

func (s *Set) initGrid() {
	volume := s.Spacing * s.Spacing
	mass := s.RestDensity * volume

	s.Particles = make([]Particle, 0, s.countX*s.countY)
	for i := 0; i < s.countX; i++ {
		for j := 0; j < s.countY; j++ {
			s.Particles = append(s.Particles, Particle{
				Position: r2.Vec{X: float64(i) * s.Spacing, Y: float64(j) * s.Spacing},
				Density:  s.RestDensity,
				set:      s,
				volume:   volume,
				mass:     mass,
			})
		}
	}
}

// Len returns the number of particles.
func (s *Set) Len() int { return len(s.Particles) }

// Dims returns the grid dimensions the set was created with.
func (s *Set) Dims() (countX, countY int) { return s.countX, s.countY }

// MarkBoundary freezes the set. There is no way back.
func (s *Set) MarkBoundary() { s.boundary = true }

// IsBoundary reports whether the set is a static wall.
func (s *Set) IsBoundary() bool { return s.boundary }

// TranslateAll moves every particle by (dx, dy).
func (s *Set) TranslateAll(dx, dy float64) {
	off := r2.Vec{X: dx, Y: dy}
	for i := range s.Particles {
		s.Particles[i].Position = r2.Add(s.Particles[i].Position, off)
	}
}

// Positions returns a copy of all particle positions.
func (s *Set) Positions() []r2.Vec {
	out := make([]r2.Vec, len(s.Particles))
	for i := range s.Particles {
		out[i] = s.Particles[i].Position
	}
	return out
}

// Bounds returns the axis-aligned box containing all particles.
// ok is false for an empty set.
func (s *Set) Bounds() (lo, hi r2.Vec, ok bool) {
	if len(s.Particles) == 0 {
		return r2.Vec{}, r2.Vec{}, false
	}
	lo = s.Particles[0].Position
	hi = lo
	for i := 1; i < len(s.Particles); i++ {
		p := s.Particles[i].Position
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	return lo, hi, true
}

// WritePositions writes one "x y" line per particle.
func (s *Set) WritePositions(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range s.Particles {
		p := s.Particles[i].Position
		if _, err := fmt.Fprintf(bw, "%g %g\n", p.X, p.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}
