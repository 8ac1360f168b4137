// Package simulation implements the SPH solver: neighbor search, density and
// force evaluation, and time integration over a collection of particle sets.
package simulation

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
)

// ErrStaleNeighbors is returned when quantities are requested with neighbor
// lists that no longer describe the registered particle sets.
var ErrStaleNeighbors = errors.New("simulation: neighbor lists are stale")

// Default time step bounds used by ComputeTimeStep when Options leaves them zero.
const (
	DefaultMinTimeStep = 1e-5
	DefaultMaxTimeStep = 1e-2
)

// Options configures a Simulation.
type Options struct {
	// Search finds neighbors. Nil means brute force.
	Search NeighborSearch

	MinTimeStep float64
	MaxTimeStep float64
}

// Simulation advances a scene made of particle sets. It does not own the sets.
type Simulation struct {
	search  NeighborSearch
	minStep float64
	maxStep float64

	sets []*particles.Set

	// Flat view over all sets, rebuilt by UpdateNeighbors.
	offsets []int
	refs    []particles.Ref
	points  []r2.Vec

	neighbors       [][]particles.Ref
	staticNeighbors [][]particles.Ref

	// State the lists were computed for.
	listedSets []*particles.Set
	listedLens []int
	support    float64
}

// New creates an empty simulation.
func New(opts Options) *Simulation {
	if opts.Search == nil {
		opts.Search = BruteForce{}
	}
	if opts.MinTimeStep <= 0 {
		opts.MinTimeStep = DefaultMinTimeStep
	}
	if opts.MaxTimeStep <= 0 {
		opts.MaxTimeStep = DefaultMaxTimeStep
	}
	if opts.MaxTimeStep < opts.MinTimeStep {
		opts.MaxTimeStep = opts.MinTimeStep
	}
	return &Simulation{
		search:  opts.Search,
		minStep: opts.MinTimeStep,
		maxStep: opts.MaxTimeStep,
	}
}

// AddParticleSet registers a set. Its index in Sets is the Set field of its refs.
func (s *Simulation) AddParticleSet(set *particles.Set) {
	s.sets = append(s.sets, set)
}

// Clear forgets all sets and neighbor lists.
func (s *Simulation) Clear() {
	s.sets = nil
	s.offsets = s.offsets[:0]
	s.refs = s.refs[:0]
	s.points = s.points[:0]
	s.neighbors = nil
	s.staticNeighbors = nil
	s.listedSets = nil
	s.listedLens = nil
	s.support = 0
}

// Sets returns the registered sets in registration order.
func (s *Simulation) Sets() []*particles.Set {
	out := make([]*particles.Set, len(s.sets))
	copy(out, s.sets)
	return out
}

// Search returns the neighbor search backend.
func (s *Simulation) Search() NeighborSearch { return s.search }

// Support returns the radius used by the last UpdateNeighbors.
func (s *Simulation) Support() float64 { return s.support }

// Particle resolves a ref. It panics on an out of range ref.
func (s *Simulation) Particle(r particles.Ref) *particles.Particle {
	return &s.sets[r.Set].Particles[r.Index]
}

// NumParticles returns the total particle count over all sets.
func (s *Simulation) NumParticles() int {
	n := 0
	for _, set := range s.sets {
		n += set.Len()
	}
	return n
}

// GetNeighbors returns the neighbors of r that belong to fluid sets, ordered
// by (set, index). The slice is owned by the simulation.
func (s *Simulation) GetNeighbors(r particles.Ref) []particles.Ref {
	i, ok := s.flatIndex(r)
	if !ok {
		return nil
	}
	return s.neighbors[i]
}

// GetStaticNeighbors returns the neighbors of r that belong to boundary sets.
func (s *Simulation) GetStaticNeighbors(r particles.Ref) []particles.Ref {
	i, ok := s.flatIndex(r)
	if !ok {
		return nil
	}
	return s.staticNeighbors[i]
}

func (s *Simulation) flatIndex(r particles.Ref) (int, bool) {
	if r.Set < 0 || r.Set >= len(s.listedSets) || r.Index < 0 || r.Index >= s.listedLens[r.Set] {
		return 0, false
	}
	return s.offsets[r.Set] + r.Index, true
}

// fresh reports whether the neighbor lists were built for the current sets
// and positions.
func (s *Simulation) fresh() bool {
	if s.listedSets == nil || len(s.listedSets) != len(s.sets) {
		return false
	}
	for si, set := range s.sets {
		if set != s.listedSets[si] || set.Len() != s.listedLens[si] {
			return false
		}
		base := s.offsets[si]
		for i := range set.Particles {
			if !sameVec(set.Particles[i].Position, s.points[base+i]) {
				return false
			}
		}
	}
	return true
}

func sameVec(a, b r2.Vec) bool {
	return math.Float64bits(a.X) == math.Float64bits(b.X) &&
		math.Float64bits(a.Y) == math.Float64bits(b.Y)
}
