package simulation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/kernel"
	"github.com/pthm-cable/sph2d/particles"
)

// NeighborSearch finds, for every point, the indices of all points strictly
// closer than radius according to Within. Lists are sorted ascending and a
// finite point is its own neighbor.
type NeighborSearch interface {
	Search(points []r2.Vec, radius float64) [][]int
	Name() string
}

// Within is the neighbor predicate shared by every backend.
func Within(a, b r2.Vec, radius float64) bool {
	return r2.Norm(r2.Sub(a, b)) < radius
}

// SearchByName returns the backend registered under name.
func SearchByName(name string) (NeighborSearch, error) {
	switch name {
	case "", "brute", "bruteforce":
		return BruteForce{}, nil
	case "grid":
		return NewCellGrid(0), nil
	case "kdtree":
		return KDTree{}, nil
	default:
		return nil, fmt.Errorf("unknown neighbor search %q", name)
	}
}

// BruteForce compares every pair of points. It is the reference backend.
type BruteForce struct{}

// Name implements NeighborSearch.
func (BruteForce) Name() string { return "brute" }

// Search implements NeighborSearch.
func (BruteForce) Search(points []r2.Vec, radius float64) [][]int {
	out := make([][]int, len(points))
	for i, p := range points {
		var list []int
		for j, q := range points {
			if Within(p, q, radius) {
				list = append(list, j)
			}
		}
		out[i] = list
	}
	return out
}

// UpdateNeighbors rebuilds every particle's neighbor lists for the given support radius.
func (s *Simulation) UpdateNeighbors(support float64) error {
	if !(support > 0) || math.IsInf(support, 1) {
		return fmt.Errorf("%w: neighbor support %v", kernel.ErrInvalidSupport, support)
	}

	s.flatten()
	found := s.search.Search(s.points, support)

	n := len(s.points)
	s.neighbors = make([][]particles.Ref, n)
	s.staticNeighbors = make([][]particles.Ref, n)
	for i, list := range found {
		var fluid, static []particles.Ref
		for _, j := range list {
			ref := s.refs[j]
			if s.sets[ref.Set].IsBoundary() {
				static = append(static, ref)
			} else {
				fluid = append(fluid, ref)
			}
		}
		s.neighbors[i] = fluid
		s.staticNeighbors[i] = static
	}
	s.support = support
	return nil
}

// flatten snapshots all positions in (set, index) order.
func (s *Simulation) flatten() {
	s.offsets = s.offsets[:0]
	s.refs = s.refs[:0]
	s.points = s.points[:0]
	s.listedSets = make([]*particles.Set, 0, len(s.sets))
	s.listedLens = make([]int, 0, len(s.sets))

	for si, set := range s.sets {
		s.offsets = append(s.offsets, len(s.points))
		s.listedSets = append(s.listedSets, set)
		s.listedLens = append(s.listedLens, set.Len())
		for i := range set.Particles {
			s.refs = append(s.refs, particles.Ref{Set: si, Index: i})
			s.points = append(s.points, set.Particles[i].Position)
		}
	}
}
