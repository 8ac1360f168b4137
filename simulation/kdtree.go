package simulation

import (
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// KDTree answers radius queries with a gonum k-d tree rebuilt on every search.
type KDTree struct{}

// Name implements NeighborSearch.
func (KDTree) Name() string { return "kdtree" }

// Search implements NeighborSearch.
func (KDTree) Search(points []r2.Vec, radius float64) [][]int {
	out := make([][]int, len(points))

	pts := make(kdPoints, 0, len(points))
	for i, p := range points {
		if finite(p) {
			pts = append(pts, kdPoint{pos: p, index: i})
		}
	}
	if len(pts) == 0 {
		return out
	}
	tree := kdtree.New(pts, false)

	// The tree prunes on squared distance; widen the bound slightly and let
	// Within make the final call so results match brute force exactly.
	bound := radius * radius * (1 + 1e-9)

	for i, p := range points {
		if !finite(p) {
			continue
		}
		keep := kdtree.NewDistKeeper(bound)
		tree.NearestSet(keep, kdPoint{pos: p, index: i})

		list := make([]int, 0, len(keep.Heap))
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			q := c.Comparable.(kdPoint)
			if Within(p, q.pos, radius) {
				list = append(list, q.index)
			}
		}
		slices.Sort(list)
		out[i] = list
	}
	return out
}

// kdPoint is a position tagged with its index in the searched slice.
type kdPoint struct {
	pos   r2.Vec
	index int
}

func (p kdPoint) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return p.pos.X
	}
	return p.pos.Y
}

// Compare implements kdtree.Comparable.
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(kdPoint).coord(d)
}

// Dims implements kdtree.Comparable.
func (p kdPoint) Dims() int { return 2 }

// Distance implements kdtree.Comparable and returns the squared distance.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	d := r2.Sub(p.pos, c.(kdPoint).pos)
	return r2.Dot(d, d)
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int {
	return kdPlane{dim: d, kdPoints: p}.Pivot()
}
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// kdPlane sorts points along one dimension for median partitioning.
type kdPlane struct {
	dim kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coord(p.dim) < p.kdPoints[j].coord(p.dim)
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}
func (p kdPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
