package simulation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMaxCells bounds the memory used by a CellGrid for sparse scenes.
const DefaultMaxCells = 1 << 20

// CellGrid buckets points into square cells of the search radius and only
// compares points in nearby cells.
type CellGrid struct {
	MaxCells int

	cellSize float64
	origin   r2.Vec
	cols     int
	rows     int
	cells    [][]int
}

// NewCellGrid creates a grid backend. maxCells <= 0 selects DefaultMaxCells.
func NewCellGrid(maxCells int) *CellGrid {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &CellGrid{MaxCells: maxCells}
}

// Name implements NeighborSearch.
func (g *CellGrid) Name() string { return "grid" }

// Search implements NeighborSearch.
func (g *CellGrid) Search(points []r2.Vec, radius float64) [][]int {
	out := make([][]int, len(points))
	if !g.build(points, radius) {
		return out
	}

	cellRadius := int(radius/g.cellSize) + 1
	for i, p := range points {
		if !finite(p) {
			continue
		}
		col, row := g.cellOf(p)

		var list []int
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			c := col + dc
			if c < 0 || c >= g.cols {
				continue
			}
			for dr := -cellRadius; dr <= cellRadius; dr++ {
				r := row + dr
				if r < 0 || r >= g.rows {
					continue
				}
				for _, j := range g.cells[r*g.cols+c] {
					if Within(p, points[j], radius) {
						list = append(list, j)
					}
				}
			}
		}
		slices.Sort(list)
		out[i] = list
	}
	return out
}

// build sizes the grid to the finite points and inserts them.
// It reports false when there is nothing to search.
func (g *CellGrid) build(points []r2.Vec, radius float64) bool {
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	found := false
	for _, p := range points {
		if !finite(p) {
			continue
		}
		found = true
		lo.X = math.Min(lo.X, p.X)
		lo.Y = math.Min(lo.Y, p.Y)
		hi.X = math.Max(hi.X, p.X)
		hi.Y = math.Max(hi.Y, p.Y)
	}
	if !found {
		return false
	}

	maxCells := g.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	// Grow cells until the grid fits the cell budget.
	g.cellSize = radius
	for {
		if math.IsInf(g.cellSize, 1) {
			g.cols, g.rows = 1, 1
			break
		}
		g.cols = int((hi.X-lo.X)/g.cellSize) + 1
		g.rows = int((hi.Y-lo.Y)/g.cellSize) + 1
		if g.cols > 0 && g.rows > 0 && g.cols <= maxCells/g.rows {
			break
		}
		g.cellSize *= 2
	}
	g.origin = lo

	n := g.cols * g.rows
	if cap(g.cells) >= n {
		g.cells = g.cells[:n]
	} else {
		g.cells = make([][]int, n)
	}
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	for i, p := range points {
		if !finite(p) {
			continue
		}
		col, row := g.cellOf(p)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], i)
	}
	return true
}

// cellOf returns the clamped cell coordinates of p.
func (g *CellGrid) cellOf(p r2.Vec) (col, row int) {
	col = int((p.X - g.origin.X) / g.cellSize)
	row = int((p.Y - g.origin.Y) / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
