package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Profile holds the kernel and the x component of its gradient sampled along the x axis.
type Profile struct {
	X     []float64
	W     []float64
	DWdX  []float64
	Alpha float64
}

// Sample evaluates the kernel at n evenly spaced points in [from, to) with the
// origin as the reference particle. Used by the kernel plot and preview tool.
func Sample(h, from, to float64, n int) (Profile, error) {
	k, err := New(h)
	if err != nil {
		return Profile{}, err
	}
	if n < 0 {
		n = 0
	}

	p := Profile{
		X:     make([]float64, n),
		W:     make([]float64, n),
		DWdX:  make([]float64, n),
		Alpha: k.alpha,
	}
	if n == 0 {
		return p, nil
	}

	step := (to - from) / float64(n)
	for i := 0; i < n; i++ {
		x := from + step*float64(i)
		pos := r2.Vec{X: x}
		p.X[i] = x
		p.W[i] = k.W(r2.Vec{}, pos)
		p.DWdX[i] = k.Grad(r2.Vec{}, pos).X
	}
	return p, nil
}

// LatticeSum returns sum_j V_j W(0, x_j) over a square lattice with the given
// spacing, where V_j = spacing^2. A well resolved kernel sums to about 1.
func LatticeSum(h, spacing float64) (float64, error) {
	k, err := New(h)
	if err != nil {
		return 0, err
	}
	if !(spacing > 0) {
		return 0, fmt.Errorf("%w: spacing=%v", ErrInvalidSupport, spacing)
	}

	n := int(math.Ceil(k.Support() / spacing))
	volume := spacing * spacing
	sum := 0.0
	for i := -n; i <= n; i++ {
		for j := -n; j <= n; j++ {
			sum += volume * k.W(r2.Vec{}, r2.Vec{X: float64(i) * spacing, Y: float64(j) * spacing})
		}
	}
	return sum, nil
}
