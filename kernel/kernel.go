// Package kernel provides the 2D cubic-spline smoothing kernel used by the SPH solver.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidSupport is returned when the smoothing length is not a positive finite number.
var ErrInvalidSupport = errors.New("kernel: smoothing length must be positive")

// Alpha returns the 2D normalisation factor 5/(14*pi*h^2).
func Alpha(h float64) float64 {
	return 5 / (14 * math.Pi * h * h)
}

// Cubic is a cubic-spline kernel with a validated smoothing length.
// Its weight vanishes for separations of 2h and beyond.
type Cubic struct {
	h     float64
	alpha float64
}

// New returns a cubic-spline kernel for smoothing length h.
func New(h float64) (Cubic, error) {
	if !(h > 0) || math.IsInf(h, 1) {
		return Cubic{}, fmt.Errorf("%w: h=%v", ErrInvalidSupport, h)
	}
	return Cubic{h: h, alpha: Alpha(h)}, nil
}

// MustNew is like New but panics on an invalid smoothing length.
func MustNew(h float64) Cubic {
	k, err := New(h)
	if err != nil {
		panic(err)
	}
	return k
}

// H returns the smoothing length.
func (k Cubic) H() float64 { return k.h }

// Alpha returns the normalisation factor for this kernel.
func (k Cubic) Alpha() float64 { return k.alpha }

// Support returns the radius beyond which the kernel is zero.
func (k Cubic) Support() float64 { return 2 * k.h }

// W evaluates the kernel weight between pi and pj.
func (k Cubic) W(pi, pj r2.Vec) float64 {
	q := r2.Norm(r2.Sub(pi, pj)) / k.h
	t1 := math.Max(1-q, 0)
	t2 := math.Max(2-q, 0)
	return k.alpha * (t2*t2*t2 - 4*t1*t1*t1)
}

// Grad evaluates the kernel gradient with respect to pi.
// Coincident points yield the zero vector.
func (k Cubic) Grad(pi, pj r2.Vec) r2.Vec {
	d := r2.Sub(pi, pj)
	q := r2.Norm(d) / k.h
	if q == 0 {
		return r2.Vec{}
	}
	t1 := math.Max(1-q, 0)
	t2 := math.Max(2-q, 0)
	s := k.alpha / (q * k.h * k.h) * (-3*t2*t2 + 12*t1*t1)
	return r2.Scale(s, d)
}

// Function evaluates the kernel weight for smoothing length h.
func Function(pi, pj r2.Vec, h float64) (float64, error) {
	k, err := New(h)
	if err != nil {
		return 0, err
	}
	return k.W(pi, pj), nil
}

// Derivative evaluates the kernel gradient with respect to pi for smoothing length h.
func Derivative(pi, pj r2.Vec, h float64) (r2.Vec, error) {
	k, err := New(h)
	if err != nil {
		return r2.Vec{}, err
	}
	return k.Grad(pi, pj), nil
}
