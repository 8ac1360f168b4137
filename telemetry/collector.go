package telemetry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
)

// Collector tracks per-step peaks within a window of steps and produces WindowStats.
type Collector struct {
	windowSteps int

	// Scene box; fluid outside it counts as escaped.
	lo, hi    r2.Vec
	hasBounds bool

	windowStartStep int

	peakSpeed       float64
	peakCompression float64
}

// NewCollector creates a collector flushing every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// SetBounds sets the box outside which fluid particles count as escaped.
func (c *Collector) SetBounds(lo, hi r2.Vec) {
	c.lo, c.hi = lo, hi
	c.hasBounds = true
}

// Reset starts a new window at step 0.
func (c *Collector) Reset() {
	c.windowStartStep = 0
	c.peakSpeed = 0
	c.peakCompression = 0
}

// RecordStep updates the window peaks from the fluid state after a step.
func (c *Collector) RecordStep(fluid *particles.Set) {
	for i := range fluid.Particles {
		p := &fluid.Particles[i]
		if v := r2.Norm(p.Velocity); v > c.peakSpeed {
			c.peakSpeed = v
		}
		if fluid.RestDensity > 0 {
			if comp := p.Density/fluid.RestDensity - 1; comp > c.peakCompression {
				c.peakCompression = comp
			}
		}
	}
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStartStep >= c.windowSteps
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

// Flush produces a WindowStats from the current fluid state and resets the
// window peaks. meanNeighbors is the average neighbor list length.
func (c *Collector) Flush(step int, simTime, dt float64, fluid *particles.Set, meanNeighbors float64) WindowStats {
	n := fluid.Len()
	densities := make([]float64, 0, n)
	pressures := make([]float64, 0, n)
	speeds := make([]float64, 0, n)

	var kinetic, sumX, sumY float64
	minY := math.Inf(1)
	escaped, finite := 0, 0

	for i := range fluid.Particles {
		p := &fluid.Particles[i]
		pos := p.Position
		if !isFinite(pos) || (c.hasBounds && !c.inside(pos)) {
			escaped++
		}
		if isFinite(pos) {
			finite++
			sumX += pos.X
			sumY += pos.Y
			minY = math.Min(minY, pos.Y)
		}

		speed := r2.Norm(p.Velocity)
		densities = append(densities, p.Density)
		pressures = append(pressures, p.Pressure)
		speeds = append(speeds, speed)
		kinetic += 0.5 * p.Mass() * speed * speed
	}

	dens := ComputeFieldStats(densities)
	pres := ComputeFieldStats(pressures)
	spd := ComputeFieldStats(speeds)

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   step,
		SimTime:         simTime,
		LastDT:          dt,

		Particles: n,
		Escaped:   escaped,

		DensityMean: dens.Mean,
		DensityStd:  dens.Std,
		DensityP10:  dens.P10,
		DensityP50:  dens.P50,
		DensityP90:  dens.P90,

		PeakCompression: c.peakCompression,

		PressureMean: pres.Mean,
		PressureMax:  pres.Max,

		SpeedMean: spd.Mean,
		SpeedP90:  spd.P90,
		SpeedMax:  spd.Max,
		PeakSpeed: math.Max(c.peakSpeed, spd.Max),

		KineticEnergy: kinetic,
		MeanNeighbors: meanNeighbors,
	}
	if finite > 0 {
		stats.CentroidX = sumX / float64(finite)
		stats.CentroidY = sumY / float64(finite)
		stats.MinY = minY
	}

	// Reset for next window
	c.windowStartStep = step
	c.peakSpeed = 0
	c.peakCompression = 0

	return stats
}

func (c *Collector) inside(p r2.Vec) bool {
	return p.X >= c.lo.X && p.X <= c.hi.X && p.Y >= c.lo.Y && p.Y <= c.hi.Y
}

func isFinite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
