package telemetry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
)

// ErrParticleIndex is returned when a tracked index is outside the bound set.
var ErrParticleIndex = errors.New("tracked particle index out of range")

// Field selects one recorded per-particle quantity.
type Field int

const (
	FieldDensity Field = iota
	FieldPressure
	FieldPressureAccel
	FieldViscosityAccel
	FieldOtherAccel
	FieldSpeed
	numFields
)

// Fields lists every recorded field in column order.
var Fields = []Field{
	FieldDensity, FieldPressure, FieldPressureAccel,
	FieldViscosityAccel, FieldOtherAccel, FieldSpeed,
}

func (f Field) String() string {
	switch f {
	case FieldDensity:
		return "density"
	case FieldPressure:
		return "pressure"
	case FieldPressureAccel:
		return "pressure_accel"
	case FieldViscosityAccel:
		return "viscosity_accel"
	case FieldOtherAccel:
		return "other_accel"
	case FieldSpeed:
		return "speed"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParticleSample holds the recorded quantities of one particle at one time.
type ParticleSample [numFields]float64

// Get returns the value of field f.
func (s ParticleSample) Get(f Field) float64 {
	if f < 0 || f >= numFields {
		return math.NaN()
	}
	return s[f]
}

// HistorySample is everything recorded after one completed step.
type HistorySample struct {
	Time        float64
	MaxDistance float64 // dt * max speed over the tracked particles
	Particles   []ParticleSample
}

// HistoryRow is one CSV line: one tracked particle at one sample time.
type HistoryRow struct {
	Time           float64 `csv:"time"`
	Particle       int     `csv:"particle"`
	Density        float64 `csv:"density"`
	Pressure       float64 `csv:"pressure"`
	PressureAccel  float64 `csv:"pressure_accel"`
	ViscosityAccel float64 `csv:"viscosity_accel"`
	OtherAccel     float64 `csv:"other_accel"`
	Speed          float64 `csv:"speed"`
	MaxDistance    float64 `csv:"max_distance"`
}

// History records per-particle quantities of a fluid set once per step.
// Samples live in a ring buffer so long runs keep only the newest maxSamples.
type History struct {
	requested  []int // nil tracks every particle
	indices    []int
	set        *particles.Set
	maxSamples int

	samples []HistorySample
	start   int
	count   int
}

// NewHistory creates a history tracking the given particle indices.
// A nil slice tracks the whole set. maxSamples <= 0 means unbounded.
func NewHistory(tracked []int, maxSamples int) *History {
	h := &History{maxSamples: maxSamples}
	if tracked != nil {
		h.requested = append([]int{}, tracked...)
	}
	return h
}

// Bind attaches the history to a set and drops all previous samples.
func (h *History) Bind(set *particles.Set) error {
	var indices []int
	if h.requested == nil {
		indices = make([]int, set.Len())
		for i := range indices {
			indices[i] = i
		}
	} else {
		for _, idx := range h.requested {
			if idx < 0 || idx >= set.Len() {
				return fmt.Errorf("%w: %d (set has %d particles)", ErrParticleIndex, idx, set.Len())
			}
		}
		indices = append([]int{}, h.requested...)
	}
	h.set = set
	h.indices = indices
	h.Clear()
	return nil
}

// Tracked returns the particle indices being recorded.
func (h *History) Tracked() []int {
	return append([]int{}, h.indices...)
}

// Record samples the bound set after a step of length dt ending at time t.
func (h *History) Record(t, dt float64) {
	if h.set == nil {
		return
	}
	sample := HistorySample{
		Time:      t,
		Particles: make([]ParticleSample, len(h.indices)),
	}
	var maxSpeed float64
	for k, idx := range h.indices {
		p := &h.set.Particles[idx]
		speed := r2.Norm(p.Velocity)
		sample.Particles[k] = ParticleSample{
			FieldDensity:        p.Density,
			FieldPressure:       p.Pressure,
			FieldPressureAccel:  r2.Norm(p.PressureAccel),
			FieldViscosityAccel: r2.Norm(p.ViscosityAccel),
			FieldOtherAccel:     r2.Norm(p.OtherAccel),
			FieldSpeed:          speed,
		}
		maxSpeed = math.Max(maxSpeed, speed)
	}
	sample.MaxDistance = dt * maxSpeed

	if h.maxSamples > 0 && h.count == h.maxSamples {
		h.samples[h.start] = sample
		h.start = (h.start + 1) % h.maxSamples
		return
	}
	h.samples = append(h.samples, sample)
	h.count++
}

// Clear drops all samples but keeps the binding.
func (h *History) Clear() {
	h.samples = nil
	h.start = 0
	h.count = 0
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.count
}

// At returns the i-th oldest stored sample.
func (h *History) At(i int) HistorySample {
	if h.maxSamples > 0 {
		return h.samples[(h.start+i)%h.maxSamples]
	}
	return h.samples[i]
}

// Times returns the sample times, oldest first.
func (h *History) Times() []float64 {
	out := make([]float64, h.count)
	for i := range out {
		out[i] = h.At(i).Time
	}
	return out
}

// MaxDistance returns the per-step max travelled distance, oldest first.
func (h *History) MaxDistance() []float64 {
	out := make([]float64, h.count)
	for i := range out {
		out[i] = h.At(i).MaxDistance
	}
	return out
}

// Series returns field f of the k-th tracked particle, oldest first.
func (h *History) Series(f Field, k int) []float64 {
	if k < 0 || k >= len(h.indices) {
		return nil
	}
	out := make([]float64, h.count)
	for i := range out {
		out[i] = h.At(i).Particles[k].Get(f)
	}
	return out
}

// Rows flattens the history for CSV export.
func (h *History) Rows() []HistoryRow {
	rows := make([]HistoryRow, 0, h.count*len(h.indices))
	for i := 0; i < h.count; i++ {
		s := h.At(i)
		for k, ps := range s.Particles {
			rows = append(rows, HistoryRow{
				Time:           s.Time,
				Particle:       h.indices[k],
				Density:        ps[FieldDensity],
				Pressure:       ps[FieldPressure],
				PressureAccel:  ps[FieldPressureAccel],
				ViscosityAccel: ps[FieldViscosityAccel],
				OtherAccel:     ps[FieldOtherAccel],
				Speed:          ps[FieldSpeed],
				MaxDistance:    s.MaxDistance,
			})
		}
	}
	return rows
}
