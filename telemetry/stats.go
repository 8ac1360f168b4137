package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated fluid statistics for a window of steps.
type WindowStats struct {
	WindowStartStep int     `csv:"-"`
	WindowEndStep   int     `csv:"window_end"`
	SimTime         float64 `csv:"sim_time"`
	LastDT          float64 `csv:"dt"`

	Particles int `csv:"particles"`
	Escaped   int `csv:"escaped"` // Fluid particles outside the scene bounds or non-finite

	// Density distribution at window end
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP10  float64 `csv:"density_p10"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Peak max(density)/rest - 1 seen during the window
	PeakCompression float64 `csv:"peak_compression"`

	PressureMean float64 `csv:"pressure_mean"`
	PressureMax  float64 `csv:"pressure_max"`

	SpeedMean float64 `csv:"speed_mean"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`
	// Peak speed seen during the window
	PeakSpeed float64 `csv:"peak_speed"`

	KineticEnergy float64 `csv:"kinetic_energy"`
	CentroidX     float64 `csv:"centroid_x"`
	CentroidY     float64 `csv:"centroid_y"`
	MinY          float64 `csv:"min_y"`

	MeanNeighbors float64 `csv:"mean_neighbors"`
}

// FieldStats summarises one scalar field over the finite values of a sample.
type FieldStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// ComputeFieldStats returns population mean and standard deviation plus
// empirical quantiles. Non-finite values are ignored; an empty sample gives zeros.
func ComputeFieldStats(values []float64) FieldStats {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return FieldStats{}
	}
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return FieldStats{
		Mean: mean,
		Std:  std,
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Max:  floats.Max(sorted),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartStep),
		slog.Int("window_end", s.WindowEndStep),
		slog.Float64("sim_time", s.SimTime),
		slog.Float64("dt", s.LastDT),
		slog.Int("particles", s.Particles),
		slog.Int("escaped", s.Escaped),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("peak_compression", s.PeakCompression),
		slog.Float64("pressure_max", s.PressureMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("peak_speed", s.PeakSpeed),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("min_y", s.MinY),
		slog.Float64("mean_neighbors", s.MeanNeighbors),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndStep,
		"sim_time", s.SimTime,
		"particles", s.Particles,
		"escaped", s.Escaped,
		"density_mean", s.DensityMean,
		"peak_compression", s.PeakCompression,
		"speed_max", s.SpeedMax,
		"kinetic_energy", s.KineticEnergy,
	)
}
