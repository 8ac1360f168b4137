package ui

import (
	"fmt"

	"github.com/pthm-cable/sph2d/telemetry"
)

// StatsView is the data shown by the stats panel.
type StatsView struct {
	Stats       telemetry.WindowStats
	RestDensity float64
	Valid       bool // False until the first window has been flushed
}

func statsOf(data any) StatsView {
	v, _ := data.(StatsView)
	return v
}

func statsGetter(f func(s telemetry.WindowStats) float64) func(any) float64 {
	return func(data any) float64 {
		return f(statsOf(data).Stats)
	}
}

// StatsSections describes the stats panel.
func StatsSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "window",
			Title: "Window",
			Fields: []FieldDescriptor{
				{ID: "window_end", Label: "Steps", Widget: WidgetText, TextGetter: func(data any) string {
					s := statsOf(data).Stats
					return fmt.Sprintf("%d - %d", s.WindowStartStep, s.WindowEndStep)
				}},
				{ID: "particles", Label: "Particles", Widget: WidgetText, Format: "%.0f",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return float64(s.Particles) })},
				{ID: "escaped", Label: "Escaped", Widget: WidgetText, Format: "%.0f",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return float64(s.Escaped) })},
				{ID: "neighbors", Label: "Mean neighbors", Widget: WidgetText, Format: "%.2f",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.MeanNeighbors })},
			},
		},
		{
			ID:    "density",
			Title: "Density",
			Fields: []FieldDescriptor{
				{ID: "density_mean", Label: "Mean / rest", Widget: WidgetBar, Format: "%.3f", Range: FieldRange{Min: 0.9, Max: 1.1},
					Getter: func(data any) float64 {
						v := statsOf(data)
						if v.RestDensity == 0 {
							return 0
						}
						return v.Stats.DensityMean / v.RestDensity
					}},
				{ID: "density_std", Label: "Std", Widget: WidgetText, Format: "%.3g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.DensityStd })},
				{ID: "density_p90", Label: "P90", Widget: WidgetText, Format: "%.4g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.DensityP90 })},
				{ID: "compression", Label: "Peak compression", Widget: WidgetBar, Format: "%.2f%%", Range: FieldRange{Min: 0, Max: 10},
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return 100 * s.PeakCompression })},
			},
		},
		{
			ID:    "motion",
			Title: "Motion",
			Fields: []FieldDescriptor{
				{ID: "pressure_max", Label: "Max pressure", Widget: WidgetText, Format: "%.3g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.PressureMax })},
				{ID: "speed_mean", Label: "Mean speed", Widget: WidgetText, Format: "%.3g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.SpeedMean })},
				{ID: "peak_speed", Label: "Peak speed", Widget: WidgetText, Format: "%.3g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.PeakSpeed })},
				{ID: "kinetic", Label: "Kinetic energy", Widget: WidgetText, Format: "%.3g",
					Getter: statsGetter(func(s telemetry.WindowStats) float64 { return s.KineticEnergy })},
				{ID: "centroid", Label: "Centroid", Widget: WidgetText, TextGetter: func(data any) string {
					s := statsOf(data).Stats
					return fmt.Sprintf("(%.2f, %.2f)", s.CentroidX, s.CentroidY)
				}},
			},
		},
	}
}

// StatsPanel renders the latest window stats.
type StatsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		sections: StatsSections(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(view StatsView) int32 {
	r := p.renderer
	padding := r.Theme.Padding
	inner := p.width - 2*padding

	if !view.Valid {
		r.DrawPanel(p.x, p.y, p.width, r.Theme.LineHeight+2*padding)
		r.DrawLabelValue(p.x+padding, p.y+padding, "Stats", "waiting for first window")
		return p.y + r.Theme.LineHeight + 2*padding
	}

	height := 2 * padding
	for _, sd := range p.sections {
		height += r.SectionHeight(sd, view)
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + padding
	for _, sd := range p.sections {
		y = r.DrawSection(p.x+padding, y, sd, view, inner)
	}
	return p.y + height
}
