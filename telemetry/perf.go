package telemetry

import (
	"log/slog"
	"slices"
	"time"
)

// Phase names for the simulation step, in execution order.
const (
	PhaseNeighbors  = "neighbors"
	PhaseQuantities = "quantities"
	PhasePositions  = "positions"
	PhaseTelemetry  = "telemetry"
)

// Phases lists the step phases in execution order.
var Phases = []string{PhaseNeighbors, PhaseQuantities, PhasePositions, PhaseTelemetry}

const (
	defaultPerfWindow = 60
	numPhases         = 4
)

// stepTiming is one step's wall time split by phase. used marks the phases
// that ran during the step.
type stepTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
	used   [numPhases]bool
}

// PerfCollector keeps per-phase step timings over a ring of recent steps,
// plus the duration of the last rendered frame.
type PerfCollector struct {
	ring []stepTiming
	next int
	full bool

	cur        stepTiming
	stepStart  time.Time
	phaseStart time.Time
	phase      int // index into Phases, -1 between phases

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window steps.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = defaultPerfWindow
	}
	return &PerfCollector{ring: make([]stepTiming, window), phase: -1}
}

// Reset drops all recorded steps. Frame timing is kept.
func (p *PerfCollector) Reset() {
	clear(p.ring)
	p.next, p.full = 0, false
	p.cur, p.phase = stepTiming{}, -1
}

// Samples returns the number of steps in the window.
func (p *PerfCollector) Samples() int {
	if p.full {
		return len(p.ring)
	}
	return p.next
}

// StartStep begins timing a simulation step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.cur, p.phase = stepTiming{}, -1
}

// StartPhase closes the running phase and starts timing name. Unknown names
// only close the running phase.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phase = slices.Index(Phases, name)
	p.phaseStart = now
}

// EndStep closes the running phase and stores the step in the window.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)

	p.ring[p.next] = p.cur
	p.next++
	if p.next == len(p.ring) {
		p.next, p.full = 0, true
	}
	p.phase = -1
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase < 0 {
		return
	}
	p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	p.cur.used[p.phase] = true
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the step window.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	PhaseAvg map[string]time.Duration // Mean time per phase
	PhasePct map[string]float64       // Share of the mean step, 0-100

	StepsPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	out := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		out.FPS = float64(time.Second) / float64(p.frame)
	}

	n := p.Samples()
	if n == 0 {
		return out
	}

	var total time.Duration
	var sums [numPhases]time.Duration
	var used [numPhases]bool
	for i, st := range p.ring[:n] {
		total += st.total
		if i == 0 || st.total < out.MinStepDuration {
			out.MinStepDuration = st.total
		}
		out.MaxStepDuration = max(out.MaxStepDuration, st.total)
		for k := range Phases {
			sums[k] += st.phases[k]
			used[k] = used[k] || st.used[k]
		}
	}

	out.AvgStepDuration = total / time.Duration(n)
	if out.AvgStepDuration > 0 {
		out.StepsPerSecond = float64(time.Second) / float64(out.AvgStepDuration)
	}
	for k, name := range Phases {
		if !used[k] {
			continue
		}
		avg := sums[k] / time.Duration(n)
		out.PhaseAvg[name] = avg
		if out.AvgStepDuration > 0 {
			out.PhasePct[name] = 100 * float64(avg) / float64(out.AvgStepDuration)
		}
	}
	return out
}

// LogStats writes the window summary as one slog record.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, name := range Phases {
		if pct := s.PhasePct[name]; pct > 0.1 {
			attrs = append(attrs, name+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd     int     `csv:"window_end"`
	AvgStepUS     int64   `csv:"avg_step_us"`
	MinStepUS     int64   `csv:"min_step_us"`
	MaxStepUS     int64   `csv:"max_step_us"`
	StepsPerSec   float64 `csv:"steps_per_sec"`
	FPS           float64 `csv:"fps"`
	NeighborsPct  float64 `csv:"neighbors_pct"`
	QuantitiesPct float64 `csv:"quantities_pct"`
	PositionsPct  float64 `csv:"positions_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgStepUS:     s.AvgStepDuration.Microseconds(),
		MinStepUS:     s.MinStepDuration.Microseconds(),
		MaxStepUS:     s.MaxStepDuration.Microseconds(),
		StepsPerSec:   s.StepsPerSecond,
		FPS:           s.FPS,
		NeighborsPct:  s.PhasePct[PhaseNeighbors],
		QuantitiesPct: s.PhasePct[PhaseQuantities],
		PositionsPct:  s.PhasePct[PhasePositions],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
