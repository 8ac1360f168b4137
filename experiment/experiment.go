// Package experiment runs the boundary experiment: a block of fluid released
// inside a container of static walls.
package experiment

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/simulation"
	"github.com/pthm-cable/sph2d/telemetry"
)

// Options holds experiment settings that survive a Reset.
type Options struct {
	Search simulation.NeighborSearch // Nil means brute force

	HistoryParticles []int // Fluid indices to record, nil = all
	MaxSamples       int   // History ring size, 0 = unbounded
	PerfWindow       int   // Steps in the rolling perf window
	WindowSteps      int   // Steps per stats window

	LogStats      bool                         // Log window and perf stats via slog
	Output        *telemetry.OutputManager     // Nil disables CSV output
	SnapshotDir   string                       // Bookmarks save snapshots here when set
	StatsCallback func(s telemetry.WindowStats) // Called on every window flush
}

// Experiment owns the particle sets of one scene and steps them.
type Experiment struct {
	params Params
	opts   Options

	sim   *simulation.Simulation
	fluid *particles.Set
	walls []*particles.Set

	// Telemetry
	history   *telemetry.History
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector

	// State
	step   int
	time   float64
	lastDT float64
	paused bool

	lo, hi r2.Vec
}

// New builds the scene described by params.
func New(params Params, opts Options) (*Experiment, error) {
	if opts.WindowSteps < 1 {
		opts.WindowSteps = 100
	}
	e := &Experiment{
		opts:    opts,
		history: telemetry.NewHistory(opts.HistoryParticles, opts.MaxSamples),
		perf:    telemetry.NewPerfCollector(opts.PerfWindow),
	}
	if err := e.Reset(params); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset discards every particle set and rebuilds the scene from params.
// History, time and step counters start over. On error the previous scene is kept.
func (e *Experiment) Reset(params Params) error {
	if params.Policy == "" {
		params.Policy = PolicyFixed
	}
	if err := params.Validate(); err != nil {
		return err
	}

	fluid, walls, err := buildScene(params)
	if err != nil {
		return err
	}
	if err := e.history.Bind(fluid); err != nil {
		return fmt.Errorf("binding history: %w", err)
	}

	if e.sim == nil {
		e.sim = simulation.New(simulation.Options{Search: e.opts.Search})
	}
	e.sim.SetTimeStepBounds(params.MinDT, params.MaxDT)
	e.params = params
	e.install(fluid, walls)
	e.step = 0
	e.time = 0
	e.bookmarks = telemetry.NewBookmarkDetector(10)

	slog.Info("experiment reset",
		"fluid", fluid.Len(),
		"walls", len(walls),
		"spacing", params.Spacing,
		"support", params.Support(),
		"policy", string(params.Policy),
		"search", e.sim.Search().Name(),
	)
	return nil
}

// install swaps the simulated sets and the per-scene telemetry state.
func (e *Experiment) install(fluid *particles.Set, walls []*particles.Set) {
	e.sim.Clear()
	e.sim.AddParticleSet(fluid)
	for _, w := range walls {
		e.sim.AddParticleSet(w)
	}
	e.fluid = fluid
	e.walls = walls
	e.lastDT = 0

	e.lo, e.hi = sceneBounds(e.sim.Sets())
	e.collector = telemetry.NewCollector(e.opts.WindowSteps)
	if len(walls) > 0 {
		// Fluid may splash upward out of an open container.
		e.collector.SetBounds(e.lo, r2.Vec{X: e.hi.X, Y: math.Inf(1)})
	}
	e.perf.Reset()
}

// buildScene creates the fluid block at the origin and the walls around it.
func buildScene(p Params) (*particles.Set, []*particles.Set, error) {
	fluid, err := particles.NewSet(p.CountX, p.CountY, p.Spacing, p.RestDensity, p.Stiffness, p.Viscosity)
	if err != nil {
		return nil, nil, fmt.Errorf("fluid: %w", err)
	}

	walls := make([]*particles.Set, 0, len(p.Walls))
	for i, w := range p.Walls {
		set, err := particles.NewSet(w.CountX, w.CountY, p.Spacing, p.RestDensity, p.Stiffness, p.BoundaryViscosity)
		if err != nil {
			return nil, nil, fmt.Errorf("wall %d (%s): %w", i, w.Name, err)
		}
		set.TranslateAll(w.OffsetX*p.Spacing, w.OffsetY*p.Spacing)
		set.MarkBoundary()
		walls = append(walls, set)
	}
	return fluid, walls, nil
}

// sceneBounds returns the box around all sets, or a unit box if all are empty.
func sceneBounds(sets []*particles.Set) (lo, hi r2.Vec) {
	found := false
	for _, s := range sets {
		slo, shi, ok := s.Bounds()
		if !ok {
			continue
		}
		if !found {
			lo, hi, found = slo, shi, true
			continue
		}
		lo = r2.Vec{X: math.Min(lo.X, slo.X), Y: math.Min(lo.Y, slo.Y)}
		hi = r2.Vec{X: math.Max(hi.X, shi.X), Y: math.Max(hi.Y, shi.Y)}
	}
	if !found {
		return r2.Vec{}, r2.Vec{X: 1, Y: 1}
	}
	return lo, hi
}

// nextDT picks the step length under the current policy.
func (e *Experiment) nextDT() float64 {
	if e.params.Policy == PolicyCFL {
		return e.sim.ComputeTimeStep(e.params.CFL)
	}
	return e.params.DT
}

// Step advances the scene by one time step.
func (e *Experiment) Step() error {
	dt := e.nextDT()

	e.perf.StartStep()

	e.perf.StartPhase(telemetry.PhaseNeighbors)
	if err := e.sim.UpdateNeighbors(e.params.Support()); err != nil {
		return fmt.Errorf("step %d: %w", e.step, err)
	}

	e.perf.StartPhase(telemetry.PhaseQuantities)
	if err := e.sim.UpdateParticleQuantities(e.params.Gravity); err != nil {
		return fmt.Errorf("step %d: %w", e.step, err)
	}

	e.perf.StartPhase(telemetry.PhasePositions)
	e.sim.UpdateParticlePositions(dt)
	e.time += dt
	e.lastDT = dt
	e.step++

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.history.Record(e.time, dt)
	e.collector.RecordStep(e.fluid)
	e.flushTelemetry()

	e.perf.EndStep()
	return nil
}

// Update runs StepsPerUpdate steps unless paused.
func (e *Experiment) Update() error {
	if e.paused {
		return nil
	}
	for i := 0; i < e.params.StepsPerUpdate; i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// SetTiming changes the fixed step length and the steps per update without
// rebuilding the scene.
func (e *Experiment) SetTiming(dt float64, stepsPerUpdate int) error {
	p := e.params
	p.DT = dt
	p.StepsPerUpdate = stepsPerUpdate
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// SetStatsCallback replaces the function called on every window flush.
func (e *Experiment) SetStatsCallback(fn func(s telemetry.WindowStats)) {
	e.opts.StatsCallback = fn
}

// MeanNeighbors returns the average neighbor count of the fluid particles
// from the latest neighbor search.
func (e *Experiment) MeanNeighbors() float64 {
	n := e.fluid.Len()
	if n == 0 {
		return 0
	}
	total := 0
	for i := 0; i < n; i++ {
		ref := particles.Ref{Set: 0, Index: i}
		total += len(e.sim.GetNeighbors(ref)) + len(e.sim.GetStaticNeighbors(ref))
	}
	return float64(total) / float64(n)
}

// Snapshot captures the current particle state.
func (e *Experiment) Snapshot() *telemetry.Snapshot {
	return telemetry.NewSnapshot(e.step, e.time, e.sim.Sets())
}

// Restore replaces the scene with the sets of a snapshot. The first
// non-boundary set becomes the fluid. Params keep their physical settings.
func (e *Experiment) Restore(snap *telemetry.Snapshot) error {
	sets, err := snap.Restore()
	if err != nil {
		return err
	}
	var fluid *particles.Set
	var walls []*particles.Set
	for _, s := range sets {
		switch {
		case s.IsBoundary():
			walls = append(walls, s)
		case fluid != nil:
			return fmt.Errorf("%w: snapshot has more than one fluid set", telemetry.ErrSnapshotMismatch)
		default:
			fluid = s
		}
	}
	if fluid == nil {
		return fmt.Errorf("%w: snapshot has no fluid set", telemetry.ErrSnapshotMismatch)
	}
	if err := e.history.Bind(fluid); err != nil {
		return fmt.Errorf("binding history: %w", err)
	}

	e.install(fluid, walls)
	e.step = snap.Step
	e.time = snap.SimTime
	return nil
}

// Close writes the end-of-run artifacts to the output manager.
func (e *Experiment) Close() error {
	out := e.opts.Output
	if out == nil {
		return nil
	}
	if err := out.WriteHistory(e.history); err != nil {
		return err
	}
	if err := out.WritePositions("positions.txt", e.fluid); err != nil {
		return err
	}
	profile, err := e.KernelProfile(200)
	if err != nil {
		return err
	}
	return out.WritePlots(e.history, profile)
}

// Params returns the parameters of the current scene.
func (e *Experiment) Params() Params {
	return e.params
}

func (e *Experiment) Simulation() *simulation.Simulation {
	return e.sim
}

// Fluid returns the fluid set. It is always set 0 of the simulation.
func (e *Experiment) Fluid() *particles.Set {
	return e.fluid
}

func (e *Experiment) Walls() []*particles.Set {
	return e.walls
}

// Sets returns the fluid followed by the walls.
func (e *Experiment) Sets() []*particles.Set {
	return e.sim.Sets()
}

func (e *Experiment) History() *telemetry.History {
	return e.history
}

func (e *Experiment) Perf() *telemetry.PerfCollector {
	return e.perf
}

// StepCount returns the number of completed steps since the last reset.
func (e *Experiment) StepCount() int {
	return e.step
}

// Time returns the simulated time since the last reset.
func (e *Experiment) Time() float64 {
	return e.time
}

// LastDT returns the length of the latest step, 0 before the first step.
func (e *Experiment) LastDT() float64 {
	return e.lastDT
}

func (e *Experiment) Paused() bool {
	return e.paused
}

func (e *Experiment) SetPaused(p bool) {
	e.paused = p
}

func (e *Experiment) TogglePause() {
	e.paused = !e.paused
}

// Bounds returns the box around the scene as built, for fitting a camera.
func (e *Experiment) Bounds() (lo, hi r2.Vec) {
	return e.lo, e.hi
}
