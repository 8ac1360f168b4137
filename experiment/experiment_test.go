package experiment

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/simulation"
	"github.com/pthm-cable/sph2d/telemetry"
)

func defaultParams(t *testing.T) Params {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return ParamsFromConfig(cfg)
}

func newExperiment(t *testing.T, params Params, opts Options) *Experiment {
	t.Helper()
	if opts.Search == nil {
		opts.Search = simulation.NewCellGrid(0)
	}
	e, err := New(params, opts)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func TestParamsFromConfig(t *testing.T) {
	p := defaultParams(t)

	if p.CountX != 10 || p.CountY != 10 || p.Spacing != 3 {
		t.Errorf("fluid = %dx%d spacing %v", p.CountX, p.CountY, p.Spacing)
	}
	if p.Support() != 6 {
		t.Errorf("support = %v, want 6", p.Support())
	}
	if p.Policy != PolicyFixed || p.DT != 0.01 || p.StepsPerUpdate != 5 {
		t.Errorf("time stepping = %v %v %d", p.Policy, p.DT, p.StepsPerUpdate)
	}
	if p.Gravity != (r2.Vec{Y: -9.81}) {
		t.Errorf("gravity = %v", p.Gravity)
	}
	if len(p.Walls) != 3 || p.Walls[0] != (Wall{Name: "bottom", CountX: 26, CountY: 3, OffsetX: -3, OffsetY: -3}) {
		t.Errorf("walls = %+v", p.Walls)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"no_steps", func(p *Params) { p.StepsPerUpdate = 0 }},
		{"zero_dt", func(p *Params) { p.DT = 0 }},
		{"nan_dt", func(p *Params) { p.DT = math.NaN() }},
		{"cfl_without_number", func(p *Params) { p.Policy = PolicyCFL; p.CFL = 0 }},
		{"unknown_policy", func(p *Params) { p.Policy = "adaptive" }},
		{"negative_viscosity", func(p *Params) { p.BoundaryViscosity = -1 }},
	}
	for _, tt := range tests {
		p := defaultParams(t)
		tt.mutate(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: err = %v, want ErrInvalidParams", tt.name, err)
		}
	}

	if err := defaultParams(t).Validate(); err != nil {
		t.Errorf("defaults rejected: %v", err)
	}
}

func TestNewBuildsDefaultScene(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})

	sets := e.Sets()
	if len(sets) != 4 || sets[0] != e.Fluid() {
		t.Fatalf("sets = %d, fluid first = %v", len(sets), sets[0] == e.Fluid())
	}
	if e.Fluid().Len() != 100 || e.Fluid().IsBoundary() {
		t.Errorf("fluid = %d particles, boundary %v", e.Fluid().Len(), e.Fluid().IsBoundary())
	}

	wantLens := []int{78, 60, 60}
	for i, w := range e.Walls() {
		if !w.IsBoundary() {
			t.Errorf("wall %d not marked boundary", i)
		}
		if w.Len() != wantLens[i] {
			t.Errorf("wall %d has %d particles, want %d", i, w.Len(), wantLens[i])
		}
		if w.Viscosity != 4e-2 {
			t.Errorf("wall %d viscosity = %v", i, w.Viscosity)
		}
	}
	// Offsets are in units of spacing.
	if got := e.Walls()[0].Particles[0].Position; got != (r2.Vec{X: -9, Y: -9}) {
		t.Errorf("bottom wall origin = %v, want (-9, -9)", got)
	}

	lo, hi := e.Bounds()
	if lo != (r2.Vec{X: -9, Y: -9}) || hi != (r2.Vec{X: 66, Y: 57}) {
		t.Errorf("bounds = %v %v", lo, hi)
	}
}

func TestRunStaysInsideContainer(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	walls := make([][]r2.Vec, len(e.Walls()))
	for i, w := range e.Walls() {
		walls[i] = w.Positions()
	}

	for i := 0; i < 20; i++ {
		if err := e.Update(); err != nil {
			t.Fatal(err)
		}
	}

	if e.StepCount() != 100 {
		t.Errorf("steps = %d, want 100", e.StepCount())
	}
	if math.Abs(e.Time()-1) > 1e-9 {
		t.Errorf("time = %v, want 1", e.Time())
	}
	if e.LastDT() != 0.01 {
		t.Errorf("last dt = %v", e.LastDT())
	}

	for i := range e.Fluid().Particles {
		p := &e.Fluid().Particles[i]
		if !finite(p.Position) || !finite(p.Velocity) || math.IsNaN(p.Density) {
			t.Fatalf("particle %d diverged: %+v", i, p)
		}
		if p.Position.Y <= -3 {
			t.Errorf("particle %d fell through the floor: y = %v", i, p.Position.Y)
		}
	}
	for i, w := range e.Walls() {
		for j, pos := range w.Positions() {
			if pos != walls[i][j] {
				t.Fatalf("wall %d particle %d moved", i, j)
			}
		}
	}

	if e.History().Len() != 100 {
		t.Errorf("history samples = %d, want one per step", e.History().Len())
	}
	if e.Perf().Samples() == 0 {
		t.Error("perf collector recorded nothing")
	}
	if n := e.MeanNeighbors(); n < 4 {
		t.Errorf("mean neighbors = %v", n)
	}
}

func TestResetRebuildsScene(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	for i := 0; i < 10; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	old := e.Fluid()

	p := defaultParams(t)
	p.CountX, p.CountY = 4, 2
	p.Viscosity = 1e-6
	if err := e.Reset(p); err != nil {
		t.Fatal(err)
	}

	if e.Fluid() == old {
		t.Error("reset reused the old fluid set")
	}
	if e.Fluid().Len() != 8 || e.Fluid().Viscosity != 1e-6 {
		t.Errorf("fluid = %d particles, viscosity %v", e.Fluid().Len(), e.Fluid().Viscosity)
	}
	if e.StepCount() != 0 || e.Time() != 0 || e.History().Len() != 0 {
		t.Errorf("counters not reset: step %d time %v history %d", e.StepCount(), e.Time(), e.History().Len())
	}
	if got := e.Fluid().Particles[3].Position; got != (r2.Vec{X: 3, Y: 3}) {
		t.Errorf("particle 3 at %v, want grid position (3, 3)", got)
	}
	if len(e.Simulation().GetNeighbors(particles.Ref{Set: 0, Index: 0})) != 0 {
		t.Error("neighbor lists survived the reset")
	}
	if err := e.Step(); err != nil {
		t.Fatalf("step after reset: %v", err)
	}
}

func TestResetErrorKeepsScene(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})

	bad := defaultParams(t)
	bad.Spacing = 0
	if err := e.Reset(bad); !errors.Is(err, particles.ErrInvalidGrid) {
		t.Errorf("err = %v, want ErrInvalidGrid", err)
	}

	bad = defaultParams(t)
	bad.StepsPerUpdate = 0
	if err := e.Reset(bad); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("err = %v, want ErrInvalidParams", err)
	}

	if e.Fluid().Len() != 100 || len(e.Sets()) != 4 {
		t.Error("failed reset replaced the scene")
	}
	if err := e.Step(); err != nil {
		t.Fatalf("step after failed reset: %v", err)
	}
}

func TestNewRejectsUntrackableParticle(t *testing.T) {
	_, err := New(defaultParams(t), Options{HistoryParticles: []int{100}})
	if !errors.Is(err, telemetry.ErrParticleIndex) {
		t.Errorf("err = %v, want ErrParticleIndex", err)
	}
}

func TestCFLPolicy(t *testing.T) {
	p := defaultParams(t)
	p.Policy = PolicyCFL
	p.CFL = 0.4
	p.MinDT = 1e-4
	p.MaxDT = 0.01
	e := newExperiment(t, p, Options{})

	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if e.LastDT() != 0.01 {
		t.Errorf("first step from rest = %v, want max 0.01", e.LastDT())
	}

	for i := 0; i < 50; i++ {
		want := e.Simulation().ComputeTimeStep(0.4)
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
		if e.LastDT() != want {
			t.Fatalf("step %d: dt = %v, want %v", i, e.LastDT(), want)
		}
		if e.LastDT() < 1e-4 || e.LastDT() > 0.01 {
			t.Fatalf("step %d: dt %v outside bounds", i, e.LastDT())
		}
	}
}

func TestPausedUpdateDoesNothing(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	e.SetPaused(true)
	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	if e.StepCount() != 0 {
		t.Errorf("paused update ran %d steps", e.StepCount())
	}

	e.TogglePause()
	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	if e.StepCount() != 5 {
		t.Errorf("steps = %d, want StepsPerUpdate = 5", e.StepCount())
	}
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	var windows []telemetry.WindowStats
	e := newExperiment(t, defaultParams(t), Options{
		HistoryParticles: []int{0, 99},
		MaxSamples:       25,
		WindowSteps:      10,
		Output:           out,
		StatsCallback:    func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	for i := 0; i < 30; i++ {
		if err := e.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	if windows[2].WindowEndStep != 30 || windows[2].Particles != 100 {
		t.Errorf("last window = %+v", windows[2])
	}
	if e.History().Len() != 25 {
		t.Errorf("history = %d samples, want ring size 25", e.History().Len())
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"stats.csv", "perf.csv", "history.csv", "positions.txt", "history.png", "kernel.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestSnapshotRestoreReplays(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	run := func(n int) {
		for i := 0; i < n; i++ {
			if err := e.Step(); err != nil {
				t.Fatal(err)
			}
		}
	}

	run(10)
	snap := e.Snapshot()
	run(10)
	want := e.Fluid().Positions()

	if err := e.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if e.StepCount() != 10 {
		t.Errorf("step after restore = %d, want 10", e.StepCount())
	}
	run(10)

	got := e.Fluid().Positions()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("particle %d: replay %v, original %v", i, got[i], want[i])
		}
	}
}

func TestRestoreRejectsSecondFluid(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	snap := e.Snapshot()
	walls := len(e.Walls())

	for _, st := range snap.Sets {
		if !st.Boundary {
			snap.Sets = append(snap.Sets, st)
			break
		}
	}
	if err := e.Restore(snap); !errors.Is(err, telemetry.ErrSnapshotMismatch) {
		t.Fatalf("err = %v, want ErrSnapshotMismatch", err)
	}
	if e.StepCount() != 1 || len(e.Walls()) != walls {
		t.Errorf("failed restore changed state: step %d, %d walls", e.StepCount(), len(e.Walls()))
	}
}

func TestKernelProfile(t *testing.T) {
	e := newExperiment(t, defaultParams(t), Options{})
	profile, err := e.KernelProfile(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.X) != 50 || profile.X[0] != -7.5 {
		t.Errorf("profile spans %d samples from %v", len(profile.X), profile.X[0])
	}
}
