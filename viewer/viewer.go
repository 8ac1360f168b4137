// Package viewer is the interactive raylib front end of an experiment.
package viewer

import (
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/camera"
	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/experiment"
	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/renderer"
	"github.com/pthm-cable/sph2d/stream"
	"github.com/pthm-cable/sph2d/telemetry"
	"github.com/pthm-cable/sph2d/ui"
)

// Panel layout
const (
	sidePanelWidth = 300
	statsWidth     = 280
	graphHeight    = 170
	pickRadius     = 0.6 // Fraction of the fluid spacing
	statusDuration = 3 * time.Second
)

// Options configures a Viewer.
type Options struct {
	SnapshotDir string            // F5 writes snapshots here
	Publisher   *stream.Publisher // Nil disables frame streaming
}

// Viewer holds the window state around a running experiment.
type Viewer struct {
	exp  *experiment.Experiment
	cfg  *config.Config
	opts Options

	// Rendering
	cam       *camera.Camera
	particles *ParticleRenderer

	// UI
	overlays      *ui.OverlayRegistry
	hud           *ui.HUD
	controls      *ui.ControlsPanel
	statsPanel    *ui.StatsPanel
	perfPanel     *ui.PerfPanel
	helpPanel     *ui.HelpPanel
	inspector     *ui.Inspector
	historyGraph  *ui.Graph
	distanceGraph *ui.Graph
	historyField  telemetry.Field

	// Selection
	selected     particles.Ref
	hasSelection bool

	// Latest stats window
	lastStats telemetry.WindowStats
	hasStats  bool

	// Actions from the previous frame's controls panel
	pending ui.ControlsResult

	status      string
	statusUntil time.Time

	screenWidth, screenHeight float32
}

// New creates a viewer for exp. The raylib window must already be open.
func New(exp *experiment.Experiment, cfg *config.Config, opts Options) (*Viewer, error) {
	ch, err := renderer.ParseChannel(cfg.Render.ColorBy)
	if err != nil {
		return nil, err
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = "snapshots"
	}

	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	v := &Viewer{
		exp:           exp,
		cfg:           cfg,
		opts:          opts,
		cam:           camera.New(w, h),
		particles:     NewParticleRenderer(ch, cfg.Render.ParticleRadius),
		overlays:      ui.NewOverlayRegistry(),
		hud:           ui.NewHUD(),
		controls:      ui.NewControlsPanel(int32(w)-sidePanelWidth-10, 10, sidePanelWidth),
		statsPanel:    ui.NewStatsPanel(10, 100, statsWidth),
		perfPanel:     ui.NewPerfPanel(10, 100),
		helpPanel:     ui.NewHelpPanel(int32(w)-2*sidePanelWidth-20, 10, sidePanelWidth),
		inspector:     ui.NewInspector(10, 100, statsWidth),
		historyGraph:  ui.NewGraph("Tracked particles"),
		distanceGraph: ui.NewGraph("Max distance from start"),
		historyField:  telemetry.FieldDensity,
		screenWidth:   w,
		screenHeight:  h,
	}
	v.controls.Sync(exp.Params())
	v.fitCamera()
	exp.SetStatsCallback(v.recordStats)
	return v, nil
}

// Update handles input and advances the experiment.
func (v *Viewer) Update() error {
	v.handleInput()
	if err := v.applyControls(); err != nil {
		return err
	}
	if err := v.exp.Update(); err != nil {
		return err
	}
	v.exp.Perf().RecordFrame()
	v.opts.Publisher.Maybe(v.exp, v.particles.Channel)
	return nil
}

// Unload releases viewer resources.
func (v *Viewer) Unload() {
	v.exp.SetStatsCallback(nil)
}

func (v *Viewer) recordStats(s telemetry.WindowStats) {
	v.lastStats = s
	v.hasStats = true
}

// fitCamera frames the whole scene.
func (v *Viewer) fitCamera() {
	lo, hi := v.exp.Bounds()
	v.cam.Fit(lo, hi, v.cfg.Render.Margin)
}

// applyControls runs the actions the controls panel reported last frame.
func (v *Viewer) applyControls() error {
	res := v.pending
	v.pending = ui.ControlsResult{}

	if res.TogglePause {
		v.exp.TogglePause()
	}
	if res.TimingChanged {
		if err := v.exp.SetTiming(res.DT, res.StepsPerUpdate); err != nil {
			v.notify(err.Error())
		}
	}
	if res.Reset {
		v.reset(res.Params)
	}
	if res.Step {
		return v.stepOnce()
	}
	return nil
}

// stepOnce pauses the experiment and advances it by exactly one step.
func (v *Viewer) stepOnce() error {
	v.exp.SetPaused(true)
	return v.exp.Step()
}

// reset rebuilds the scene. On failure the old scene keeps running.
func (v *Viewer) reset(p experiment.Params) {
	if err := v.exp.Reset(p); err != nil {
		slog.Warn("reset rejected", "error", err)
		v.notify(err.Error())
		return
	}
	v.controls.Sync(v.exp.Params())
	v.hasSelection = false
	v.hasStats = false
	v.fitCamera()
	v.notify(fmt.Sprintf("reset: %d fluid particles", v.exp.Fluid().Len()))
}

// saveSnapshot writes the current state to the snapshot directory.
func (v *Viewer) saveSnapshot() {
	path, err := telemetry.SaveSnapshot(v.exp.Snapshot(), v.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		v.notify(err.Error())
		return
	}
	slog.Info("snapshot saved", "path", path, "step", v.exp.StepCount())
	v.notify("saved " + path)
}

// notify shows a short message in the HUD.
func (v *Viewer) notify(msg string) {
	v.status = msg
	v.statusUntil = time.Now().Add(statusDuration)
}

// boundaryCount returns the number of wall particles.
func (v *Viewer) boundaryCount() int {
	n := 0
	for _, w := range v.exp.Walls() {
		n += w.Len()
	}
	return n
}
