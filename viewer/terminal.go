package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/sph2d/camera"
	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/experiment"
	"github.com/pthm-cable/sph2d/renderer"
	"github.com/pthm-cable/sph2d/stream"
)

// Terminal drives an experiment inside a tcell screen.
type Terminal struct {
	screen tcell.Screen
	exp    *experiment.Experiment
	cfg    *config.Config
	cam    *camera.Camera
	render *renderer.TerminalRenderer
	pub    *stream.Publisher

	MaxSteps int // Stop after this many steps, 0 = unlimited
}

// NewTerminal prepares a terminal view of exp on an initialised screen.
func NewTerminal(screen tcell.Screen, exp *experiment.Experiment, cfg *config.Config, pub *stream.Publisher) (*Terminal, error) {
	ch, err := renderer.ParseChannel(cfg.Render.ColorBy)
	if err != nil {
		return nil, err
	}
	cols, rows := screen.Size()
	w, h := renderer.Viewport(cols, rows)
	t := &Terminal{
		screen: screen,
		exp:    exp,
		cfg:    cfg,
		cam:    camera.New(w, h),
		render: renderer.NewTerminalRenderer(ch),
		pub:    pub,
	}
	t.fit()
	return t, nil
}

// RunTerminal opens the controlling terminal and runs exp until the user
// quits or ctx is cancelled.
func RunTerminal(ctx context.Context, exp *experiment.Experiment, cfg *config.Config, pub *stream.Publisher, maxSteps int) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising screen: %w", err)
	}
	defer screen.Fini()

	t, err := NewTerminal(screen, exp, cfg, pub)
	if err != nil {
		return err
	}
	t.MaxSteps = maxSteps
	return t.Run(ctx)
}

// Run polls input and advances the experiment once per frame.
func (t *Terminal) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 16)
	go t.pollEvents(events, done)

	fps := t.cfg.Screen.TargetFPS
	if fps < 1 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	t.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if t.HandleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				t.screen.Sync()
				t.resize()
			}
			t.Draw()
		case <-ticker.C:
			if err := t.exp.Update(); err != nil {
				return err
			}
			t.exp.Perf().RecordFrame()
			t.pub.Maybe(t.exp, t.render.Channel)
			t.Draw()
			if t.MaxSteps > 0 && t.exp.StepCount() >= t.MaxSteps {
				slog.Info("max steps reached", "step", t.exp.StepCount())
				return nil
			}
		}
	}
}

// pollEvents forwards screen events until the screen is finalised or done
// is closed.
func (t *Terminal) pollEvents(events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// HandleKey applies a key press and reports whether the user asked to quit.
func (t *Terminal) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyEnter:
		t.exp.SetPaused(true)
		if err := t.exp.Step(); err != nil {
			slog.Error("step failed", "error", err)
		}
	case tcell.KeyHome:
		t.cam.Reset()
	case tcell.KeyLeft:
		t.cam.Pan(-2, 0)
	case tcell.KeyRight:
		t.cam.Pan(2, 0)
	case tcell.KeyUp:
		t.cam.Pan(0, -2)
	case tcell.KeyDown:
		t.cam.Pan(0, 2)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			t.exp.TogglePause()
		case 'c':
			t.render.Channel = t.render.Channel.Next()
		case 'r':
			if err := t.exp.Reset(t.exp.Params()); err != nil {
				slog.Error("reset failed", "error", err)
				return false
			}
			t.fit()
		case '+', '=':
			t.cam.ZoomBy(1.25)
		case '-':
			t.cam.ZoomBy(0.8)
		}
	}
	return false
}

// Draw renders the scene and the status line.
func (t *Terminal) Draw() {
	t.render.Draw(t.screen, t.cam, t.exp.Sets(), t.status())
}

func (t *Terminal) status() string {
	state := "running"
	if t.exp.Paused() {
		state = "paused"
	}
	return fmt.Sprintf(" %s | step %d | t %.4f | dt %.2e | %s | space pause, enter step, r reset, c color, q quit",
		state, t.exp.StepCount(), t.exp.Time(), t.exp.LastDT(), t.render.Channel)
}

func (t *Terminal) fit() {
	lo, hi := t.exp.Bounds()
	t.cam.Fit(lo, hi, t.cfg.Render.Margin)
}

func (t *Terminal) resize() {
	cols, rows := t.screen.Size()
	w, h := renderer.Viewport(cols, rows)
	t.cam.Resize(w, h)
}
