package stream

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pthm-cable/sph2d/experiment"
	"github.com/pthm-cable/sph2d/renderer"
)

// FrameSink receives captured frames.
type FrameSink interface {
	Publish(f *Frame) error
}

// Publisher captures frames from an experiment at a bounded rate.
type Publisher struct {
	sink     FrameSink
	interval time.Duration
	now      func() time.Time

	last     time.Time
	lastStep int
	sent     bool
}

// NewPublisher sends at most frameRate frames per second to sink.
// A frameRate of 0 or less sends a frame on every call.
func NewPublisher(sink FrameSink, frameRate int) *Publisher {
	p := &Publisher{sink: sink, now: time.Now}
	if frameRate > 0 {
		p.interval = time.Second / time.Duration(frameRate)
	}
	return p
}

// Maybe publishes the current scene when the interval has passed and the
// experiment has moved since the last frame. It reports whether a frame was sent.
func (p *Publisher) Maybe(e *experiment.Experiment, ch renderer.Channel) bool {
	if p == nil || p.sink == nil {
		return false
	}
	now := p.now()
	if p.sent && e.StepCount() == p.lastStep {
		return false
	}
	if p.sent && now.Sub(p.last) < p.interval {
		return false
	}

	f := NewFrame(e.StepCount(), e.Time(), e.Sets(), ch)
	if err := p.sink.Publish(f); err != nil {
		if !errors.Is(err, ErrClosed) {
			slog.Warn("frame publish failed", "step", f.Step, "error", err)
		}
		return false
	}
	p.last = now
	p.lastStep = f.Step
	p.sent = true
	return true
}
