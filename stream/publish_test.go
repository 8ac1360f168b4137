package stream

import (
	"testing"
	"time"

	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/experiment"
	"github.com/pthm-cable/sph2d/renderer"
)

type recordingSink struct {
	frames []*Frame
}

func (s *recordingSink) Publish(f *Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

func newTestExperiment(t *testing.T) *experiment.Experiment {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	e, err := experiment.New(experiment.ParamsFromConfig(cfg), experiment.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestPublisherThrottles(t *testing.T) {
	e := newTestExperiment(t)
	sink := &recordingSink{}
	p := NewPublisher(sink, 10)

	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	tests := []struct {
		name    string
		advance time.Duration
		step    bool
		want    bool
	}{
		{"first frame", 0, false, true},
		{"same step", 0, false, false},
		{"too soon", 50 * time.Millisecond, true, false},
		{"interval passed", 60 * time.Millisecond, false, true},
		{"next interval", 100 * time.Millisecond, true, true},
	}
	for _, tt := range tests {
		clock = clock.Add(tt.advance)
		if tt.step {
			if err := e.Step(); err != nil {
				t.Fatal(err)
			}
		}
		if got := p.Maybe(e, renderer.ChannelSpeed); got != tt.want {
			t.Errorf("%s: Maybe = %v, want %v", tt.name, got, tt.want)
		}
	}

	if len(sink.frames) != 3 {
		t.Fatalf("published %d frames, want 3", len(sink.frames))
	}
	if sink.frames[0].Step != 0 || sink.frames[2].Step != 2 {
		t.Errorf("frame steps = %d, %d", sink.frames[0].Step, sink.frames[2].Step)
	}
	if sink.frames[0].Channel != "speed" {
		t.Errorf("channel = %q", sink.frames[0].Channel)
	}
}

func TestPublisherNil(t *testing.T) {
	var p *Publisher
	if p.Maybe(newTestExperiment(t), renderer.ChannelNone) {
		t.Error("nil publisher should not publish")
	}
}

func TestPublisherClosedServer(t *testing.T) {
	srv := NewServer(1)
	srv.Close()
	p := NewPublisher(srv, 0)
	if p.Maybe(newTestExperiment(t), renderer.ChannelNone) {
		t.Error("publishing to a closed server should report no frame")
	}
}
