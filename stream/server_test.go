package stream

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/renderer"
)

func testSets(t *testing.T) []*particles.Set {
	t.Helper()
	fluid, err := particles.NewSet(2, 2, 1, 1000, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	wall, err := particles.NewSet(3, 1, 1, 1000, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	wall.TranslateAll(0, -1)
	wall.MarkBoundary()
	return []*particles.Set{fluid, wall}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, s.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewFrame(t *testing.T) {
	sets := testSets(t)
	f := NewFrame(12, 0.12, sets, renderer.ChannelNone)

	if f.Step != 12 || f.Time != 0.12 || f.Channel != "none" {
		t.Errorf("header = %d %v %q", f.Step, f.Time, f.Channel)
	}
	if len(f.Sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(f.Sets))
	}
	if f.Sets[0].Boundary || !f.Sets[1].Boundary {
		t.Errorf("boundary flags = %v %v", f.Sets[0].Boundary, f.Sets[1].Boundary)
	}
	if len(f.Sets[0].Vertices) != 4*6 || len(f.Sets[1].Vertices) != 3*6 {
		t.Errorf("vertex lengths = %d %d", len(f.Sets[0].Vertices), len(f.Sets[1].Vertices))
	}

	// Frames do not follow later changes to the sets.
	sets[0].TranslateAll(100, 0)
	if f.Sets[0].Vertices[0] != 0 {
		t.Errorf("frame changed with the set: x = %v", f.Sets[0].Vertices[0])
	}
}

func TestLatestFrameOnConnect(t *testing.T) {
	s := NewServer(2)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Close()

	if err := s.Publish(NewFrame(1, 0.01, testSets(t), renderer.ChannelNone)); err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv)
	if f := readFrame(t, conn); f.Step != 1 {
		t.Errorf("first frame step = %d, want 1", f.Step)
	}

	waitClients(t, s, 1)
	if err := s.Publish(NewFrame(2, 0.02, testSets(t), renderer.ChannelSpeed)); err != nil {
		t.Fatal(err)
	}
	f := readFrame(t, conn)
	if f.Step != 2 || f.Channel != "speed" {
		t.Errorf("second frame = step %d channel %q", f.Step, f.Channel)
	}
	if s.Published() != 2 {
		t.Errorf("published = %d, want 2", s.Published())
	}
}

func TestClientDisconnect(t *testing.T) {
	s := NewServer(2)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Close()

	conn := dial(t, srv)
	waitClients(t, s, 1)
	conn.Close()
	waitClients(t, s, 0)
}

func TestSlowClientDropsFrames(t *testing.T) {
	s := NewServer(1)
	c := &client{send: make(chan []byte, 1)}
	s.clients[c] = struct{}{}

	f := NewFrame(0, 0, nil, renderer.ChannelNone)
	for i := 0; i < 3; i++ {
		if err := s.Publish(f); err != nil {
			t.Fatal(err)
		}
	}
	if s.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", s.Dropped())
	}
	if len(c.send) != 1 {
		t.Errorf("queued = %d, want 1", len(c.send))
	}
}

func TestFrameEndpoint(t *testing.T) {
	s := NewServer(1)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before first frame = %d", resp.StatusCode)
	}

	s.Publish(NewFrame(7, 0.07, testSets(t), renderer.ChannelNone))
	resp, err = http.Get(srv.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var f Frame
	if err := json.Unmarshal(body, &f); err != nil || f.Step != 7 {
		t.Errorf("frame endpoint returned step %d, err %v", f.Step, err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	s := NewServer(1)
	s.Close()
	err := s.Publish(NewFrame(0, 0, nil, renderer.ChannelNone))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
