package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second

	// DefaultClientBuffer is the number of frames queued per client before
	// new frames are dropped for that client.
	DefaultClientBuffer = 4
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("stream server closed")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server fans frames out to websocket clients. Publish never blocks on a
// slow client; frames that do not fit in its queue are dropped.
type Server struct {
	upgrader websocket.Upgrader
	buffer   int

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewServer creates a server that queues up to buffer frames per client.
func NewServer(buffer int) *Server {
	if buffer < 1 {
		buffer = DefaultClientBuffer
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		buffer:  buffer,
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes: /ws for the frame stream and /frame for
// the latest frame as JSON.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/frame", s.serveFrame)
	return mux
}

// Publish encodes f once and queues it for every client.
func (s *Server) Publish(f *Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding frame %d: %w", f.Step, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.latest = data
	s.published.Add(1)
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Published returns the number of frames published.
func (s *Server) Published() uint64 {
	return s.published.Load()
}

// Dropped returns the number of per-client frame deliveries skipped because
// the client's queue was full.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("stream listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close disconnects every client. Later Publish calls fail with ErrClosed.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		s.removeLocked(c)
	}
}

func (s *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data := s.latest
	s.mu.Unlock()

	if data == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		}
		return
	}

	c := &client{conn: conn, send: make(chan []byte, s.buffer)}
	if !s.add(c) {
		conn.Close()
		return
	}
	slog.Info("stream client connected", "remote", r.RemoteAddr)

	go s.writePump(c)
	s.readPump(c)
}

// add registers c and queues the latest frame for it.
func (s *Server) add(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	if s.latest != nil {
		c.send <- s.latest
	}
	return true
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(c)
}

func (s *Server) removeLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
}

// readPump discards client messages and detects disconnects.
func (s *Server) readPump(c *client) {
	defer func() {
		s.remove(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("stream client read failed", "error", err)
			}
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}
