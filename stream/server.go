// Package stream serves frames to remote viewers over websockets and feeds
// their target commands back into the simulation.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/game"
)

// Inbound message types.
const (
	MsgTarget      = "target"
	MsgClearTarget = "clear_target"
)

const (
	readLimit       = 4096
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// TargetSink receives target commands. *game.Game implements it.
type TargetSink interface {
	SetTarget(p r2.Vec)
	ClearTarget()
}

// Message is a command sent by a viewer.
type Message struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

// Server broadcasts FrameViews as JSON on /ws.
type Server struct {
	cfg      config.StreamConfig
	sink     TargetSink
	upgrader websocket.Upgrader
	frames   chan game.FrameView

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte

	// Touched only by the publishing goroutine.
	lastTime  float64
	published bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a server. Frames are queued up to cfg.QueueSize, both on the
// server and per viewer; excess frames are dropped.
func New(cfg config.StreamConfig, sink TargetSink) *Server {
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Server{
		cfg:  cfg,
		sink: sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		frames:  make(chan game.FrameView, cfg.QueueSize),
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Publish offers a frame for broadcast. Frames closer than FrameInterval
// of simulated time to the last published one are skipped, and a full
// queue drops the frame. It never blocks. Publish must be called from a
// single goroutine.
func (s *Server) Publish(v game.FrameView) bool {
	if s.published && v.Time-s.lastTime < s.cfg.FrameInterval {
		return false
	}
	select {
	case s.frames <- v:
		s.published, s.lastTime = true, v.Time
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected viewers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run listens on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.broadcast(ctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("stream listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stream server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		s.closeClients()
		return err
	})
	return g.Wait()
}

// broadcast encodes queued frames and fans them out to viewers.
func (s *Server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-s.frames:
			data, err := json.Marshal(v)
			if err != nil {
				slog.Error("failed to encode frame", "tick", v.Tick, "error", err)
				continue
			}
			s.mu.Lock()
			s.latest = data
			for c := range s.clients {
				select {
				case c.send <- data:
				default:
					// slow viewer, drop the frame
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(readLimit)

	c := &client{conn: conn, send: make(chan []byte, s.cfg.QueueSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	if s.latest != nil {
		c.send <- s.latest
	}
	s.mu.Unlock()
	slog.Info("viewer connected", "remote", r.RemoteAddr)

	go s.writeLoop(c)
	s.readLoop(c)
	s.remove(c)
	slog.Info("viewer disconnected", "remote", r.RemoteAddr)
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleMessage(data)
	}
}

func (s *Server) handleMessage(data []byte) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Debug("invalid stream message", "error", err)
		return
	}
	switch m.Type {
	case MsgTarget:
		s.sink.SetTarget(r2.Vec{X: m.X, Y: m.Y})
	case MsgClearTarget:
		s.sink.ClearTarget()
	default:
		slog.Debug("unknown stream message", "type", m.Type)
	}
}

// remove unregisters c and stops its writer. Safe to call twice.
func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}
