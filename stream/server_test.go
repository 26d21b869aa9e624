package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/game"
)

type recordingSink struct {
	mu     sync.Mutex
	target *r2.Vec
	clears int
}

func (r *recordingSink) SetTarget(p r2.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = &p
}

func (r *recordingSink) ClearTarget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = nil
	r.clears++
}

func (r *recordingSink) state() (*r2.Vec, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.clears
}

// frame mirrors the fields of game.FrameView the tests look at.
type frame struct {
	Tick      int64   `json:"tick"`
	Time      float64 `json:"time"`
	Creatures []struct {
		Kind  string `json:"kind"`
		State string `json:"state"`
	} `json:"creatures"`
}

func startServer(t *testing.T, cfg config.StreamConfig, sink TargetSink) (*Server, string) {
	t.Helper()
	s := New(cfg, sink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.broadcast(ctx)
		close(done)
	}()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		s.closeClients()
		ts.Close()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, s *Server, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return s.ClientCount() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestPublishThrottlesBySimTime(t *testing.T) {
	s := New(config.StreamConfig{FrameInterval: 0.05, QueueSize: 8}, &recordingSink{})

	assert.True(t, s.Publish(game.FrameView{Tick: 1, Time: 0}))
	assert.False(t, s.Publish(game.FrameView{Tick: 2, Time: 0.01}))
	assert.True(t, s.Publish(game.FrameView{Tick: 3, Time: 0.05}))
	assert.False(t, s.Publish(game.FrameView{Tick: 4, Time: 0.06}))
	assert.Len(t, s.frames, 2)
}

func TestPublishNeverBlocks(t *testing.T) {
	s := New(config.StreamConfig{QueueSize: 0}, &recordingSink{})

	assert.True(t, s.Publish(game.FrameView{Tick: 1, Time: 1}))
	assert.False(t, s.Publish(game.FrameView{Tick: 2, Time: 2}), "queue of one is full")
}

func TestStreamsFramesToViewers(t *testing.T) {
	s, url := startServer(t, config.StreamConfig{QueueSize: 4}, &recordingSink{})
	a := dial(t, s, url, 1)
	b := dial(t, s, url, 2)

	cfg, err := config.Load("")
	require.NoError(t, err)
	g, err := game.New(cfg, game.Options{Seed: 5})
	require.NoError(t, err)
	g.Step(cfg.Physics.DT)
	require.True(t, s.Publish(g.View()))

	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		assert.Equal(t, int64(1), f.Tick)
		require.Len(t, f.Creatures, cfg.Snake.Count+cfg.Plankton.Count)
		assert.Equal(t, "snake", f.Creatures[0].Kind)
		assert.NotEmpty(t, f.Creatures[0].State)
	}
}

func TestLateViewerGetsLatestFrame(t *testing.T) {
	s, url := startServer(t, config.StreamConfig{QueueSize: 4}, &recordingSink{})
	require.True(t, s.Publish(game.FrameView{Tick: 42, Time: 0.7}))
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.latest != nil
	}, time.Second, 5*time.Millisecond)

	conn := dial(t, s, url, 1)
	assert.Equal(t, int64(42), readFrame(t, conn).Tick)
}

func TestTargetMessages(t *testing.T) {
	sink := &recordingSink{}
	s, url := startServer(t, config.StreamConfig{QueueSize: 4}, sink)
	conn := dial(t, s, url, 1)

	require.NoError(t, conn.WriteJSON(Message{Type: MsgTarget, X: 1.5, Y: -2}))
	require.Eventually(t, func() bool {
		p, _ := sink.state()
		return p != nil
	}, time.Second, 5*time.Millisecond)
	p, _ := sink.state()
	assert.Equal(t, r2.Vec{X: 1.5, Y: -2}, *p)

	// Garbage and unknown types are ignored without dropping the viewer.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Message{Type: "spawn"}))
	require.NoError(t, conn.WriteJSON(Message{Type: MsgClearTarget}))
	require.Eventually(t, func() bool {
		_, clears := sink.state()
		return clears == 1
	}, time.Second, 5*time.Millisecond)
	p, _ = sink.state()
	assert.Nil(t, p)
	assert.Equal(t, 1, s.ClientCount())
}

func TestTargetReachesGame(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	g, err := game.New(cfg, game.Options{Seed: 1, SkipPopulation: true})
	require.NoError(t, err)

	s, url := startServer(t, cfg.Stream, g)
	conn := dial(t, s, url, 1)
	require.NoError(t, conn.WriteJSON(Message{Type: MsgTarget, X: 3, Y: 4}))

	require.Eventually(t, func() bool {
		g.Step(cfg.Physics.DT)
		return g.Context().HasTarget
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, r2.Vec{X: 3, Y: 4}, g.Context().Target)
}

func TestDisconnectUnregisters(t *testing.T) {
	s, url := startServer(t, config.StreamConfig{QueueSize: 4}, &recordingSink{})
	conn := dial(t, s, url, 1)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Publish(game.FrameView{Tick: 1}))
}
