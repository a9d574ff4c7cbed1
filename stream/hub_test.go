package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestHubBroadcastsFrames(t *testing.T) {
	hub := NewHub(components.Bounds{Width: 128, Height: 64}, quiet)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn := dial(t, srv)

	var cfg ConfigMessage
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Type != "config" || cfg.Width != 128 || cfg.Height != 64 {
		t.Errorf("config message = %+v", cfg)
	}

	hub.ObserveFrame(sim.Frame{
		Generation:   4,
		Tick:         1000,
		Terminal:     true,
		Positions:    []components.Position{{X: 1, Y: 2}, {X: 3, Y: 4}},
		SurvivorMask: []bool{true, false},
	})

	var frame FrameMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Type != "frame" || frame.Generation != 4 || len(frame.Positions) != 2 {
		t.Fatalf("frame message = %+v", frame)
	}
	if frame.Positions[1] != [2]float32{3, 4} || !frame.Survivors[0] || frame.Survivors[1] {
		t.Errorf("frame payload = %+v", frame)
	}

	if err := hub.ObserveGeneration(sim.GenerationReport{Generation: 4, Survivors: 1, Population: make([]sim.Creature, 2)}); err != nil {
		t.Fatal(err)
	}
	var gen GenerationMessage
	if err := conn.ReadJSON(&gen); err != nil {
		t.Fatal(err)
	}
	if gen.Type != "generation" || gen.Survivors != 1 || gen.Rate != 0.5 || gen.Outcome != "survived" {
		t.Errorf("generation message = %+v", gen)
	}
}

func TestHubPing(t *testing.T) {
	hub := NewHub(components.Bounds{Width: 1, Height: 1}, quiet)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	var cfg ConfigMessage
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong["type"] != "pong" {
		t.Errorf("reply = %v", pong)
	}
	if hub.Clients() != 1 {
		t.Errorf("clients = %d, want 1", hub.Clients())
	}
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	hub := NewHub(components.Bounds{Width: 1, Height: 1}, quiet)
	// Nothing drains the queue.
	for i := 0; i < queueSize+5; i++ {
		hub.ObserveFrame(sim.Frame{Generation: i})
	}
	if got := hub.Dropped(); got != 5 {
		t.Errorf("dropped = %d, want 5", got)
	}
}

func TestHubDisconnectRemovesClient(t *testing.T) {
	hub := NewHub(components.Bounds{Width: 1, Height: 1}, quiet)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	var cfg ConfigMessage
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 0 {
		t.Errorf("clients = %d after disconnect", hub.Clients())
	}
}

func TestHubDeliversQueuedEventsOnShutdown(t *testing.T) {
	hub := NewHub(components.Bounds{Width: 1, Height: 1}, quiet)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	var cfg ConfigMessage
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatal(err)
	}

	hub.ObserveFrame(sim.Frame{Generation: 9, Terminal: true})
	if err := hub.ObserveGeneration(sim.GenerationReport{Generation: 9}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	var frame FrameMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("final frame not delivered: %v", err)
	}
	if frame.Type != "frame" || frame.Generation != 9 {
		t.Errorf("frame message = %+v", frame)
	}
	var gen GenerationMessage
	if err := conn.ReadJSON(&gen); err != nil {
		t.Fatalf("final generation not delivered: %v", err)
	}
	if gen.Type != "generation" || gen.Generation != 9 {
		t.Errorf("generation message = %+v", gen)
	}
	if hub.Clients() != 0 {
		t.Errorf("clients = %d after shutdown", hub.Clients())
	}
}
