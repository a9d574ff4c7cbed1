// Package stream broadcasts simulation frames to websocket clients.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/creatures/components"
	"github.com/pthm-cable/creatures/sim"
)

// ConfigMessage is sent to each client on connect.
type ConfigMessage struct {
	Type   string  `json:"type"`
	Width  float32 `json:"w"`
	Height float32 `json:"h"`
}

// FrameMessage carries creature positions for one frame.
type FrameMessage struct {
	Type       string       `json:"type"`
	Generation int          `json:"generation"`
	Tick       int          `json:"tick"`
	Terminal   bool         `json:"terminal"`
	Positions  [][2]float32 `json:"positions"`
	Survivors  []bool       `json:"survivors,omitempty"`
}

// GenerationMessage summarizes a finished generation.
type GenerationMessage struct {
	Type       string  `json:"type"`
	Generation int     `json:"generation"`
	Outcome    string  `json:"outcome"`
	Population int     `json:"population"`
	Survivors  int     `json:"survivors"`
	Rate       float64 `json:"survival_rate"`
	Reseeded   bool    `json:"reseeded"`
}

// NewFrameMessage converts a frame to its wire form.
func NewFrameMessage(f sim.Frame) FrameMessage {
	pts := make([][2]float32, len(f.Positions))
	for i, p := range f.Positions {
		pts[i] = [2]float32{p.X, p.Y}
	}
	return FrameMessage{
		Type:       "frame",
		Generation: f.Generation,
		Tick:       f.Tick,
		Terminal:   f.Terminal,
		Positions:  pts,
		Survivors:  f.SurvivorMask,
	}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

const (
	writeTimeout = 5 * time.Second
	queueSize    = 64
)

// Hub fans simulation events out to every connected client.
// It implements sim.Observer and sim.FrameObserver; events are queued and
// dropped when the queue is full so a slow client never stalls the run.
type Hub struct {
	bounds   components.Bounds
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	queue   chan any
	dropped int
}

// NewHub creates a hub for a world of the given bounds.
func NewHub(bounds components.Bounds, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		bounds:   bounds,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
		clients:  make(map[*client]struct{}),
		queue:    make(chan any, queueSize),
	}
}

// ObserveFrame queues a frame for broadcast.
func (h *Hub) ObserveFrame(f sim.Frame) {
	h.enqueue(NewFrameMessage(f))
}

// ObserveGeneration queues a generation summary for broadcast.
func (h *Hub) ObserveGeneration(r sim.GenerationReport) error {
	h.enqueue(GenerationMessage{
		Type:       "generation",
		Generation: r.Generation,
		Outcome:    r.Outcome.String(),
		Population: len(r.Population),
		Survivors:  r.Survivors,
		Rate:       r.SurvivalRate(),
		Reseeded:   r.Reseeded,
	})
	return nil
}

func (h *Hub) enqueue(msg any) {
	select {
	case h.queue <- msg:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run broadcasts queued events until ctx is done.
// Events already queued when ctx ends are still delivered before clients are closed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.drain()
			h.closeAll()
			return
		case msg := <-h.queue:
			h.Broadcast(msg)
		}
	}
}

func (h *Hub) drain() {
	for {
		select {
		case msg := <-h.queue:
			h.Broadcast(msg)
		default:
			return
		}
	}
}

// Broadcast sends v to every client, dropping clients that fail.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		if err := c.send(v); err != nil {
			h.logger.Warn("client send error", "error", err)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	list := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range list {
		c.conn.Close()
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade", "error", err)
		return
	}
	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if err := c.send(ConfigMessage{Type: "config", Width: h.bounds.Width, Height: h.bounds.Height}); err != nil {
		h.remove(c)
		return
	}

	// Clients only send pings; reading detects disconnects.
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if t, _ := msg["type"].(string); t == "ping" {
			_ = c.send(map[string]string{"type": "pong"})
		}
	}
	h.remove(c)
}

// Serve listens on addr and serves the hub at /ws until ctx is done.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux}
	h.logger.Info("stream server started", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
