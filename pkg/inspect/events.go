package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/loom/pkg/runtime"
)

// EventType identifies a scheduler event on the wire.
type EventType string

const (
	EventRender EventType = "render"
	EventCommit EventType = "commit"
	EventDrop   EventType = "drop"
	EventError  EventType = "error"
	EventFrame  EventType = "frame"
)

// Event is sent to inspector clients via WebSocket.
type Event struct {
	Type       EventType `json:"type"`
	Time       time.Time `json:"time"`
	Component  string    `json:"component,omitempty"`
	NodeID     uint64    `json:"node,omitempty"`
	Mount      bool      `json:"mount,omitempty"`
	Deep       bool      `json:"deep,omitempty"`
	DurationMS float64   `json:"durationMs,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	Handled    bool      `json:"handled,omitempty"`
	Pending    int       `json:"pending,omitempty"`
}

// Hub fans scheduler events out to WebSocket clients. It implements
// runtime.Observer: events are queued without blocking the loop and
// written by Run.
type Hub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	outbox   chan Event
	dropped  atomic.Uint64
	logger   *slog.Logger
	now      func() time.Time
}

var _ runtime.Observer = (*Hub)(nil)

// NewHub creates a hub that buffers up to size events.
func NewHub(size int, logger *slog.Logger) *Hub {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local tooling
			},
		},
		outbox: make(chan Event, size),
		logger: logger,
		now:    time.Now,
	}
}

// HandleWebSocket handles WebSocket upgrade and keeps the connection until
// the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Run writes queued events to every client until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.outbox:
			h.broadcast(ev)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many events were discarded because the outbox was
// full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// FiberRendered implements runtime.Observer.
func (h *Hub) FiberRendered(info runtime.RenderInfo) {
	h.publish(Event{
		Type:       EventRender,
		Component:  info.Component,
		NodeID:     info.NodeID,
		Deep:       info.Deep,
		DurationMS: millis(info.Duration),
		Error:      errString(info.Err),
	})
}

// RootCompleted implements runtime.Observer.
func (h *Hub) RootCompleted(info runtime.CommitInfo) {
	h.publish(Event{
		Type:       EventCommit,
		Component:  info.Component,
		NodeID:     info.NodeID,
		Mount:      info.Mount,
		DurationMS: millis(info.Duration),
		Error:      errString(info.Err),
	})
}

// RootDropped implements runtime.Observer.
func (h *Hub) RootDropped(component string, reason runtime.DropReason) {
	h.publish(Event{Type: EventDrop, Component: component, Reason: reason.String()})
}

// ErrorRaised implements runtime.Observer.
func (h *Hub) ErrorRaised(component string, err error, handled bool) {
	h.publish(Event{Type: EventError, Component: component, Error: errString(err), Handled: handled})
}

// Flushed implements runtime.Observer.
func (h *Hub) Flushed(pending int) {
	h.publish(Event{Type: EventFrame, Pending: pending})
}

func (h *Hub) publish(ev Event) {
	ev.Time = h.now()
	select {
	case h.outbox <- ev:
	default:
		h.dropped.Add(1)
	}
}

// broadcast sends an event to all connected clients.
func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()
		}
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
