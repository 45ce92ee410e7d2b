// Package notify fans friend activity out to connected websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Conn is the subset of *websocket.Conn the hub needs; tests substitute fakes.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Hub tracks the open notification sockets per user. A user may hold several
// connections (multiple tabs); all of them receive each event.
type Hub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: map[uuid.UUID]map[Conn]struct{}{},
	}
}

// Register adds a connection for the user and returns an unregister func.
func (h *Hub) Register(userID uuid.UUID, c Conn) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = map[Conn]struct{}{}
		h.conns[userID] = set
	}
	set[c] = struct{}{}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// Publish sends the payload, JSON-encoded, to every connection the user has
// open. Connections that fail to write are closed and dropped.
func (h *Hub) Publish(userID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	targets := make([]Conn, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.Close(websocket.StatusAbnormalClosure, "write failed")
			h.mu.Lock()
			if set, ok := h.conns[userID]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(h.conns, userID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ConnectionCount reports how many sockets the user currently has open.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
