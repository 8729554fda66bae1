package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/orchestrator"
)

// Hub fans orchestrator events out to every connected watcher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// Snapshot, when set, is sent to each watcher right after it connects.
	Snapshot func() any
	log      *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     logger.Component("ws"),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("watcher connected", "watchers", n)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("watcher disconnected", "watchers", n)
}

// Count returns the number of connected watchers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements orchestrator.Observer. It never blocks: a watcher whose
// buffer is full is dropped.
func (h *Hub) Publish(e orchestrator.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.Error("failed to encode event", "type", e.Type, "error", err)
		return
	}
	h.broadcast(msg)
}

func (h *Hub) broadcast(msg []byte) {
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow watcher")
		h.unregister(c)
	}
}
