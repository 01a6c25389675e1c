package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a foreground notification or sync event pushed to a user's
// connected tabs. Tag lets the client replace a prior undismissed
// notification of the same category; AutoCloseMS is the auto-dismiss timer
// for ephemeral categories.
type Message struct {
	Type               string `json:"type"`
	Title              string `json:"title,omitempty"`
	Body               string `json:"body,omitempty"`
	URL                string `json:"url,omitempty"`
	Tag                string `json:"tag,omitempty"`
	RequireInteraction bool   `json:"require_interaction,omitempty"`
	AutoCloseMS        int    `json:"auto_close_ms,omitempty"`
}

// Hub tracks connected clients per user and routes messages to them.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	onConnect func(userID int64)
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// OnConnect registers a callback invoked each time a user's tab connects.
// The reminder scheduler uses it to re-arm timers when a client regains
// the foreground.
func (h *Hub) OnConnect(fn func(userID int64)) {
	h.mu.Lock()
	h.onConnect = fn
	h.mu.Unlock()
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	fn := h.onConnect
	h.mu.Unlock()

	if fn != nil {
		fn(c.userID)
	}
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// SendToUser delivers a message to every connected tab of one user.
// Returns true if at least one tab accepted it.
func (h *Hub) SendToUser(userID int64, msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal message", "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		select {
		case c.send <- data:
			delivered = true
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
	return delivered
}

// UserConnected reports whether the user has at least one open tab.
func (h *Hub) UserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.userID == userID {
			return true
		}
	}
	return false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
