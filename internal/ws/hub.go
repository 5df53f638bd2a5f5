package ws

import (
	"context"
	"sync"

	"boostd/internal/logger"
)

// Hub keeps the live clients of this instance, one per user and boost.
type Hub struct {
	open OpenFunc

	mu      sync.Mutex
	clients map[string]*Client
}

func NewHub(open OpenFunc) *Hub {
	return &Hub{
		open:    open,
		clients: make(map[string]*Client),
	}
}

func clientKey(c *Client) string {
	return c.User.ID + ":" + c.BoostID
}

// Attach opens a session for c. An earlier connection of the same user to
// the same boost is dropped first so its session lock is freed.
func (h *Hub) Attach(ctx context.Context, c *Client) (Session, error) {
	key := clientKey(c)

	h.mu.Lock()
	prev := h.clients[key]
	h.clients[key] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		logger.Info("ws reconnect, dropping previous connection", "user_id", c.User.ID, "boost_id", c.BoostID)
		prev.kick()
	}

	sess, err := h.open(ctx, c.User, c.BoostID, c)
	if err != nil {
		h.remove(key, c)
		return nil, err
	}
	return sess, nil
}

// Detach closes c's session and forgets the client.
func (h *Hub) Detach(c *Client) {
	if s := c.currentSession(); s != nil {
		s.Close()
	}
	h.remove(clientKey(c), c)
}

func (h *Hub) remove(key string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == c {
		delete(h.clients, key)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown drops every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.kick()
	}
}
