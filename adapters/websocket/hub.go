package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/utils/log"
)

// Hub tracks the WebSocket clients with a stream in flight so they can be
// closed together when the server shuts down.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a client. It reports false once the hub is closed, in which
// case the caller should drop the connection.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client] = struct{}{}
	log.WithCtx(client.ctx).Debug("WebSocket client registered", zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		log.WithCtx(client.ctx).Debug("WebSocket client unregistered", zap.Int("clients", len(h.clients)))
	}
}

// CloseAll sends a going-away close to every registered client. The relay
// for each one then ends as aborted.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	clear(h.clients)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.closeWith(websocket.CloseGoingAway)
	}
	if len(clients) > 0 {
		log.With(zap.Int("clients", len(clients))).Info("Closed WebSocket streams")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
