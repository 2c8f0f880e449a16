// README: WebSocket hub: fleet snapshot broadcast to all observers plus
// per-user notification push.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/registry"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

const clientSendBuffer = 32

type client struct {
	conn   *websocket.Conn
	send   chan any
	userID types.ID
	role   string
}

// Hub tracks every live connection. Fleet snapshots go to all clients (no
// per-topic filtering; observers filter client-side); notification pushes go
// only to the recipient's connections.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
	byUser  map[types.ID]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		byUser:  make(map[types.ID]map[*client]bool),
	}
}

// BroadcastSnapshot fans the full registry snapshot out to every connected
// client. Sends never block: a slow client drops the frame and catches up on
// the next snapshot.
func (h *Hub) BroadcastSnapshot(trucks []registry.TruckInfo) {
	msg := map[string]any{"event": "fleet:snapshot", "trucks": trucks}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.offer(c, msg)
	}
}

// Push delivers a payload to every live connection of one user. At most one
// attempt per connection, no retry; the durable inbox is the fallback.
func (h *Hub) Push(userID types.ID, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.byUser[userID] {
		h.offer(c, payload)
	}
}

func (h *Hub) offer(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		logrus.WithFields(logrus.Fields{
			"user_id": c.userID,
			"role":    c.role,
		}).Warn("client send buffer full, dropping frame")
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	if _, ok := h.byUser[c.userID]; !ok {
		h.byUser[c.userID] = make(map[*client]bool)
	}
	h.byUser[c.userID][c] = true
	logrus.WithFields(logrus.Fields{"user_id": c.userID, "role": c.role}).Info("websocket client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	if conns, ok := h.byUser[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	close(c.send)
	logrus.WithFields(logrus.Fields{"user_id": c.userID, "role": c.role}).Info("websocket client disconnected")
}

// writePump drains the client's send channel onto the socket. One writer per
// connection keeps gorilla's single-writer requirement.
func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			logrus.WithError(err).WithField("user_id", c.userID).Debug("websocket write failed")
			return
		}
	}
}
