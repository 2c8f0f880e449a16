// README: WebSocket endpoint: auth, upgrade, and inbound driver telemetry.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/auth"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/registry"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

// inboundEvent is the driver-to-server message envelope.
type inboundEvent struct {
	Event     string              `json:"event"`
	Truck     *registry.TruckInfo `json:"truck,omitempty"`
	ID        types.ID            `json:"id,omitempty"`
	Available *bool               `json:"available,omitempty"`
}

type Handler struct {
	hub      *Hub
	registry *registry.Registry
	verifier auth.TokenVerifier
}

func NewHandler(hub *Hub, reg *registry.Registry, verifier auth.TokenVerifier) *Handler {
	return &Handler{hub: hub, registry: reg, verifier: verifier}
}

// Serve upgrades the connection. Every authenticated user may observe the
// fleet; only drivers may publish telemetry, and only for themselves.
func (h *Handler) Serve(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, err := h.verifier.Verify(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}

	cl := &client{
		conn:   conn,
		send:   make(chan any, clientSendBuffer),
		userID: types.ID(claims.UserID),
		role:   claims.Role,
	}
	h.hub.register(cl)
	go cl.writePump()

	// New observers get the current picture immediately.
	h.hub.offer(cl, map[string]any{"event": "fleet:snapshot", "trucks": h.registry.Snapshot()})

	defer func() {
		h.hub.unregister(cl)
		conn.Close()
	}()

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", cl.userID).Debug("websocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if cl.role != string(user.RoleDriver) {
			logrus.WithField("user_id", cl.userID).Warn("non-driver client sent a message, ignoring")
			continue
		}
		h.handleDriverEvent(cl, raw)
	}
}

func (h *Handler) handleDriverEvent(cl *client, raw []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.hub.offer(cl, map[string]any{"event": "error", "error": "invalid event payload"})
		return
	}

	switch ev.Event {
	case "truck:register":
		if ev.Truck == nil || !h.ownTruck(cl, ev.Truck.ID) {
			return
		}
		h.registry.Register(ev.Truck.ID, types.Point{Lat: ev.Truck.Lat, Lng: ev.Truck.Lng}, ev.Truck.Plate, ev.Truck.Available)
	case "truck:location":
		if ev.Truck == nil || !h.ownTruck(cl, ev.Truck.ID) {
			return
		}
		h.registry.UpdateLocation(ev.Truck.ID, types.Point{Lat: ev.Truck.Lat, Lng: ev.Truck.Lng})
	case "truck:available":
		if ev.Available == nil || !h.ownTruck(cl, ev.ID) {
			return
		}
		h.registry.SetAvailable(ev.ID, *ev.Available)
	default:
		logrus.WithFields(logrus.Fields{"user_id": cl.userID, "event": ev.Event}).Debug("unknown websocket event")
	}
}

// ownTruck rejects telemetry a driver tries to publish for someone else.
func (h *Handler) ownTruck(cl *client, id types.ID) bool {
	if id == cl.userID {
		return true
	}
	logrus.WithFields(logrus.Fields{
		"authenticated_driver": cl.userID,
		"payload_driver":       id,
	}).Warn("driver attempted to publish telemetry for another driver")
	return false
}
