// README: Notification inbox handlers (owner-only).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type NotificationHandler struct {
	notify *notify.Service
}

func NewNotificationHandler(svc *notify.Service) *NotificationHandler {
	return &NotificationHandler{notify: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notify.ListFor(c.Request.Context(), callerID(c))
	if err != nil {
		writeNotifyError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing notification id")
		return
	}
	if err := h.notify.MarkRead(c.Request.Context(), id, callerID(c)); err != nil {
		writeNotifyError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "read"})
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing notification id")
		return
	}
	if err := h.notify.Dismiss(c.Request.Context(), id, callerID(c)); err != nil {
		writeNotifyError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "dismissed"})
}
