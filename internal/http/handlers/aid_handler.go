// README: Aid request handlers: create, listings, and status transitions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/dispatch"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type AidHandler struct {
	dispatch *dispatch.Service
	users    *user.Service
}

func NewAidHandler(dispatchSvc *dispatch.Service, users *user.Service) *AidHandler {
	return &AidHandler{dispatch: dispatchSvc, users: users}
}

type createAidReq struct {
	DriverID    string           `json:"driverId"`
	AidType     string           `json:"aidType"`
	Quantity    string           `json:"quantity"`
	Destination string           `json:"destination"`
	Urgency     dispatch.Urgency `json:"urgency"`
}

func (h *AidHandler) Create(c *gin.Context) {
	var req createAidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.dispatch.Create(c.Request.Context(), dispatch.CreateCommand{
		SenderID:    callerID(c),
		DriverID:    types.ID(req.DriverID),
		AidType:     req.AidType,
		Quantity:    req.Quantity,
		Destination: req.Destination,
		Urgency:     req.Urgency,
	})
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *AidHandler) ListAvailable(c *gin.Context) {
	list, err := h.dispatch.ListAvailable(c.Request.Context())
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": list})
}

// senderView enriches a request with driver identity for display. Purely a
// read-model concern.
type senderView struct {
	dispatch.AidRequest
	Driver *user.DriverDisplay `json:"driver,omitempty"`
}

func (h *AidHandler) ListSender(c *gin.Context) {
	list, err := h.dispatch.ListForSender(c.Request.Context(), callerID(c))
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	out := make([]senderView, 0, len(list))
	for _, r := range list {
		v := senderView{AidRequest: r}
		if r.DriverID != "" {
			if d, err := h.users.Display(c.Request.Context(), r.DriverID); err == nil {
				v.Driver = &d
			}
		}
		out = append(out, v)
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": out})
}

func (h *AidHandler) ListDriver(c *gin.Context) {
	list, err := h.dispatch.ListForDriver(c.Request.Context(), callerID(c))
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"requests": list})
}

type updateStatusReq struct {
	Status dispatch.Status `json:"status"`
}

// UpdateStatus routes a requested target status to the matching engine
// operation. Who may trigger which transition is enforced by the engine.
func (h *AidHandler) UpdateStatus(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing request id")
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	var (
		r   *dispatch.AidRequest
		err error
	)
	switch req.Status {
	case dispatch.StatusAccepted:
		if callerRole(c) != string(user.RoleDriver) {
			writeError(c, http.StatusForbidden, "only drivers accept requests")
			return
		}
		r, err = h.dispatch.Accept(c.Request.Context(), id, callerID(c))
	case dispatch.StatusCompleted:
		if callerRole(c) != string(user.RoleDriver) {
			writeError(c, http.StatusForbidden, "only drivers complete requests")
			return
		}
		r, err = h.dispatch.Complete(c.Request.Context(), id, callerID(c))
	case dispatch.StatusCancelled:
		r, err = h.dispatch.Cancel(c.Request.Context(), id, callerID(c))
	default:
		writeError(c, http.StatusBadRequest, "unsupported target status")
		return
	}
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}
