// README: Registration submission, login, and admin approval handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type RegistrationHandler struct {
	users *user.Service
}

func NewRegistrationHandler(users *user.Service) *RegistrationHandler {
	return &RegistrationHandler{users: users}
}

type registerReq struct {
	Name         string                    `json:"name"`
	Email        string                    `json:"email"`
	Password     string                    `json:"password"`
	Role         user.Role                 `json:"role"`
	Truck        *user.TruckDetails        `json:"truckDetails,omitempty"`
	Organization *user.OrganizationDetails `json:"organizationDetails,omitempty"`
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.Register(c.Request.Context(), user.RegisterCommand{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		Truck:        req.Truck,
		Organization: req.Organization,
	})
	if err != nil {
		writeUserError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *RegistrationHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeUserError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"token": token, "user": u})
}

func (h *RegistrationHandler) ListPending(c *gin.Context) {
	list, err := h.users.ListPending(c.Request.Context())
	if err != nil {
		writeUserError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"registrations": list})
}

type setStatusReq struct {
	Status user.RegistrationStatus `json:"status"`
}

func (h *RegistrationHandler) SetStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing user id")
		return
	}
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.SetStatus(c.Request.Context(), types.ID(id), req.Status)
	if err != nil {
		writeUserError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"user": u})
}
