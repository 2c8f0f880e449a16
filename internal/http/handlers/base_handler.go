// README: Base handler utilities (JSON helpers, error mapping, identity).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zabiza830/Ethio-Safeguard/internal/http/middleware"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/dispatch"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/notify"
	"github.com/zabiza830/Ethio-Safeguard/internal/modules/user"
	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func callerID(c *gin.Context) types.ID {
	v, _ := c.Get(middleware.CtxUserID)
	s, _ := v.(string)
	return types.ID(s)
}

func callerRole(c *gin.Context) string {
	v, _ := c.Get(middleware.CtxRole)
	s, _ := v.(string)
	return s
}

func writeDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, dispatch.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, dispatch.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, dispatch.ErrInvalidTarget):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, dispatch.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, dispatch.ErrStoreUnavailable):
		writeError(c, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrBadCredentials):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrDuplicateEmail):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrStoreUnavailable):
		writeError(c, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeNotifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notify.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, notify.ErrStoreUnavailable):
		writeError(c, http.StatusServiceUnavailable, "store unavailable, retry later")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
