package handlers

import (
	"context"
	"errors"
	"net/http"

	"visiverse/internal/auth"
	"visiverse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusSignedOut = "signed_out"

	errInvalidCredentials = "invalid credentials"
	errNotFound           = "not found"
	errInternal           = "internal error"
	errInvalidID          = "invalid id"
	errInvalidBody        = "invalid request body"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if oe, ok := oops.AsOops(err); ok {
			fields = append(fields, "code", oe.Code())
		}
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps service and auth errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logAndJSONError(c, http.StatusUnauthorized, errInvalidCredentials, logKey, err, kv...)
	case errors.Is(err, auth.ErrDuplicateUser):
		h.logAndJSONError(c, http.StatusConflict, auth.ErrDuplicateUser.Error(), logKey, err, kv...)
	case errors.Is(err, auth.ErrInvalidUsername):
		h.logAndJSONError(c, http.StatusBadRequest, auth.ErrInvalidUsername.Error(), logKey, err, kv...)
	case errors.Is(err, service.ErrNotFound):
		h.logAndJSONError(c, http.StatusNotFound, errNotFound, logKey, err, kv...)
	case errors.Is(err, service.ErrInvalidFilter):
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), logKey, err, kv...)
	case errors.Is(err, service.ErrScanInProgress):
		h.logAndJSONError(c, http.StatusConflict, service.ErrScanInProgress.Error(), logKey, err, kv...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logAndJSONError(c, http.StatusServiceUnavailable, "request canceled", logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
