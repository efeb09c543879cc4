package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// statusFor maps an application error to an HTTP status and client message
func statusFor(err error) (int, string) {
	var forbidden *workflow.ForbiddenError
	switch {
	case errors.Is(err, workflow.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.As(err, &forbidden):
		return http.StatusForbidden, forbidden.Error()
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, workflow.ErrValidation),
		errors.Is(err, query.ErrUnknownField):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handlers) fail(c *gin.Context, action string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "action", action, "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}
