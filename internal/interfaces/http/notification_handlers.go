package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// RealtimeServer attaches a websocket connection to a user's group
type RealtimeServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID int64) error
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.inbox.List(c.Request.Context(), actorFrom(c), limit)
	if err != nil {
		h.fail(c, "list notifications", err)
		return
	}
	if items == nil {
		items = []*entity.Notification{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	if err := h.inbox.MarkRead(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		h.fail(c, "mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// Realtime handles GET /ws. Browsers cannot set headers on websocket
// handshakes, so the userId query parameter is accepted when no header
// identity is present. With a header identity the two must agree.
func (h *Handlers) Realtime(c *gin.Context) {
	if h.realtime == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "realtime is not enabled"})
		return
	}

	userID := actorFrom(c).UserID
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		switch {
		case err != nil || id <= 0:
			h.fail(c, "realtime", fmt.Errorf("%w: invalid userId %q", workflow.ErrValidation, raw))
			return
		case userID > 0 && id != userID:
			h.fail(c, "realtime", fmt.Errorf("%w: userId does not match the authenticated user", workflow.ErrForbidden))
			return
		}
		userID = id
	}
	if userID <= 0 {
		h.fail(c, "realtime", workflow.ErrUnauthenticated)
		return
	}

	if err := h.realtime.Serve(c.Writer, c.Request, userID); err != nil {
		h.logger.Error("Failed to open realtime connection", "user_id", userID, "error", err)
	}
}
