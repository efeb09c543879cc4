package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/service"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	claims   service.ClaimService
	inbox    service.InboxService
	realtime RealtimeServer
	pageSize int
	logger   Logger
}

// NewHandlers creates a new Handlers instance. realtime may be nil.
func NewHandlers(
	claims service.ClaimService,
	inbox service.InboxService,
	realtime RealtimeServer,
	pageSize int,
	logger Logger,
) *Handlers {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	return &Handlers{
		claims:   claims,
		inbox:    inbox,
		realtime: realtime,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ClaimListResponse is one page of claims plus the total match count
type ClaimListResponse struct {
	Claims     []*entity.Claim `json:"claims"`
	ClaimCount int64           `json:"claimCount"`
}

// CreateClaimRequest is the claim payload plus optional explicit recipients
type CreateClaimRequest struct {
	entity.ClaimPatch
	NotificationRecipients []int64 `json:"notificationRecipients"`
}

// ApproveClaimRequest carries extra recipients for the approval notice
type ApproveClaimRequest struct {
	NotificationRecipients []int64 `json:"notificationRecipients"`
}

// RejectClaimRequest carries the rejection reason
type RejectClaimRequest struct {
	Reason string `json:"reason"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListClaims handles GET /api/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), h.pageSize)
	if err != nil {
		h.fail(c, "list", err)
		return
	}

	claims, total, err := h.claims.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		h.fail(c, "list", err)
		return
	}
	if claims == nil {
		claims = []*entity.Claim{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ClaimListResponse{Claims: claims, ClaimCount: total},
	})
}

// ExportClaims handles GET /api/claims/export
func (h *Handlers) ExportClaims(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), h.pageSize)
	if err != nil {
		h.fail(c, "export", err)
		return
	}

	var buf bytes.Buffer
	if err := h.claims.Export(c.Request.Context(), actorFrom(c), q, &buf); err != nil {
		h.fail(c, "export", err)
		return
	}

	filename := fmt.Sprintf("claims-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	claim, err := h.claims.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "get", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// CreateClaim handles POST /api/claims
func (h *Handlers) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.claims.Create(c.Request.Context(), actorFrom(c), req.Details(), req.NotificationRecipients)
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result.Claim, Warnings: result.Warnings()})
}

// UpdateClaim handles PUT /api/claims/:id
func (h *Handlers) UpdateClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var patch entity.ClaimPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.claims.Update(c.Request.Context(), actorFrom(c), id, patch)
	if err != nil {
		h.fail(c, "update", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Claim, Warnings: result.Warnings()})
}

// DeleteClaim handles DELETE /api/claims/:id
func (h *Handlers) DeleteClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	if err := h.claims.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, "delete", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ApproveClaim handles POST /api/claims/:id/approve
func (h *Handlers) ApproveClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var req ApproveClaimRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.claims.Approve(c.Request.Context(), actorFrom(c), id, req.NotificationRecipients)
	if err != nil {
		h.fail(c, "approve", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Claim, Warnings: result.Warnings()})
}

// RejectClaim handles POST /api/claims/:id/reject
func (h *Handlers) RejectClaim(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var req RejectClaimRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.claims.Reject(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		h.fail(c, "reject", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Claim, Warnings: result.Warnings()})
}

func claimID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid claim id")
		return 0, false
	}
	return id, true
}

// bindOptionalJSON decodes the body into v; an empty body leaves v untouched
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil {
		return nil
	}
	err := json.NewDecoder(c.Request.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
