// Package audit builds the append-only status history of claims.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// Trail appends timestamped status changes to claims
type Trail struct {
	now func() time.Time
}

// NewTrail creates a trail using the given clock; nil means time.Now
func NewTrail(now func() time.Time) *Trail {
	if now == nil {
		now = time.Now
	}
	return &Trail{now: now}
}

// Append records a status change and moves the claim to that status.
// Existing entries are never modified. The caller persists the claim.
func (t *Trail) Append(claim *entity.Claim, status workflow.State, actorUserID int64, note string) entity.StatusChange {
	entry := entity.StatusChange{
		Status:      status,
		ActorUserID: actorUserID,
		Timestamp:   t.now(),
		Note:        note,
	}
	claim.History = append(claim.History, entry)
	claim.Status = status
	claim.UpdatedAt = entry.Timestamp
	return entry
}

// Now returns the trail's clock reading
func (t *Trail) Now() time.Time {
	return t.now()
}

// CreatedNote is the first history note of every claim
func CreatedNote() string {
	return "Created and submitted for approval"
}

// ApprovedNote records who approved a stage
func ApprovedNote(actorName string) string {
	return fmt.Sprintf("Approved by %s", actorName)
}

// RejectedNote records the rejection reason
func RejectedNote(reason string) string {
	return fmt.Sprintf("Rejected: %s", reason)
}

// RecoveredNote marks an entry written for a claim that had no history
func RecoveredNote() string {
	return "Status recovered"
}

// StatusUpdateNote describes a status change made through an edit
func StatusUpdateNote(status workflow.State, rejectionReason string) string {
	if status == workflow.StateRejected && strings.TrimSpace(rejectionReason) != "" {
		return RejectedNote(rejectionReason)
	}
	return fmt.Sprintf("Status updated: %s", status.Label())
}
