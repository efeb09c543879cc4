package workflow

import (
	"context"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	domainwf "github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// Routing is the notification intent produced by a transition
type Routing struct {
	// Hierarchy routes to the owner's approval chain before any fallback
	Hierarchy bool
	// DirectManager routes to the owner's immediate manager (new submissions)
	DirectManager bool
	// FallbackRole is broadcast to when no hierarchy target resolves. Empty means none.
	FallbackRole domainwf.RoleBucket
	// Explicit replaces all routing with these recipients
	Explicit []int64
}

// Transition is a committed change of a claim's status
type Transition struct {
	Claim   *entity.Claim
	From    domainwf.State
	To      domainwf.State
	Entry   entity.StatusChange
	Routing Routing
}

// UpdateResult describes a committed edit
type UpdateResult struct {
	Claim         *entity.Claim
	From          domainwf.State
	To            domainwf.State
	StatusChanged bool
	// Repaired is true when the stored status was missing and recovered from history
	Repaired bool
}

// WorkflowEngine computes and commits claim mutations.
// Every method leaves storage untouched when it returns an error.
type WorkflowEngine interface {
	// Create assigns the next sequential id and submits the claim as Pending
	Create(ctx context.Context, actor entity.Actor, details entity.ClaimDetails, explicitRecipients []int64) (*Transition, error)

	// Approve advances the claim one step along the approval table
	Approve(ctx context.Context, actor entity.Actor, claimID int64) (*Transition, error)

	// Reject moves the claim to Rejected from any state
	Reject(ctx context.Context, actor entity.Actor, claimID int64, reason string) (*Transition, error)

	// Update merges the patch into the stored claim
	Update(ctx context.Context, actor entity.Actor, claimID int64, patch entity.ClaimPatch) (*UpdateResult, error)

	// Delete removes the claim
	Delete(ctx context.Context, actor entity.Actor, claimID int64) (*entity.Claim, error)
}
