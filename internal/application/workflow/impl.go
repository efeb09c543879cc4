package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/audit"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	domainwf "github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

type engineImpl struct {
	claimRepo port.ClaimRepository
	txManager port.TransactionManager
	trail     *audit.Trail
	newID     func() string
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithTrail sets the audit trail, mainly to inject a clock in tests
func WithTrail(t *audit.Trail) EngineOption {
	return func(e *engineImpl) {
		e.trail = t
	}
}

// WithIDGenerator overrides how opaque storage ids are generated
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *engineImpl) {
		e.newID = fn
	}
}

// NewEngine creates a new workflow engine
func NewEngine(claimRepo port.ClaimRepository, txManager port.TransactionManager, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		claimRepo: claimRepo,
		txManager: txManager,
		trail:     audit.NewTrail(nil),
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) Create(ctx context.Context, actor entity.Actor, details entity.ClaimDetails, explicitRecipients []int64) (*Transition, error) {
	var result *Transition

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := e.claimRepo.NextSequentialID(txCtx)
		if err != nil {
			return fmt.Errorf("allocate claim id: %w", err)
		}

		now := e.trail.Now()
		claim := &entity.Claim{
			OpaqueID:           e.newID(),
			SequentialID:       id,
			OwnerUserID:        actor.UserID,
			ClaimDetails:       details,
			ExplicitRecipients: dedupe(explicitRecipients),
			CreatedAt:          now,
		}
		entry := e.trail.Append(claim, domainwf.StatePending, actor.UserID, audit.CreatedNote())

		if err := e.claimRepo.Insert(txCtx, claim); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}

		routing := Routing{DirectManager: true, FallbackRole: domainwf.RoleManager}
		if len(claim.ExplicitRecipients) > 0 {
			routing = Routing{Explicit: claim.ExplicitRecipients}
		}

		result = &Transition{
			Claim:   claim,
			To:      domainwf.StatePending,
			Entry:   entry,
			Routing: routing,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *engineImpl) Approve(ctx context.Context, actor entity.Actor, claimID int64) (*Transition, error) {
	return e.fire(ctx, actor, claimID, domainwf.TriggerApprove, func(c *entity.Claim) string {
		return audit.ApprovedNote(actor.DisplayName())
	})
}

func (e *engineImpl) Reject(ctx context.Context, actor entity.Actor, claimID int64, reason string) (*Transition, error) {
	return e.fire(ctx, actor, claimID, domainwf.TriggerReject, func(c *entity.Claim) string {
		c.RejectionReason = reason
		return audit.RejectedNote(reason)
	})
}

// fire loads the claim, runs the trigger through the state machine and commits
// the claim with one new history entry. prepare may adjust the claim and
// returns the history note.
func (e *engineImpl) fire(
	ctx context.Context,
	actor entity.Actor,
	claimID int64,
	trigger domainwf.Trigger,
	prepare func(c *entity.Claim) string,
) (*Transition, error) {
	var result *Transition

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := e.load(txCtx, claimID)
		if err != nil {
			return err
		}

		machine := BuildClaimStateMachine(claim.EffectiveStatus())
		from := machine.State()
		role := actor.Role()

		action := strings.ToLower(trigger.String())
		if err := machine.Fire(txCtx, trigger, role); err != nil {
			return domainwf.Classify(err, action, from, role)
		}
		to := machine.State()

		note := prepare(claim)
		entry := e.trail.Append(claim, to, actor.UserID, note)

		if err := e.claimRepo.Replace(txCtx, claim); err != nil {
			return fmt.Errorf("replace claim: %w", err)
		}

		result = &Transition{
			Claim: claim,
			From:  from,
			To:    to,
			Entry: entry,
		}
		if trigger == domainwf.TriggerApprove {
			result.Routing = approvalRouting[to]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *engineImpl) Update(ctx context.Context, actor entity.Actor, claimID int64, patch entity.ClaimPatch) (*UpdateResult, error) {
	var result *UpdateResult

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := e.load(txCtx, claimID)
		if err != nil {
			return err
		}

		stored := claim.EffectiveStatus()
		repaired := claim.Status != stored

		if err := domainwf.AuthorizeEdit(actor.Role(), stored, claim.OwnerUserID, actor.UserID); err != nil {
			return err
		}

		next := stored
		if patch.Status != nil && strings.TrimSpace(*patch.Status) != "" {
			parsed, ok := domainwf.ParseState(*patch.Status)
			if !ok {
				return fmt.Errorf("%w: unknown status %q", domainwf.ErrValidation, *patch.Status)
			}
			next = parsed
		}
		if patch.RejectionReason != nil {
			claim.RejectionReason = *patch.RejectionReason
		}

		claim.ClaimDetails = patch.Apply(claim.ClaimDetails)
		claim.Status = stored

		changed := next != stored
		switch {
		case changed:
			e.trail.Append(claim, next, actor.UserID, audit.StatusUpdateNote(next, claim.RejectionReason))
		case len(claim.History) == 0:
			// status must mirror the last history entry
			e.trail.Append(claim, stored, actor.UserID, audit.RecoveredNote())
		default:
			claim.UpdatedAt = e.trail.Now()
		}

		if err := e.claimRepo.Replace(txCtx, claim); err != nil {
			return fmt.Errorf("replace claim: %w", err)
		}

		result = &UpdateResult{
			Claim:         claim,
			From:          stored,
			To:            next,
			StatusChanged: changed,
			Repaired:      repaired,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *engineImpl) Delete(ctx context.Context, actor entity.Actor, claimID int64) (*entity.Claim, error) {
	var deleted *entity.Claim

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		claim, err := e.load(txCtx, claimID)
		if err != nil {
			return err
		}

		if err := domainwf.AuthorizeDelete(actor.Role(), claim.EffectiveStatus(), claim.OwnerUserID, actor.UserID); err != nil {
			return err
		}

		removed, err := e.claimRepo.Delete(txCtx, claimID)
		if err != nil {
			return fmt.Errorf("delete claim: %w", err)
		}
		if !removed {
			return fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, claimID)
		}

		deleted = claim
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (e *engineImpl) load(ctx context.Context, claimID int64) (*entity.Claim, error) {
	claim, err := e.claimRepo.FindBySequentialID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", domainwf.ErrNotFound, claimID)
	}
	return claim, nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
