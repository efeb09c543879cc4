package service

import (
	"context"
	"fmt"
	"io"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/dispatcher"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	wf "github.com/tuanbk654123/QLCP-QLKH/internal/application/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/event"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// ClaimResult is a committed claim plus the notification outcome
type ClaimResult struct {
	Claim  *entity.Claim
	Report *DispatchReport
}

// Warnings returns the notification warnings to show the caller
func (r *ClaimResult) Warnings() []string {
	if r == nil {
		return nil
	}
	return r.Report.Warnings()
}

// ClaimService is the action surface for claims
type ClaimService interface {
	List(ctx context.Context, actor entity.Actor, q query.ClaimQuery) ([]*entity.Claim, int64, error)
	Export(ctx context.Context, actor entity.Actor, q query.ClaimQuery, w io.Writer) error
	Get(ctx context.Context, actor entity.Actor, claimID int64) (*entity.Claim, error)
	Create(ctx context.Context, actor entity.Actor, details entity.ClaimDetails, recipients []int64) (*ClaimResult, error)
	Update(ctx context.Context, actor entity.Actor, claimID int64, patch entity.ClaimPatch) (*ClaimResult, error)
	Approve(ctx context.Context, actor entity.Actor, claimID int64, extraRecipients []int64) (*ClaimResult, error)
	Reject(ctx context.Context, actor entity.Actor, claimID int64, reason string) (*ClaimResult, error)
	Delete(ctx context.Context, actor entity.Actor, claimID int64) error
}

type claimServiceImpl struct {
	claimRepo port.ClaimRepository
	directory port.UserDirectory
	engine    wf.WorkflowEngine
	notifier  NotificationDispatcher
	events    dispatcher.Dispatcher
	exporter  port.ClaimExporter
	logger    Logger
}

// NewClaimService creates a new ClaimService. events and exporter may be nil.
func NewClaimService(
	claimRepo port.ClaimRepository,
	directory port.UserDirectory,
	engine wf.WorkflowEngine,
	notifier NotificationDispatcher,
	events dispatcher.Dispatcher,
	exporter port.ClaimExporter,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		claimRepo: claimRepo,
		directory: directory,
		engine:    engine,
		notifier:  notifier,
		events:    events,
		exporter:  exporter,
		logger:    orNop(logger),
	}
}

func (s *claimServiceImpl) List(ctx context.Context, actor entity.Actor, q query.ClaimQuery) ([]*entity.Claim, int64, error) {
	if err := authenticate(actor); err != nil {
		return nil, 0, err
	}

	q = scoped(actor, q)

	claims, err := s.claimRepo.List(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list claims", "user_id", actor.UserID, "error", err)
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}

	total, err := s.claimRepo.Count(ctx, q)
	if err != nil {
		s.logger.Error("Failed to count claims", "user_id", actor.UserID, "error", err)
		return nil, 0, fmt.Errorf("count claims: %w", err)
	}

	return claims, total, nil
}

func (s *claimServiceImpl) Export(ctx context.Context, actor entity.Actor, q query.ClaimQuery, w io.Writer) error {
	if err := authenticate(actor); err != nil {
		return err
	}
	if s.exporter == nil {
		return fmt.Errorf("export is not configured")
	}

	claims, err := s.claimRepo.List(ctx, scoped(actor, q).Unpaged())
	if err != nil {
		return fmt.Errorf("list claims for export: %w", err)
	}

	if err := s.exporter.Export(w, claims); err != nil {
		s.logger.Error("Failed to export claims", "user_id", actor.UserID, "count", len(claims), "error", err)
		return fmt.Errorf("export claims: %w", err)
	}

	s.logger.Info("Claims exported", "user_id", actor.UserID, "count", len(claims))
	return nil
}

// Get is not restricted by view scope; any authenticated user may read a claim by id
func (s *claimServiceImpl) Get(ctx context.Context, actor entity.Actor, claimID int64) (*entity.Claim, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}

	claim, err := s.claimRepo.FindBySequentialID(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: claim %d", workflow.ErrNotFound, claimID)
	}
	return claim, nil
}

func (s *claimServiceImpl) Create(ctx context.Context, actor entity.Actor, details entity.ClaimDetails, recipients []int64) (*ClaimResult, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}
	actor = s.named(ctx, actor)

	tr, err := s.engine.Create(ctx, actor, details, recipients)
	if err != nil {
		s.logger.Error("Failed to create claim", "user_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("Claim created", "claim_id", tr.Claim.SequentialID, "user_id", actor.UserID)

	report := s.notifier.Dispatch(ctx, Notice{
		Title:       "New expense claim awaiting approval",
		Message:     fmt.Sprintf("%s submitted expense claim #%d.", actor.DisplayName(), tr.Claim.SequentialID),
		Type:        entity.NotificationTypeClaimApproval,
		Claim:       tr.Claim,
		ActorUserID: actor.UserID,
		Routing:     tr.Routing,
	})

	s.publish(ctx, event.NewEvent(event.TypeClaimCreated, tr.Claim.SequentialID, actor.UserID, "", tr.To.String()).
		WithPayload("recipients", report.RecipientIDs()))

	return &ClaimResult{Claim: tr.Claim, Report: report}, nil
}

// Update sends no notifications; status changes made here are recorded in history only
func (s *claimServiceImpl) Update(ctx context.Context, actor entity.Actor, claimID int64, patch entity.ClaimPatch) (*ClaimResult, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}

	res, err := s.engine.Update(ctx, actor, claimID, patch)
	if err != nil {
		s.logger.Error("Failed to update claim", "claim_id", claimID, "user_id", actor.UserID, "error", err)
		return nil, err
	}

	if res.Repaired {
		s.logger.Info("Recovered missing claim status from history", "claim_id", claimID, "status", res.From)
	}
	s.logger.Info("Claim updated", "claim_id", claimID, "user_id", actor.UserID, "status_changed", res.StatusChanged)

	s.publish(ctx, event.NewEvent(event.TypeClaimUpdated, claimID, actor.UserID, res.From.String(), res.To.String()).
		WithPayload("status_changed", res.StatusChanged))

	return &ClaimResult{Claim: res.Claim}, nil
}

func (s *claimServiceImpl) Approve(ctx context.Context, actor entity.Actor, claimID int64, extraRecipients []int64) (*ClaimResult, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}
	actor = s.named(ctx, actor)

	tr, err := s.engine.Approve(ctx, actor, claimID)
	if err != nil {
		s.logger.Error("Failed to approve claim", "claim_id", claimID, "user_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("Claim approved", "claim_id", claimID, "user_id", actor.UserID, "from", tr.From, "to", tr.To)

	title, message := approvalText(tr.To, actor.DisplayName(), claimID)
	report := s.notifier.Dispatch(ctx, Notice{
		Title:       title,
		Message:     message,
		Type:        entity.NotificationTypeClaimApproval,
		Claim:       tr.Claim,
		ActorUserID: actor.UserID,
		Routing:     tr.Routing,
		Extra:       extraRecipients,
	})

	s.publish(ctx, event.NewEvent(event.TypeClaimApproved, claimID, actor.UserID, tr.From.String(), tr.To.String()).
		WithPayload("recipients", report.RecipientIDs()))

	return &ClaimResult{Claim: tr.Claim, Report: report}, nil
}

func (s *claimServiceImpl) Reject(ctx context.Context, actor entity.Actor, claimID int64, reason string) (*ClaimResult, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}
	actor = s.named(ctx, actor)

	tr, err := s.engine.Reject(ctx, actor, claimID, reason)
	if err != nil {
		s.logger.Error("Failed to reject claim", "claim_id", claimID, "user_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("Claim rejected", "claim_id", claimID, "user_id", actor.UserID, "from", tr.From)

	report := s.notifier.Dispatch(ctx, Notice{
		Title:       "Expense claim rejected",
		Message:     fmt.Sprintf("%s rejected expense claim #%d. Reason: %s", actor.DisplayName(), claimID, reason),
		Type:        entity.NotificationTypeClaimApproval,
		Claim:       tr.Claim,
		ActorUserID: actor.UserID,
		Routing:     tr.Routing,
	})

	s.publish(ctx, event.NewEvent(event.TypeClaimRejected, claimID, actor.UserID, tr.From.String(), tr.To.String()).
		WithPayload("reason", reason))

	return &ClaimResult{Claim: tr.Claim, Report: report}, nil
}

func (s *claimServiceImpl) Delete(ctx context.Context, actor entity.Actor, claimID int64) error {
	if err := authenticate(actor); err != nil {
		return err
	}

	claim, err := s.engine.Delete(ctx, actor, claimID)
	if err != nil {
		s.logger.Error("Failed to delete claim", "claim_id", claimID, "user_id", actor.UserID, "error", err)
		return err
	}

	s.logger.Info("Claim deleted", "claim_id", claimID, "user_id", actor.UserID)
	s.publish(ctx, event.NewEvent(event.TypeClaimDeleted, claimID, actor.UserID, claim.Status.String(), ""))
	return nil
}

// named fills in the actor's display name from the directory when the
// identity collaborator did not supply one
func (s *claimServiceImpl) named(ctx context.Context, actor entity.Actor) entity.Actor {
	if actor.Name != "" || s.directory == nil {
		return actor
	}
	u, err := s.directory.FindByID(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to look up actor", "user_id", actor.UserID, "error", err)
		return actor
	}
	if u != nil {
		actor.Name = u.DisplayName()
	}
	return actor
}

func (s *claimServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.events == nil {
		return
	}
	s.events.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func authenticate(actor entity.Actor) error {
	if actor.UserID <= 0 {
		return workflow.ErrUnauthenticated
	}
	return nil
}

func scoped(actor entity.Actor, q query.ClaimQuery) query.ClaimQuery {
	if workflow.ViewScopeFor(actor.Role()) == workflow.ScopeOwnOnly {
		return q.RestrictToOwner(actor.UserID)
	}
	return q
}

func approvalText(to workflow.State, actorName string, claimID int64) (string, string) {
	switch to {
	case workflow.StateManagerApproved:
		return "Expense claim approved by manager",
			fmt.Sprintf("Manager %s approved expense claim #%d. Awaiting director approval.", actorName, claimID)
	case workflow.StateDirectorApproved:
		return "Expense claim approved by director",
			fmt.Sprintf("Director %s approved expense claim #%d. Awaiting payment by accounting.", actorName, claimID)
	case workflow.StatePaid:
		return "Expense claim paid",
			fmt.Sprintf("Accountant %s confirmed payment of expense claim #%d.", actorName, claimID)
	default:
		return "Expense claim updated", fmt.Sprintf("%s moved expense claim #%d to %s.", actorName, claimID, to.Label())
	}
}
