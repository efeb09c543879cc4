package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	wf "github.com/tuanbk654123/QLCP-QLKH/internal/application/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// RealtimeEvent is the event name pushed to connected clients
const RealtimeEvent = "ReceiveNotification"

// Notice is one notification fan-out request
type Notice struct {
	Title       string
	Message     string
	Type        string
	Claim       *entity.Claim
	ActorUserID int64
	Routing     wf.Routing
	// Extra recipients are added on top of routing
	Extra []int64
}

// ChannelOutcome is the result of one delivery channel for one recipient
type ChannelOutcome struct {
	Delivered bool
	Skipped   bool
	Err       error
}

// RecipientOutcome collects every channel result for one recipient
type RecipientOutcome struct {
	UserID       int64
	Notification *entity.Notification
	Store        ChannelOutcome
	Realtime     ChannelOutcome
	Email        ChannelOutcome
	Chat         ChannelOutcome
}

// DispatchReport is returned to the caller after a fan-out
type DispatchReport struct {
	Recipients []RecipientOutcome
	// ResolveErr is set when recipient resolution partly failed
	ResolveErr error
}

// Warnings lists failures the caller should surface. Only record-creation
// and resolution failures qualify; push, email and chat problems are logged only.
func (r *DispatchReport) Warnings() []string {
	if r == nil {
		return nil
	}
	var out []string
	if r.ResolveErr != nil {
		out = append(out, fmt.Sprintf("recipient resolution incomplete: %v", r.ResolveErr))
	}
	for _, o := range r.Recipients {
		if o.Store.Err != nil {
			out = append(out, fmt.Sprintf("notification for user %d was not stored: %v", o.UserID, o.Store.Err))
		}
	}
	return out
}

// RecipientIDs returns recipients in notification order
func (r *DispatchReport) RecipientIDs() []int64 {
	if r == nil {
		return nil
	}
	ids := make([]int64, 0, len(r.Recipients))
	for _, o := range r.Recipients {
		ids = append(ids, o.UserID)
	}
	return ids
}

// NotificationDispatcher resolves recipients and fans out over every channel
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notice Notice) *DispatchReport
}

type notificationDispatcherImpl struct {
	notificationRepo port.NotificationRepository
	directory        port.UserDirectory
	claimRepo        port.ClaimRepository
	resolver         HierarchyResolver
	pusher           port.RealtimePusher
	email            port.EmailSender
	chat             port.ChatMessenger
	logger           Logger
	now              func() time.Time
}

// DispatcherOption configures optional channels
type DispatcherOption func(*notificationDispatcherImpl)

// WithRealtime enables the real-time push channel
func WithRealtime(p port.RealtimePusher) DispatcherOption {
	return func(d *notificationDispatcherImpl) { d.pusher = p }
}

// WithEmail enables the email channel
func WithEmail(s port.EmailSender) DispatcherOption {
	return func(d *notificationDispatcherImpl) { d.email = s }
}

// WithChat enables the chat channel
func WithChat(c port.ChatMessenger) DispatcherOption {
	return func(d *notificationDispatcherImpl) { d.chat = c }
}

// WithClock overrides the notification timestamp source
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *notificationDispatcherImpl) { d.now = now }
}

// NewNotificationDispatcher creates a new NotificationDispatcher
func NewNotificationDispatcher(
	notificationRepo port.NotificationRepository,
	directory port.UserDirectory,
	claimRepo port.ClaimRepository,
	resolver HierarchyResolver,
	logger Logger,
	opts ...DispatcherOption,
) NotificationDispatcher {
	d := &notificationDispatcherImpl{
		notificationRepo: notificationRepo,
		directory:        directory,
		claimRepo:        claimRepo,
		resolver:         resolver,
		logger:           orNop(logger),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch never returns an error; every failure is recorded in the report
func (d *notificationDispatcherImpl) Dispatch(ctx context.Context, notice Notice) *DispatchReport {
	report := &DispatchReport{}

	recipients, err := d.resolveRecipients(ctx, notice)
	if err != nil {
		report.ResolveErr = err
		d.logger.Error("Failed to resolve some recipients",
			"claim_id", notice.Claim.SequentialID,
			"error", err,
		)
	}

	summary := d.claimSummary(ctx, notice.Claim.SequentialID)

	for _, userID := range recipients {
		report.Recipients = append(report.Recipients, d.deliver(ctx, notice, userID, summary))
	}

	d.logger.Info("Notifications dispatched",
		"claim_id", notice.Claim.SequentialID,
		"type", notice.Type,
		"recipient_count", len(report.Recipients),
		"warning_count", len(report.Warnings()),
	)

	return report
}

// resolveRecipients applies routing precedence and deduplicates
func (d *notificationDispatcherImpl) resolveRecipients(ctx context.Context, notice Notice) ([]int64, error) {
	set := newRecipientSet()
	var errs []error

	routing := notice.Routing
	switch {
	case len(routing.Explicit) > 0:
		set.add(routing.Explicit...)

	case routing.Hierarchy:
		res, err := d.resolver.ResolveApprover(ctx, notice.Claim.OwnerUserID, routing.FallbackRole)
		if err != nil {
			errs = append(errs, err)
		}
		set.add(res.UserIDs...)

	case routing.DirectManager:
		res, err := d.resolver.ResolveDirectManager(ctx, notice.Claim.OwnerUserID, routing.FallbackRole)
		if err != nil {
			errs = append(errs, err)
		}
		set.add(res.UserIDs...)

	case routing.FallbackRole != "":
		ids, err := d.resolver.RoleMembers(ctx, routing.FallbackRole)
		if err != nil {
			errs = append(errs, err)
		}
		set.add(ids...)
	}

	set.add(notice.Extra...)

	admins, err := d.resolver.RoleMembers(ctx, workflow.RoleAdmin)
	if err != nil {
		errs = append(errs, err)
	}
	set.add(admins...)

	if notice.Claim.OwnerUserID != notice.ActorUserID {
		set.add(notice.Claim.OwnerUserID)
	}

	return set.ids, errors.Join(errs...)
}

func (d *notificationDispatcherImpl) deliver(ctx context.Context, notice Notice, userID int64, summary *ClaimSummary) RecipientOutcome {
	outcome := RecipientOutcome{UserID: userID}

	n := &entity.Notification{
		ID:              uuid.NewString(),
		RecipientUserID: userID,
		Title:           notice.Title,
		Message:         notice.Message,
		Type:            notice.Type,
		RelatedClaimID:  notice.Claim.SequentialID,
		IsRead:          false,
		CreatedAt:       d.now(),
	}
	outcome.Notification = n

	if err := d.notificationRepo.Create(ctx, n); err != nil {
		outcome.Store.Err = err
		d.logger.Error("Failed to store notification",
			"recipient_user_id", userID,
			"claim_id", n.RelatedClaimID,
			"error", err,
		)
	} else {
		outcome.Store.Delivered = true
	}

	outcome.Realtime = d.push(ctx, n)

	user, err := d.directory.FindByID(ctx, userID)
	if err != nil {
		d.logger.Error("Failed to look up recipient", "recipient_user_id", userID, "error", err)
	}

	outcome.Email = d.sendEmail(ctx, notice, user, summary)
	outcome.Chat = d.sendChat(ctx, notice, user)

	return outcome
}

func (d *notificationDispatcherImpl) push(ctx context.Context, n *entity.Notification) ChannelOutcome {
	if d.pusher == nil {
		return ChannelOutcome{Skipped: true}
	}
	if err := d.pusher.Push(ctx, n.RecipientUserID, RealtimeEvent, n); err != nil {
		d.logger.Error("Realtime push failed",
			"recipient_user_id", n.RecipientUserID,
			"claim_id", n.RelatedClaimID,
			"error", err,
		)
		return ChannelOutcome{Err: err}
	}
	return ChannelOutcome{Delivered: true}
}

func (d *notificationDispatcherImpl) sendEmail(ctx context.Context, notice Notice, user *entity.User, summary *ClaimSummary) ChannelOutcome {
	if d.email == nil || !d.email.Enabled() || user == nil || user.Email == "" {
		return ChannelOutcome{Skipped: true}
	}

	body, err := renderEmail(notice.Title, notice.Message, summary)
	if err != nil {
		d.logger.Error("Failed to render email", "recipient_user_id", user.UserID, "error", err)
		return ChannelOutcome{Err: err}
	}

	if err := d.email.Send(ctx, user.Email, notice.Title, body); err != nil {
		d.logger.Error("Email delivery failed",
			"recipient_user_id", user.UserID,
			"email", user.Email,
			"claim_id", notice.Claim.SequentialID,
			"error", err,
		)
		return ChannelOutcome{Err: err}
	}
	return ChannelOutcome{Delivered: true}
}

func (d *notificationDispatcherImpl) sendChat(ctx context.Context, notice Notice, user *entity.User) ChannelOutcome {
	if d.chat == nil || user == nil || user.Email == "" {
		return ChannelOutcome{Skipped: true}
	}
	if err := d.chat.SendText(ctx, user.Email, notice.Title+"\n"+notice.Message); err != nil {
		d.logger.Error("Chat delivery failed",
			"recipient_user_id", user.UserID,
			"claim_id", notice.Claim.SequentialID,
			"error", err,
		)
		return ChannelOutcome{Err: err}
	}
	return ChannelOutcome{Delivered: true}
}

// claimSummary re-reads the committed claim for email enrichment
func (d *notificationDispatcherImpl) claimSummary(ctx context.Context, claimID int64) *ClaimSummary {
	if d.email == nil || !d.email.Enabled() || d.claimRepo == nil {
		return nil
	}
	claim, err := d.claimRepo.FindBySequentialID(ctx, claimID)
	if err != nil {
		d.logger.Error("Failed to load claim for email", "claim_id", claimID, "error", err)
		return nil
	}
	if claim == nil {
		return nil
	}
	return summarize(claim)
}

type recipientSet struct {
	seen map[int64]bool
	ids  []int64
}

func newRecipientSet() *recipientSet {
	return &recipientSet{seen: make(map[int64]bool)}
}

func (s *recipientSet) add(ids ...int64) {
	for _, id := range ids {
		if id <= 0 || s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.ids = append(s.ids, id)
	}
}
