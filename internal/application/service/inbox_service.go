package service

import (
	"context"
	"fmt"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

const (
	defaultInboxLimit = 50
	maxInboxLimit     = 200
)

// InboxService lets users read their own notifications
type InboxService interface {
	List(ctx context.Context, actor entity.Actor, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, actor entity.Actor, notificationID string) error
}

type inboxServiceImpl struct {
	notificationRepo port.NotificationRepository
	logger           Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(notificationRepo port.NotificationRepository, logger Logger) InboxService {
	return &inboxServiceImpl{notificationRepo: notificationRepo, logger: orNop(logger)}
}

func (s *inboxServiceImpl) List(ctx context.Context, actor entity.Actor, limit int) ([]*entity.Notification, error) {
	if err := authenticate(actor); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultInboxLimit
	case limit > maxInboxLimit:
		limit = maxInboxLimit
	}

	items, err := s.notificationRepo.ListByRecipient(ctx, actor.UserID, limit)
	if err != nil {
		s.logger.Error("Failed to list notifications", "user_id", actor.UserID, "error", err)
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *inboxServiceImpl) MarkRead(ctx context.Context, actor entity.Actor, notificationID string) error {
	if err := authenticate(actor); err != nil {
		return err
	}

	ok, err := s.notificationRepo.MarkRead(ctx, notificationID, actor.UserID)
	if err != nil {
		s.logger.Error("Failed to mark notification read", "notification_id", notificationID, "error", err)
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", workflow.ErrNotFound, notificationID)
	}
	return nil
}
