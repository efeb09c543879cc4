package repository

import (
	"context"
	"fmt"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("notification id is required")
	}

	q := `
		INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, q,
		n.ID,
		n.RecipientUserID,
		n.Title,
		n.Message,
		n.Type,
		n.RelatedClaimID,
		n.IsRead,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("user_id", n.RecipientUserID),
			zap.Int64("claim_id", n.RelatedClaimID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the newest notifications of one user
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	q := `
		SELECT id, user_id, title, message, type, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, q, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientUserID,
			&n.Title,
			&n.Message,
			&n.Type,
			&n.RelatedClaimID,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification owned by userID as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, userID int64) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("notification_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}
