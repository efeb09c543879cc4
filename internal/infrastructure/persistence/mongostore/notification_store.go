package mongostore

import (
	"context"
	"fmt"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type notificationStore struct {
	notifications *mongo.Collection
	logger        *zap.Logger
}

// NewNotificationRepository returns a notification repository backed by s
func NewNotificationRepository(s *Store) port.NotificationRepository {
	return &notificationStore{notifications: s.collection(notificationsCollection), logger: s.logger}
}

func (r *notificationStore) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		return fmt.Errorf("notification id is required")
	}
	if _, err := r.notifications.InsertOne(ctx, n); err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("user_id", n.RecipientUserID),
			zap.Int64("claim_id", n.RelatedClaimID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationStore) ListByRecipient(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.notifications.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var out []*entity.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, nil
}

func (r *notificationStore) MarkRead(ctx context.Context, id string, userID int64) (bool, error) {
	res, err := r.notifications.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("notification_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return res.MatchedCount > 0, nil
}
