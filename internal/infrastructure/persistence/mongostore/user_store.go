package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type userStore struct {
	users  *mongo.Collection
	logger *zap.Logger
}

// NewUserRepository returns a user directory backed by s
func NewUserRepository(s *Store) port.UserRepository {
	return &userStore{users: s.collection(usersCollection), logger: s.logger}
}

func (r *userStore) FindByID(ctx context.Context, userID int64) (*entity.User, error) {
	var user entity.User
	err := r.users.FindOne(ctx, bson.M{"legacyId": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userStore) FindByRole(ctx context.Context, bucket workflow.RoleBucket) ([]*entity.User, error) {
	filter := roleFilter(bucket)
	if filter == nil {
		return nil, nil
	}

	cur, err := r.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "legacyId", Value: 1}}))
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", string(bucket)), zap.Error(err))
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer cur.Close(ctx)

	var users []*entity.User
	for cur.Next(ctx) {
		var user entity.User
		if err := cur.Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, &user)
	}
	return users, cur.Err()
}

func (r *userStore) Upsert(ctx context.Context, user *entity.User) error {
	if user.UserID <= 0 {
		return fmt.Errorf("user id must be positive: %d", user.UserID)
	}
	_, err := r.users.UpdateOne(ctx,
		bson.M{"legacyId": user.UserID},
		bson.M{"$set": user},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		r.logger.Error("Failed to upsert user", zap.Int64("user_id", user.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// roleFilter matches every stored code of bucket, ignoring case and padding
func roleFilter(bucket workflow.RoleBucket) bson.M {
	codes := workflow.CodesFor(bucket)
	if len(codes) == 0 {
		return nil
	}
	patterns := make(bson.A, 0, len(codes))
	for _, c := range codes {
		patterns = append(patterns, primitive.Regex{Pattern: `^\s*` + regexp.QuoteMeta(c) + `\s*$`, Options: "i"})
	}
	return bson.M{"roleCode": bson.M{"$in": patterns}}
}
