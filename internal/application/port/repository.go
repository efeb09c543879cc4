package port

import (
	"context"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// ClaimRepository is the document store for claims.
// Finders return (nil, nil) when nothing matches.
type ClaimRepository interface {
	FindBySequentialID(ctx context.Context, id int64) (*entity.Claim, error)
	List(ctx context.Context, q query.ClaimQuery) ([]*entity.Claim, error)
	Count(ctx context.Context, q query.ClaimQuery) (int64, error)
	Insert(ctx context.Context, claim *entity.Claim) error
	// Replace overwrites the whole stored record with the same sequential id
	Replace(ctx context.Context, claim *entity.Claim) error
	// Delete reports whether a claim was removed
	Delete(ctx context.Context, id int64) (bool, error)
	// NextSequentialID atomically allocates the next claim id
	NextSequentialID(ctx context.Context) (int64, error)
}

// UserDirectory is the read-only organization directory
type UserDirectory interface {
	FindByID(ctx context.Context, userID int64) (*entity.User, error)
	FindByRole(ctx context.Context, bucket workflow.RoleBucket) ([]*entity.User, error)
}

// UserRepository adds writes used by directory imports
type UserRepository interface {
	UserDirectory
	Upsert(ctx context.Context, user *entity.User) error
}

// NotificationRepository stores write-once notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
	// MarkRead toggles the read flag of the recipient's own notification
	MarkRead(ctx context.Context, id string, userID int64) (bool, error)
}

// TransactionManager runs fn in a unit of work carried by the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
