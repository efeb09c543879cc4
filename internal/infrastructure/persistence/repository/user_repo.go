package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const userColumns = `user_id, username, full_name, email, role_code, manager_id, department`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves a user by legacy numeric id
func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`

	user, err := scanUser(r.db.Executor(ctx).QueryRowContext(ctx, q, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindByRole lists users whose role code belongs to bucket, ordered by id
func (r *UserRepository) FindByRole(ctx context.Context, bucket workflow.RoleBucket) ([]*entity.User, error) {
	codes := workflow.CodesFor(bucket)
	if len(codes) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(TRIM(role_code)) IN (` + placeholders + `) ORDER BY user_id`

	args := make([]interface{}, len(codes))
	for i, c := range codes {
		args[i] = c
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.String("role", string(bucket)), zap.Error(err))
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Upsert inserts or replaces a directory entry
func (r *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	if user.UserID <= 0 {
		return fmt.Errorf("user id must be positive: %d", user.UserID)
	}

	q := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			email = excluded.email,
			role_code = excluded.role_code,
			manager_id = excluded.manager_id,
			department = excluded.department
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, q,
		user.UserID,
		user.Username,
		user.FullName,
		user.Email,
		user.RoleCode,
		user.ManagerUserID,
		user.Department,
	)
	if err != nil {
		r.logger.Error("Failed to upsert user", zap.Int64("user_id", user.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.FullName,
		&u.Email,
		&u.RoleCode,
		&u.ManagerUserID,
		&u.Department,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
