// Package directory loads organization users from YAML files into a user store.
package directory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/pkg/utils"
)

// File is the on-disk directory document
type File struct {
	Users []*entity.User `yaml:"users"`
}

// Parse decodes and validates a directory document
func Parse(r io.Reader) ([]*entity.User, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("directory file is empty")
		}
		return nil, fmt.Errorf("failed to decode directory file: %w", err)
	}

	seen := make(map[int64]bool, len(f.Users))
	for i, u := range f.Users {
		if u == nil {
			return nil, fmt.Errorf("user #%d: empty entry", i+1)
		}
		if err := validate(u); err != nil {
			return nil, fmt.Errorf("user #%d: %w", i+1, err)
		}
		if seen[u.UserID] {
			return nil, fmt.Errorf("user #%d: duplicate user_id %d", i+1, u.UserID)
		}
		seen[u.UserID] = true
	}

	return f.Users, nil
}

func validate(u *entity.User) error {
	if u.UserID <= 0 {
		return fmt.Errorf("user_id must be positive")
	}
	if err := utils.ValidateRequired("username", u.Username); err != nil {
		return err
	}
	u.Email = strings.TrimSpace(u.Email)
	if u.Email != "" {
		if err := utils.ValidateEmail(u.Email); err != nil {
			return err
		}
	}
	return nil
}

// Importer writes parsed users into a repository
type Importer struct {
	users  port.UserRepository
	logger *zap.Logger
}

// NewImporter creates a new importer
func NewImporter(users port.UserRepository, logger *zap.Logger) *Importer {
	return &Importer{users: users, logger: logger}
}

// Import upserts every user and returns how many were written.
// It stops at the first failure.
func (i *Importer) Import(ctx context.Context, users []*entity.User) (int, error) {
	for n, u := range users {
		if err := i.users.Upsert(ctx, u); err != nil {
			i.logger.Error("Failed to import user", zap.Int64("user_id", u.UserID), zap.Error(err))
			return n, fmt.Errorf("failed to import user %d: %w", u.UserID, err)
		}
		i.logger.Debug("Imported user",
			zap.Int64("user_id", u.UserID),
			zap.String("role_bucket", u.Bucket().String()))
	}
	return len(users), nil
}
