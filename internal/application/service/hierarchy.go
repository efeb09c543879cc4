package service

import (
	"context"
	"fmt"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

// ResolutionSource says how a routing target was found
type ResolutionSource string

const (
	SourceHierarchy ResolutionSource = "hierarchy"
	SourceRole      ResolutionSource = "role"
)

// Resolution is the set of users a routing decision selected
type Resolution struct {
	UserIDs []int64
	Source  ResolutionSource
}

// HierarchyResolver finds approvers by walking manager references in the directory
type HierarchyResolver interface {
	// ResolveApprover returns the next-level approver for the owner's claim.
	// A manager-bucket owner routes to their own manager; anyone else routes
	// to their manager's manager. A broken chain broadcasts to fallback.
	ResolveApprover(ctx context.Context, ownerUserID int64, fallback workflow.RoleBucket) (Resolution, error)

	// ResolveDirectManager returns the owner's immediate manager, or broadcasts to fallback
	ResolveDirectManager(ctx context.Context, ownerUserID int64, fallback workflow.RoleBucket) (Resolution, error)

	// RoleMembers returns every user in the bucket, deduplicated
	RoleMembers(ctx context.Context, bucket workflow.RoleBucket) ([]int64, error)
}

type hierarchyResolverImpl struct {
	directory port.UserDirectory
	logger    Logger
}

// NewHierarchyResolver creates a resolver over the user directory
func NewHierarchyResolver(directory port.UserDirectory, logger Logger) HierarchyResolver {
	return &hierarchyResolverImpl{
		directory: directory,
		logger:    orNop(logger),
	}
}

func (r *hierarchyResolverImpl) ResolveApprover(ctx context.Context, ownerUserID int64, fallback workflow.RoleBucket) (Resolution, error) {
	owner := r.lookup(ctx, ownerUserID)
	hops := 2
	if owner != nil && owner.Bucket() == workflow.RoleManager {
		hops = 1
	}

	if target := r.walk(ctx, owner, hops); target != nil {
		return Resolution{UserIDs: []int64{target.UserID}, Source: SourceHierarchy}, nil
	}

	r.logger.Info("Hierarchy chain incomplete, broadcasting to role",
		"owner_user_id", ownerUserID,
		"hops", hops,
		"fallback_role", fallback,
	)
	return r.broadcast(ctx, fallback)
}

func (r *hierarchyResolverImpl) ResolveDirectManager(ctx context.Context, ownerUserID int64, fallback workflow.RoleBucket) (Resolution, error) {
	if target := r.walk(ctx, r.lookup(ctx, ownerUserID), 1); target != nil {
		return Resolution{UserIDs: []int64{target.UserID}, Source: SourceHierarchy}, nil
	}

	r.logger.Info("No direct manager found, broadcasting to role",
		"owner_user_id", ownerUserID,
		"fallback_role", fallback,
	)
	return r.broadcast(ctx, fallback)
}

func (r *hierarchyResolverImpl) RoleMembers(ctx context.Context, bucket workflow.RoleBucket) ([]int64, error) {
	users, err := r.directory.FindByRole(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("find users in role %s: %w", bucket, err)
	}

	seen := make(map[int64]bool, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		if u == nil || seen[u.UserID] {
			continue
		}
		seen[u.UserID] = true
		ids = append(ids, u.UserID)
	}
	return ids, nil
}

// walk follows manager references from start. Any missing, unparseable or
// dangling reference ends the walk with nil.
func (r *hierarchyResolverImpl) walk(ctx context.Context, start *entity.User, hops int) *entity.User {
	current := start
	for i := 0; i < hops; i++ {
		if current == nil {
			return nil
		}
		managerID, ok := current.ManagerID()
		if !ok {
			return nil
		}
		current = r.lookup(ctx, managerID)
	}
	return current
}

// lookup treats directory errors like a dangling reference
func (r *hierarchyResolverImpl) lookup(ctx context.Context, userID int64) *entity.User {
	u, err := r.directory.FindByID(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to look up user", "user_id", userID, "error", err)
		return nil
	}
	return u
}

func (r *hierarchyResolverImpl) broadcast(ctx context.Context, bucket workflow.RoleBucket) (Resolution, error) {
	if bucket == "" {
		return Resolution{Source: SourceRole}, nil
	}
	ids, err := r.RoleMembers(ctx, bucket)
	if err != nil {
		return Resolution{Source: SourceRole}, err
	}
	return Resolution{UserIDs: ids, Source: SourceRole}, nil
}
