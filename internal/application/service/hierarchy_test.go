package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
)

func TestHierarchyResolver_ResolveApprover(t *testing.T) {
	tests := []struct {
		name   string
		owner  int64
		want   []int64
		source ResolutionSource
	}{
		{"employee reaches manager's manager", 10, []int64{30}, SourceHierarchy},
		{"manager reaches own manager", 20, []int64{30}, SourceHierarchy},
		{"dangling manager falls back", 11, []int64{30, 31}, SourceRole},
		{"manager without manager falls back", 12, []int64{30, 31}, SourceRole},
		{"non numeric manager falls back", 13, []int64{30, 31}, SourceRole},
		{"director owner without manager falls back", 30, []int64{30, 31}, SourceRole},
		{"unknown owner falls back", 999, []int64{30, 31}, SourceRole},
	}

	resolver := NewHierarchyResolver(testDirectory(), nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := resolver.ResolveApprover(context.Background(), tt.owner, workflow.RoleDirector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.UserIDs)
			assert.Equal(t, tt.source, res.Source)
		})
	}
}

func TestHierarchyResolver_ResolveDirectManager(t *testing.T) {
	resolver := NewHierarchyResolver(testDirectory(), nil)

	res, err := resolver.ResolveDirectManager(context.Background(), 10, workflow.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, res.UserIDs)

	res, err = resolver.ResolveDirectManager(context.Background(), 11, workflow.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 22}, res.UserIDs)
	assert.Equal(t, SourceRole, res.Source)
}

func TestHierarchyResolver_DirectoryErrors(t *testing.T) {
	dir := testDirectory()
	dir.findByIDErr = errStore
	resolver := NewHierarchyResolver(dir, nil)

	res, err := resolver.ResolveApprover(context.Background(), 10, workflow.RoleDirector)
	require.NoError(t, err)
	assert.Equal(t, SourceRole, res.Source)
	assert.Equal(t, []int64{30, 31}, res.UserIDs)

	dir.findRoleErr = errStore
	_, err = resolver.ResolveApprover(context.Background(), 10, workflow.RoleDirector)
	assert.ErrorIs(t, err, errStore)
}

func TestHierarchyResolver_EmptyFallback(t *testing.T) {
	resolver := NewHierarchyResolver(testDirectory(), nil)
	res, err := resolver.ResolveApprover(context.Background(), 11, "")
	require.NoError(t, err)
	assert.Empty(t, res.UserIDs)
}
