package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"go.uber.org/zap"
)

func TestUserRepository_UpsertAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	ctx := context.Background()

	user := &entity.User{UserID: 10, Username: "an", FullName: "Nguyen An", Email: "an@example.com", RoleCode: "staff", ManagerUserID: "20"}
	require.NoError(t, repo.Upsert(ctx, user))

	got, err := repo.FindByID(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *user, *got)

	user.FullName = "Nguyen Van An"
	user.ManagerUserID = ""
	require.NoError(t, repo.Upsert(ctx, user))

	got, err = repo.FindByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Nguyen Van An", got.FullName)
	_, ok := got.ManagerID()
	assert.False(t, ok)

	missing, err := repo.FindByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, repo.Upsert(ctx, &entity.User{UserID: 0}))
}

func TestUserRepository_FindByRoleMatchesSynonyms(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	ctx := context.Background()

	for _, u := range []*entity.User{
		{UserID: 22, RoleCode: "quan_ly"},
		{UserID: 20, RoleCode: "IP_Manager"},
		{UserID: 21, RoleCode: " manager "},
		{UserID: 30, RoleCode: "giam_doc"},
		{UserID: 10, RoleCode: "staff"},
	} {
		require.NoError(t, repo.Upsert(ctx, u))
	}

	managers, err := repo.FindByRole(ctx, workflow.RoleManager)
	require.NoError(t, err)
	var got []int64
	for _, u := range managers {
		got = append(got, u.UserID)
	}
	assert.Equal(t, []int64{20, 21, 22}, got)

	directors, err := repo.FindByRole(ctx, workflow.RoleDirector)
	require.NoError(t, err)
	require.Len(t, directors, 1)
	assert.Equal(t, int64(30), directors[0].UserID)

	employees, err := repo.FindByRole(ctx, workflow.RoleEmployee)
	require.NoError(t, err)
	assert.Empty(t, employees)
}
