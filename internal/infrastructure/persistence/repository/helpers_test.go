package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/sqlite"
	"github.com/tuanbk654123/QLCP-QLKH/pkg/database"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "test.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(sqlite.Migrations()))
	return sqlite.NewDB(db.DB, logger)
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newClaim(seq, owner int64, status workflow.State, details entity.ClaimDetails) *entity.Claim {
	created := baseTime.Add(time.Duration(seq) * time.Minute)
	return &entity.Claim{
		OpaqueID:     "claim-" + string(rune('a'+seq)),
		SequentialID: seq,
		OwnerUserID:  owner,
		Status:       status,
		History: []entity.StatusChange{
			{Status: workflow.StatePending, ActorUserID: owner, Timestamp: created, Note: "created"},
		},
		ClaimDetails: details,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}
