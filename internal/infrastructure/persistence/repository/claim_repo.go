package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"github.com/tuanbk654123/QLCP-QLKH/internal/application/query"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/entity"
	"github.com/tuanbk654123/QLCP-QLKH/internal/domain/workflow"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const claimSequence = "claims"

// ClaimRepository implements port.ClaimRepository.
// Each claim is one JSON document; identity, owner, status and timestamps are
// mirrored into columns for indexing.
type ClaimRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sqlite.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// FindBySequentialID retrieves a claim by its public id
func (r *ClaimRepository) FindBySequentialID(ctx context.Context, id int64) (*entity.Claim, error) {
	q := `SELECT opaque_id, document FROM claims WHERE sequential_id = ?`

	var opaqueID, document string
	err := r.db.Executor(ctx).QueryRowContext(ctx, q, id).Scan(&opaqueID, &document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("claim_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	return decodeClaim(opaqueID, document)
}

// List returns one page of claims matching q
func (r *ClaimRepository) List(ctx context.Context, q query.ClaimQuery) ([]*entity.Claim, error) {
	where, args := buildWhere(q)

	order := "ASC"
	if q.Sort.Descending {
		order = "DESC"
	}
	sortColumn := q.Sort.Field.Column
	if sortColumn == "" {
		sortColumn = query.DefaultSortField.Column
	}

	stmt := fmt.Sprintf(`SELECT opaque_id, document FROM claims%s ORDER BY %s %s, sequential_id %s`,
		where, sortColumn, order, order)
	if q.PageSize > 0 {
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, q.PageSize, q.Offset())
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, stmt, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		var opaqueID, document string
		if err := rows.Scan(&opaqueID, &document); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claim, err := decodeClaim(opaqueID, document)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// Count returns the number of claims matching q, ignoring pagination
func (r *ClaimRepository) Count(ctx context.Context, q query.ClaimQuery) (int64, error) {
	where, args := buildWhere(q)

	var count int64
	err := r.db.Executor(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM claims"+where, args...).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count claims", zap.Error(err))
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return count, nil
}

// Insert stores a new claim
func (r *ClaimRepository) Insert(ctx context.Context, claim *entity.Claim) error {
	if claim.OpaqueID == "" {
		return fmt.Errorf("claim opaque id is required")
	}

	document, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("failed to encode claim: %w", err)
	}

	q := `
		INSERT INTO claims (opaque_id, sequential_id, owner_user_id, status, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Executor(ctx).ExecContext(ctx, q,
		claim.OpaqueID,
		claim.SequentialID,
		claim.OwnerUserID,
		string(claim.Status),
		string(document),
		claim.CreatedAt.UTC(),
		claim.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to insert claim",
			zap.Int64("claim_id", claim.SequentialID),
			zap.Error(err))
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	return nil
}

// Replace overwrites the stored claim with the same sequential id
func (r *ClaimRepository) Replace(ctx context.Context, claim *entity.Claim) error {
	document, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("failed to encode claim: %w", err)
	}

	q := `
		UPDATE claims
		SET owner_user_id = ?, status = ?, document = ?, updated_at = ?
		WHERE sequential_id = ?
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, q,
		claim.OwnerUserID,
		string(claim.Status),
		string(document),
		claim.UpdatedAt.UTC(),
		claim.SequentialID,
	)
	if err != nil {
		r.logger.Error("Failed to replace claim",
			zap.Int64("claim_id", claim.SequentialID),
			zap.Error(err))
		return fmt.Errorf("failed to replace claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %d: %w", claim.SequentialID, workflow.ErrNotFound)
	}
	return nil
}

// Delete removes a claim and reports whether it existed
func (r *ClaimRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM claims WHERE sequential_id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete claim", zap.Int64("claim_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// NextSequentialID allocates the next claim id from the sequences table.
// The counter never falls behind the largest stored id.
func (r *ClaimRepository) NextSequentialID(ctx context.Context) (int64, error) {
	q := `
		INSERT INTO sequences (name, value)
		VALUES (?, (SELECT COALESCE(MAX(sequential_id), 0) + 1 FROM claims))
		ON CONFLICT(name) DO UPDATE
		SET value = MAX(value, (SELECT COALESCE(MAX(sequential_id), 0) FROM claims)) + 1
		RETURNING value
	`

	var next int64
	if err := r.db.Executor(ctx).QueryRowContext(ctx, q, claimSequence).Scan(&next); err != nil {
		r.logger.Error("Failed to allocate claim id", zap.Error(err))
		return 0, fmt.Errorf("failed to allocate claim id: %w", err)
	}
	return next, nil
}

func decodeClaim(opaqueID, document string) (*entity.Claim, error) {
	var claim entity.Claim
	if err := json.Unmarshal([]byte(document), &claim); err != nil {
		return nil, fmt.Errorf("failed to decode claim: %w", err)
	}
	claim.OpaqueID = opaqueID
	claim.Normalize()
	return &claim, nil
}

func buildWhere(q query.ClaimQuery) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if q.OwnerUserID != nil {
		conds = append(conds, "owner_user_id = ?")
		args = append(args, *q.OwnerUserID)
	}

	if q.Search != "" {
		pattern := likePattern(strings.ToLower(q.Search))
		var or []string
		for _, f := range query.SearchFields() {
			or = append(or, "LOWER(COALESCE("+f.Column+", '')) LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		conds = append(conds, "("+strings.Join(or, " OR ")+")")
	}

	for _, f := range q.Filters {
		switch f.Field.Kind {
		case query.KindInt:
			conds = append(conds, f.Field.Column+" = ?")
			args = append(args, f.Int)
		case query.KindDecimal:
			conds = append(conds, f.Field.Column+" = ?")
			args = append(args, f.Decimal)
		case query.KindStatus:
			conds = append(conds, f.Field.Column+" = ?")
			args = append(args, string(f.Status))
		default:
			conds = append(conds, "LOWER(COALESCE("+f.Field.Column+", '')) LIKE ? ESCAPE '\\'")
			args = append(args, likePattern(f.Text))
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
