// Package sqlite holds the claim store schema and the transaction manager
// shared by the SQLite repositories.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema files, rooted at the migrations directory
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

type txContextKey struct{}

// Querier is what repositories run statements against: the pool, or the
// transaction of the current workflow step.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB is the claim store connection. A claim mutation and the id it allocates
// commit together through WithTransaction.
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB wraps an open pool
func NewDB(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlDB, logger: logger}
}

// WithTransaction runs fn with a transaction carried in its context.
// A call made while ctx already holds one joins it, so only the outermost
// call commits. An error or panic from fn rolls everything back.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("Failed to begin claim transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		p := recover()
		if p == nil && err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to roll back claim transaction", zap.Error(rbErr))
		}
		if p != nil {
			db.logger.Error("Claim transaction panicked", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		return err
	}

	completed = true
	if err = tx.Commit(); err != nil {
		db.logger.Error("Failed to commit claim transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx
}

// Executor picks the transaction in ctx, falling back to the pool
func (db *DB) Executor(ctx context.Context) Querier {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db.DB
}

var _ port.TransactionManager = (*DB)(nil)
