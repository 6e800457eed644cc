package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// Chain scopes for advisory locking. The journal chain is one lock per
// company; the fiscal chain is one per company and document type.
const (
	journalChainScope  = "JOURNAL"
	documentChainScope = "DOCUMENT"
)

// chainLockKey derives a 64-bit advisory lock key for a chain scope.
func chainLockKey(companyID string, scope string) int64 {
	h := fnv.New64a()
	h.Write([]byte(companyID))
	h.Write([]byte{'|'})
	h.Write([]byte(scope))
	return int64(h.Sum64())
}

// acquireChainLockTx serializes writers of one hash chain for the duration
// of the transaction. pg_advisory_xact_lock releases automatically on
// commit or rollback.
func acquireChainLockTx(ctx context.Context, tx pgx.Tx, companyID string, scope string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, chainLockKey(companyID, scope)); err != nil {
		return apperrors.NewAppError(500, "failed to acquire chain lock for company "+companyID, err)
	}
	return nil
}
