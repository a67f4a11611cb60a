package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to rollback transaction", err)
	}
	return nil
}

// withTx runs fn in a transaction owned by the repository.
func (r *BaseRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = r.Rollback(ctx, tx)
		return err
	}
	return r.Commit(ctx, tx)
}

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == pgUniqueViolation
}

// explainNoUpdate distinguishes a missing row from a set-once violation after
// a guarded UPDATE touched nothing.
func (r *BaseRepository) explainNoUpdate(ctx context.Context, table, idColumn, id, externalID string) error {
	var current *string
	err := r.Pool.QueryRow(ctx, `SELECT external_id FROM `+table+` WHERE `+idColumn+` = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to read %s %s: %w", table, id, err)
	}
	return fmt.Errorf("%w: %s %s already mirrors %s, refusing %s", domain.ErrExternalIDConflict, table, id, nullText(current), externalID)
}

func nullText(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
