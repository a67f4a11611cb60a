package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager lets a service apply several ledger writes atomically.
// A reconciled payment and the balance change it causes commit together or not at all.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	// Rollback is a no-op on a transaction that already committed.
	Rollback(ctx context.Context, tx pgx.Tx) error
}
