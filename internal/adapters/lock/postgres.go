// Package lock provides TenantLocker implementations that keep two sync
// runs for the same tenant from overlapping.
package lock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// PostgresLocker uses a session-level advisory lock held on a dedicated
// pooled connection for the length of the run.
type PostgresLocker struct {
	pool *pgxpool.Pool
}

// NewPostgresLocker creates a locker backed by pg_try_advisory_lock.
func NewPostgresLocker(pool *pgxpool.Pool) *PostgresLocker {
	return &PostgresLocker{pool: pool}
}

var _ portssvc.TenantLocker = (*PostgresLocker)(nil)

// Obtain implements portssvc.TenantLocker.
func (l *PostgresLocker) Obtain(ctx context.Context, tenantID string) (func(context.Context) error, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", lockKey(tenantID)).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, portssvc.ErrLockNotObtained
	}

	return func(ctx context.Context) error {
		defer conn.Release()
		var unlocked bool
		if err := conn.QueryRow(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock(hashtext($1))", lockKey(tenantID)).Scan(&unlocked); err != nil {
			// The session still holds the lock; drop the connection so the server frees it.
			_ = conn.Conn().Close(context.WithoutCancel(ctx))
			return fmt.Errorf("advisory unlock: %w", err)
		}
		if !unlocked {
			return fmt.Errorf("advisory lock for tenant %s was not held", tenantID)
		}
		return nil
	}, nil
}

func lockKey(tenantID string) string {
	return "ledger_sync:" + tenantID
}
