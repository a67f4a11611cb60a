package repositories

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// SyncRunRepository stores the append-only sync audit log.
type SyncRunRepository interface {
	// SaveSyncRun appends one run row.
	SaveSyncRun(ctx context.Context, run domain.SyncRun) error

	// FindLastSyncRun returns the newest run, optionally restricted to the given modes,
	// or apperrors.ErrNotFound.
	FindLastSyncRun(ctx context.Context, tenantID string, modes ...domain.SyncMode) (*domain.SyncRun, error)

	// ListSyncRuns returns runs newest first using token-based pagination.
	ListSyncRuns(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.SyncRun, *string, error)
}
