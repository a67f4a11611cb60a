package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/models"
	"github.com/SscSPs/ledger_sync/internal/utils/mapping"
	"github.com/SscSPs/ledger_sync/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSyncRunRepository struct {
	db *pgxpool.Pool
}

func newPgxSyncRunRepository(db *pgxpool.Pool) portsrepo.SyncRunRepository {
	return &PgxSyncRunRepository{db: db}
}

var _ portsrepo.SyncRunRepository = (*PgxSyncRunRepository)(nil)

const syncRunSelect = `
SELECT
	sync_run_id, tenant_id, mode, status, run_at, duration_ms,
	customers_pushed, invoices_pushed, invoices_pulled, bills_pulled, payments_pulled, payments_skipped, errors
FROM sync_runs
`

func (r *PgxSyncRunRepository) SaveSyncRun(ctx context.Context, run domain.SyncRun) error {
	m := mapping.ToModelSyncRun(run)
	errs, err := json.Marshal(m.Errors)
	if err != nil {
		return fmt.Errorf("failed to encode sync run errors: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO sync_runs (
			sync_run_id, tenant_id, mode, status, run_at, duration_ms,
			customers_pushed, invoices_pushed, invoices_pulled, bills_pulled, payments_pulled, payments_skipped, errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)`,
		m.SyncRunID, m.TenantID, m.Mode, m.Status, m.RunAt, m.DurationMS,
		m.CustomersPushed, m.InvoicesPushed, m.InvoicesPulled, m.BillsPulled, m.PaymentsPulled, m.PaymentsSkipped,
		string(errs))
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save sync run: %w", err)
	}
	return nil
}

func (r *PgxSyncRunRepository) FindLastSyncRun(ctx context.Context, tenantID string, modes ...domain.SyncMode) (*domain.SyncRun, error) {
	filter := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if len(modes) > 0 {
		names := make([]string, len(modes))
		for i, m := range modes {
			names[i] = string(m)
		}
		filter += ` AND mode = ANY($2)`
		args = append(args, names)
	}

	rows, err := r.db.Query(ctx, syncRunSelect+filter+` ORDER BY run_at DESC, sync_run_id DESC LIMIT 1`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync run: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.SyncRun])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to collect last sync run: %w", err)
	}
	run := mapping.ToDomainSyncRun(m)
	return &run, nil
}

// ListSyncRuns pages newest first on (run_at, sync_run_id). One extra row is
// fetched to decide whether a next token exists.
func (r *PgxSyncRunRepository) ListSyncRuns(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.SyncRun, *string, error) {
	limit = pagination.ClampLimit(limit)
	filter := `WHERE tenant_id = $1`
	args := []any{tenantID}
	if nextToken != nil && *nextToken != "" {
		at, id, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid pagination token")
		}
		filter += ` AND (run_at, sync_run_id) < ($2, $3)`
		args = append(args, at, id)
	}
	args = append(args, limit+1)
	query := fmt.Sprintf(`%s%s ORDER BY run_at DESC, sync_run_id DESC LIMIT $%d`, syncRunSelect, filter, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.SyncRun])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to collect sync runs: %w", err)
	}

	var next *string
	if len(ms) > limit {
		ms = ms[:limit]
		last := ms[len(ms)-1]
		token := pagination.EncodeCursor(last.RunAt, last.SyncRunID)
		next = &token
	}
	return mapping.ToDomainSyncRunSlice(ms), next, nil
}
