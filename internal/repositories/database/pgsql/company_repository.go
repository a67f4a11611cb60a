package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/models"
	"github.com/SscSPs/ledger_sync/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCompanyRepository struct {
	BaseRepository
}

func newPgxCompanyRepository(pool *pgxpool.Pool) portsrepo.CompanyRepositoryFacade {
	return &PgxCompanyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CompanyRepositoryFacade = (*PgxCompanyRepository)(nil)

const companySelect = `
SELECT
	c.company_id, c.tenant_id, c.name, c.email, c.phone, c.external_id, c.external_synced_at,
	c.created_at, c.created_by, c.last_updated_at, c.last_updated_by
FROM companies c
`

// companyPending matches companies never pushed or edited after their last push.
const companyPending = `(c.external_id IS NULL OR c.last_updated_at > c.external_synced_at)`

func (r *PgxCompanyRepository) getCompanies(ctx context.Context, filter string, args ...any) ([]domain.Company, error) {
	rows, err := r.Pool.Query(ctx, companySelect+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Company])
	if err != nil {
		return nil, fmt.Errorf("failed to collect company rows: %w", err)
	}
	return mapping.ToDomainCompanySlice(ms), nil
}

func (r *PgxCompanyRepository) getCompany(ctx context.Context, filter string, args ...any) (*domain.Company, error) {
	companies, err := r.getCompanies(ctx, filter, args...)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &companies[0], nil
}

func (r *PgxCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	return r.getCompany(ctx, `WHERE c.company_id = $1`, companyID)
}

func (r *PgxCompanyRepository) FindCompanyByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Company, error) {
	return r.getCompany(ctx, `WHERE c.tenant_id = $1 AND c.external_id = $2`, tenantID, externalID)
}

func (r *PgxCompanyRepository) ListPendingCompanies(ctx context.Context, tenantID string, limit int) ([]domain.Company, error) {
	return r.getCompanies(ctx,
		`WHERE c.tenant_id = $1 AND `+companyPending+` ORDER BY c.created_at, c.company_id LIMIT $2`,
		tenantID, limit)
}

func (r *PgxCompanyRepository) CountPendingCompanies(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies c WHERE c.tenant_id = $1 AND `+companyPending, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending companies: %w", err)
	}
	return n, nil
}

// MarkCompanySynced never overwrites an external id with a different one.
// last_updated_at is left alone so the row stops being pending.
func (r *PgxCompanyRepository) MarkCompanySynced(ctx context.Context, companyID, externalID string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE companies
		SET external_id = $2, external_synced_at = $3
		WHERE company_id = $1 AND (external_id IS NULL OR external_id = $2)`,
		companyID, externalID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer %s is mirrored by another company", domain.ErrExternalIDConflict, externalID)
		}
		return fmt.Errorf("failed to mark company %s synced: %w", companyID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.explainNoUpdate(ctx, "companies", "company_id", companyID, externalID)
}
