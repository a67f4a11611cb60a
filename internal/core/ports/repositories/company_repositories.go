package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// CompanyReader defines read operations for companies.
type CompanyReader interface {
	// FindCompanyByID retrieves a company by its id.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// FindCompanyByExternalID retrieves the company mirrored as the given external customer.
	FindCompanyByExternalID(ctx context.Context, tenantID, externalID string) (*domain.Company, error)

	// ListPendingCompanies lists companies that were never pushed or changed since their last push.
	ListPendingCompanies(ctx context.Context, tenantID string, limit int) ([]domain.Company, error)

	// CountPendingCompanies counts companies ListPendingCompanies would return without a limit.
	CountPendingCompanies(ctx context.Context, tenantID string) (int, error)
}

// CompanyWriter defines write operations for companies.
type CompanyWriter interface {
	// MarkCompanySynced stores the external customer id (set-once) and sync time.
	MarkCompanySynced(ctx context.Context, companyID, externalID string, at time.Time) error
}

// CompanyRepositoryFacade combines all company repository interfaces.
type CompanyRepositoryFacade interface {
	CompanyReader
	CompanyWriter
}
