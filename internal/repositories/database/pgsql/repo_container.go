package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/platform/crypto"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every Postgres repository. sealer protects the
// OAuth tokens stored with accounting connections.
func NewRepositoryProvider(dbPool *pgxpool.Pool, sealer crypto.Sealer) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ConnectionRepo: newPgxConnectionRepository(dbPool, sealer),
		CompanyRepo:    newPgxCompanyRepository(dbPool),
		InvoiceRepo:    newPgxInvoiceRepository(dbPool),
		LedgerRepo:     newPgxLedgerRepository(dbPool),
		SyncRunRepo:    newPgxSyncRunRepository(dbPool),
	}
}
