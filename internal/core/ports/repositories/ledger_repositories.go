package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// LedgerReader defines read operations for AR/AP rows and payments.
type LedgerReader interface {
	// FindLedgerEntryByExternalID finds the receivable or payable row mirroring the external document.
	FindLedgerEntryByExternalID(ctx context.Context, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error)

	// FindPaymentByExternalID finds a payment previously pulled under the external id.
	FindPaymentByExternalID(ctx context.Context, tenantID, externalPaymentID string) (*domain.PaymentTransaction, error)
}

// LedgerWriter defines write operations that do not need an explicit transaction.
type LedgerWriter interface {
	// RefreshOverdueStatuses flips open rows whose due date passed to overdue and returns the count.
	RefreshOverdueStatuses(ctx context.Context, tenantID string, today time.Time) (int64, error)
}

// LedgerTransactionSupport defines operations that run inside a caller-owned transaction.
type LedgerTransactionSupport interface {
	// FindLedgerEntryForUpdate selects a row and locks it for the rest of the transaction.
	FindLedgerEntryForUpdate(ctx context.Context, tx pgx.Tx, kind domain.LedgerKind, entryID string) (*domain.LedgerEntry, error)

	// FindLedgerEntryByExternalIDForUpdate locks the row mirroring the external document.
	FindLedgerEntryByExternalIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, kind domain.LedgerKind, externalID string) (*domain.LedgerEntry, error)

	// InsertLedgerEntryInTx inserts a row mirrored from an external document. It returns
	// false without error when a row with the same (tenant, external id) already exists.
	InsertLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (bool, error)

	// UpdateLedgerEntryInTx persists the document fields, paid components and status of a locked row.
	UpdateLedgerEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) error

	// InsertPaymentInTx inserts a payment. It returns false without error when a payment
	// with the same (tenant, external payment id) already exists.
	InsertPaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.PaymentTransaction) (bool, error)

	// FindPaymentForUpdate selects and locks a payment row.
	FindPaymentForUpdate(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*domain.PaymentTransaction, error)

	// DeletePaymentInTx removes a payment row.
	DeletePaymentInTx(ctx context.Context, tx pgx.Tx, paymentID string) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
	LedgerTransactionSupport
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
