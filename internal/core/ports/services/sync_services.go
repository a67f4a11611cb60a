package services

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// ErrLockNotObtained is returned by a TenantLocker when another run holds the tenant lock.
var ErrLockNotObtained = errors.New("tenant sync lock not obtained")

// TokenManagerSvc guarantees a usable access token for one sync run.
type TokenManagerSvc interface {
	// EnsureValid returns the connection unchanged when its token is far from expiry,
	// otherwise refreshes and persists the new tokens. Failures are *apperrors.AuthError.
	EnsureValid(ctx context.Context, conn domain.Connection, now time.Time) (domain.Connection, bool, error)
}

// EntityPusherSvc mirrors locally created records to the external system.
type EntityPusherSvc interface {
	// PushCustomers pushes pending companies; per-entity failures are appended to result.
	PushCustomers(ctx context.Context, conn domain.Connection, result *domain.SyncResult)

	// PushInvoices pushes unsynced invoices whose company is synced.
	PushInvoices(ctx context.Context, conn domain.Connection, result *domain.SyncResult)
}

// PullOptions selects which entity kinds a pull covers and the window.
type PullOptions struct {
	From     time.Time
	To       time.Time
	Invoices bool
	Bills    bool
	Payments bool
}

// EntityPullerSvc mirrors externally created records locally.
type EntityPullerSvc interface {
	// Pull imports the selected entity kinds within the window; per-entity failures are appended to result.
	Pull(ctx context.Context, conn domain.Connection, opts PullOptions, result *domain.SyncResult)
}

// ApplyOutcome reports what the reconciler did with a pulled payment.
type ApplyOutcome string

const (
	OutcomeApplied        ApplyOutcome = "applied"
	OutcomeAlreadyApplied ApplyOutcome = "already_applied"
	OutcomeUnresolved     ApplyOutcome = "unresolved"
)

// LedgerReconcilerSvc is the only writer of the paid amounts on AR/AP rows.
type LedgerReconcilerSvc interface {
	// MirrorDocument inserts or refreshes the row mirroring an external invoice or bill
	// under a row lock. A document whose amount fell below what is already paid is
	// refused with a ReconciliationError and the row is left as is.
	MirrorDocument(ctx context.Context, snapshot domain.LedgerEntry, today time.Time) (created bool, err error)

	// ApplyExternalPayment resolves the linked ledger row and applies the payment once.
	// A payment already reflected in the row's latest snapshot does not move amount_paid.
	ApplyExternalPayment(ctx context.Context, tenantID string, payment domain.ExternalPayment, today time.Time) (ApplyOutcome, error)
}

// SyncLoggerSvc writes the per-run audit row.
type SyncLoggerSvc interface {
	// Record persists the run summary. It never fails; errors are logged.
	Record(ctx context.Context, result domain.SyncResult)
}

// SyncStatus is what the status endpoint exposes.
type SyncStatus struct {
	ConnectionActive bool
	LastSync         *domain.SyncRun
	Pending          domain.PendingCount
	History          []domain.SyncRun
	NextToken        *string
}

// SyncSchedulerSvc is the entry point invoked by the cron trigger.
type SyncSchedulerSvc interface {
	// MaybeRun runs a full sync only when the access token is close to expiry
	// or the outer cadence elapsed; otherwise it returns a Skipped reason.
	MaybeRun(ctx context.Context, tenantID string, now time.Time) (*domain.SyncResult, *domain.Skipped, error)

	// Run executes a sync of the given mode unconditionally.
	Run(ctx context.Context, tenantID string, mode domain.SyncMode, now time.Time) (*domain.SyncResult, *domain.Skipped, error)

	// Status summarizes connection state, pending pushes and run history.
	Status(ctx context.Context, tenantID string, limit int, nextToken *string) (*SyncStatus, error)
}

// TenantLocker prevents overlapping runs for the same tenant.
type TenantLocker interface {
	// Obtain acquires the tenant lock or returns ErrLockNotObtained.
	Obtain(ctx context.Context, tenantID string) (release func(context.Context) error, err error)
}
