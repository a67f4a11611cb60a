package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// ErrUnknownSyncMode is returned for modes other than full and bidirectional.
var ErrUnknownSyncMode = errors.New("unknown sync mode")

// SchedulerOptions tunes when and how widely the scheduler syncs.
type SchedulerOptions struct {
	// TokenThreshold gates MaybeRun: it proceeds once the access token has at most this long left.
	TokenThreshold time.Duration
	// FullSyncInterval lets MaybeRun proceed when the last full run is older than this.
	FullSyncInterval    time.Duration
	BidirectionalWindow time.Duration
	CatchupWindow       time.Duration
}

// SchedulerDeps groups the collaborators of the sync scheduler.
type SchedulerDeps struct {
	Connections portsrepo.ConnectionReader
	Companies   portsrepo.CompanyReader
	Invoices    portsrepo.InvoiceReader
	SyncRuns    portsrepo.SyncRunRepository
	Tokens      portssvc.TokenManagerSvc
	Pusher      portssvc.EntityPusherSvc
	Puller      portssvc.EntityPullerSvc
	Logger      portssvc.SyncLoggerSvc
	Locker      portssvc.TenantLocker
}

type syncScheduler struct {
	BaseService
	deps SchedulerDeps
	opts SchedulerOptions
}

// NewSyncScheduler creates the SyncSchedulerSvc that orchestrates a run.
func NewSyncScheduler(deps SchedulerDeps, opts SchedulerOptions) portssvc.SyncSchedulerSvc {
	return &syncScheduler{deps: deps, opts: opts}
}

var _ portssvc.SyncSchedulerSvc = (*syncScheduler)(nil)

// MaybeRun implements portssvc.SyncSchedulerSvc.
func (s *syncScheduler) MaybeRun(ctx context.Context, tenantID string, now time.Time) (*domain.SyncResult, *domain.Skipped, error) {
	return s.execute(ctx, tenantID, domain.SyncModeFull, now, true)
}

// Run implements portssvc.SyncSchedulerSvc.
func (s *syncScheduler) Run(ctx context.Context, tenantID string, mode domain.SyncMode, now time.Time) (*domain.SyncResult, *domain.Skipped, error) {
	if mode != domain.SyncModeFull && mode != domain.SyncModeBidirectional {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("%v: %q", ErrUnknownSyncMode, mode))
	}
	return s.execute(ctx, tenantID, mode, now, false)
}

func (s *syncScheduler) execute(ctx context.Context, tenantID string, mode domain.SyncMode, now time.Time, gated bool) (*domain.SyncResult, *domain.Skipped, error) {
	release, err := s.deps.Locker.Obtain(ctx, tenantID)
	if errors.Is(err, portssvc.ErrLockNotObtained) {
		s.LogInfo(ctx, "Sync already in progress, skipping", slog.String("tenant_id", tenantID))
		return nil, &domain.Skipped{Reason: "sync already in progress"}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("obtain tenant lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.LogError(ctx, err, "Failed to release tenant lock", slog.String("tenant_id", tenantID))
		}
	}()

	conn, err := s.deps.Connections.FindActiveConnection(ctx, tenantID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, &domain.Skipped{Reason: "no active accounting connection"}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load connection: %w", err)
	}

	if gated {
		if skipped := s.checkDue(ctx, *conn, now); skipped != nil {
			s.LogDebug(ctx, "Full sync not due", slog.String("tenant_id", tenantID), slog.String("reason", skipped.Reason))
			return nil, skipped, nil
		}
	}

	return s.run(ctx, *conn, mode, now), nil, nil
}

// checkDue returns nil when a gated run should proceed.
func (s *syncScheduler) checkDue(ctx context.Context, conn domain.Connection, now time.Time) *domain.Skipped {
	remaining := conn.TimeRemaining(now)
	if remaining <= s.opts.TokenThreshold {
		return nil
	}
	nextEligible := conn.AccessTokenExpiresAt.Add(-s.opts.TokenThreshold)

	if s.opts.FullSyncInterval > 0 {
		last, err := s.deps.SyncRuns.FindLastSyncRun(ctx, conn.TenantID, domain.SyncModeFull)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil
		case err != nil:
			s.LogError(ctx, err, "Failed to load last full sync run, proceeding", slog.String("tenant_id", conn.TenantID))
			return nil
		}
		cadenceDue := last.RunAt.Add(s.opts.FullSyncInterval)
		if !now.Before(cadenceDue) {
			return nil
		}
		if cadenceDue.Before(nextEligible) {
			nextEligible = cadenceDue
		}
	}

	return &domain.Skipped{
		Reason:         fmt.Sprintf("access token valid for %d more minutes", int(remaining.Minutes())),
		NextEligibleAt: nextEligible,
	}
}

// run drives one run through its phases. It never returns an error; failures
// end up in the result and in the logged sync run.
func (s *syncScheduler) run(ctx context.Context, conn domain.Connection, mode domain.SyncMode, now time.Time) *domain.SyncResult {
	started := time.Now()
	window := s.opts.CatchupWindow
	if mode == domain.SyncModeBidirectional {
		window = s.opts.BidirectionalWindow
	}
	result := &domain.SyncResult{
		TenantID:   conn.TenantID,
		Mode:       mode,
		Phase:      domain.PhaseNotStarted,
		StartedAt:  now,
		WindowFrom: now.Add(-window),
		WindowTo:   now,
	}
	s.LogInfo(ctx, "Sync run started", slog.String("tenant_id", conn.TenantID), slog.String("mode", string(mode)))

	result.Phase = domain.PhaseTokenEnsuring
	conn, refreshed, err := s.deps.Tokens.EnsureValid(ctx, conn, now)
	if err != nil {
		s.LogError(ctx, err, "Sync run aborted by authentication failure", slog.String("tenant_id", conn.TenantID))
		result.PhaseErrors.Fatal = append(result.PhaseErrors.Fatal, err.Error())
		result.Phase = domain.PhaseFailed
		s.finish(ctx, result, now, started)
		return result
	}
	result.TokenRefreshed = refreshed

	result.Phase = domain.PhasePushing
	s.deps.Pusher.PushCustomers(ctx, conn, result)
	s.deps.Pusher.PushInvoices(ctx, conn, result)

	result.Phase = domain.PhasePulling
	s.deps.Puller.Pull(ctx, conn, portssvc.PullOptions{
		From:     result.WindowFrom,
		To:       result.WindowTo,
		Invoices: mode == domain.SyncModeFull,
		Bills:    mode == domain.SyncModeFull,
		Payments: true,
	}, result)

	s.finish(ctx, result, now, started)
	result.Phase = domain.PhaseDone
	return result
}

func (s *syncScheduler) finish(ctx context.Context, result *domain.SyncResult, now, started time.Time) {
	result.Finalize(now.Add(time.Since(started)))
	s.deps.Logger.Record(ctx, *result)
	if result.Phase != domain.PhaseFailed {
		result.Phase = domain.PhaseLogged
	}
	s.LogInfo(ctx, "Sync run finished",
		slog.String("tenant_id", result.TenantID),
		slog.String("status", string(result.Status)),
		slog.Int("customers_pushed", result.CustomersPushed),
		slog.Int("invoices_pushed", result.InvoicesPushed),
		slog.Int("payments_pulled", result.PaymentsPulled),
		slog.Int("error_count", len(result.Errors)))
}

// Status implements portssvc.SyncSchedulerSvc.
func (s *syncScheduler) Status(ctx context.Context, tenantID string, limit int, nextToken *string) (*portssvc.SyncStatus, error) {
	status := &portssvc.SyncStatus{}

	conn, err := s.deps.Connections.FindActiveConnection(ctx, tenantID)
	switch {
	case err == nil:
		status.ConnectionActive = conn.IsActive()
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("load connection: %w", err)
	}

	last, err := s.deps.SyncRuns.FindLastSyncRun(ctx, tenantID)
	switch {
	case err == nil:
		status.LastSync = last
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("load last sync run: %w", err)
	}

	if status.Pending.Customers, err = s.deps.Companies.CountPendingCompanies(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count pending customers: %w", err)
	}
	if status.Pending.Invoices, err = s.deps.Invoices.CountPendingInvoices(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count pending invoices: %w", err)
	}

	status.History, status.NextToken, err = s.deps.SyncRuns.ListSyncRuns(ctx, tenantID, limit, nextToken)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return status, nil
}
