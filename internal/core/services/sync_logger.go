package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

type syncLogger struct {
	BaseService
	repo portsrepo.SyncRunRepository
}

// NewSyncLogger creates a SyncLoggerSvc backed by the sync run repository.
func NewSyncLogger(repo portsrepo.SyncRunRepository) portssvc.SyncLoggerSvc {
	return &syncLogger{repo: repo}
}

var _ portssvc.SyncLoggerSvc = (*syncLogger)(nil)

// Record implements portssvc.SyncLoggerSvc. Failures are logged and swallowed
// so the caller always gets the run result.
func (s *syncLogger) Record(ctx context.Context, result domain.SyncResult) {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	run := domain.SyncRun{
		SyncRunID:  uuid.NewString(),
		TenantID:   result.TenantID,
		Mode:       result.Mode,
		Status:     result.Status,
		RunAt:      result.StartedAt,
		DurationMS: result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		SyncCounts: result.SyncCounts,
		Errors:     errs,
	}

	// The run may have been cut short by a cancelled request; the audit row is still written.
	if err := s.repo.SaveSyncRun(context.WithoutCancel(ctx), run); err != nil {
		s.LogError(ctx, err, "Failed to record sync run",
			slog.String("tenant_id", run.TenantID),
			slog.String("status", string(run.Status)),
			slog.Int("error_count", len(run.Errors)))
		return
	}

	s.LogInfo(ctx, "Sync run recorded",
		slog.String("sync_run_id", run.SyncRunID),
		slog.String("tenant_id", run.TenantID),
		slog.String("mode", string(run.Mode)),
		slog.String("status", string(run.Status)),
		slog.Int64("duration_ms", run.DurationMS))
}
