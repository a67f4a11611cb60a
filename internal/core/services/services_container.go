package services

import (
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gateway gateways.AccountingGateway, auth gateways.AuthorizationGateway, locker portssvc.TenantLocker) *portssvc.ServiceContainer {
	// The reconciler backs both the puller and the manual payment API
	reconciler := NewLedgerReconciler(repos.LedgerRepo)

	tokens := NewTokenManager(repos.ConnectionRepo, gateway, cfg.TokenRefreshMargin)
	pusher := NewEntityPusher(repos.CompanyRepo, repos.InvoiceRepo, gateway, cfg.PushBatchSize, cfg.ExternalCallTimeout)
	puller := NewEntityPuller(repos.CompanyRepo, reconciler, gateway, cfg.ExternalCallTimeout)

	scheduler := NewSyncScheduler(SchedulerDeps{
		Connections: repos.ConnectionRepo,
		Companies:   repos.CompanyRepo,
		Invoices:    repos.InvoiceRepo,
		SyncRuns:    repos.SyncRunRepo,
		Tokens:      tokens,
		Pusher:      pusher,
		Puller:      puller,
		Logger:      NewSyncLogger(repos.SyncRunRepo),
		Locker:      locker,
	}, SchedulerOptions{
		TokenThreshold:      cfg.SyncTokenThreshold,
		FullSyncInterval:    cfg.FullSyncInterval,
		BidirectionalWindow: cfg.BidirectionalWindow,
		CatchupWindow:       cfg.CatchupWindow,
	})

	return &portssvc.ServiceContainer{
		Scheduler:   scheduler,
		Payments:    reconciler,
		Billing:     NewBillingService(repos.CompanyRepo, repos.InvoiceRepo),
		Connections: NewConnectionService(repos.ConnectionRepo, auth),
	}
}
