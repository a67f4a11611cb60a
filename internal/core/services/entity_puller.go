package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// entityPuller mirrors external invoices, bills and payments locally.
type entityPuller struct {
	BaseService
	companyRepo portsrepo.CompanyReader
	reconciler  portssvc.LedgerReconcilerSvc
	gateway     gateways.AccountingGateway
	validate    *validator.Validate
	callTimeout time.Duration
}

// NewEntityPuller creates an EntityPullerSvc.
func NewEntityPuller(
	companyRepo portsrepo.CompanyReader,
	reconciler portssvc.LedgerReconcilerSvc,
	gateway gateways.AccountingGateway,
	callTimeout time.Duration,
) portssvc.EntityPullerSvc {
	return &entityPuller{
		companyRepo: companyRepo,
		reconciler:  reconciler,
		gateway:     gateway,
		validate:    validator.New(),
		callTimeout: callTimeout,
	}
}

var _ portssvc.EntityPullerSvc = (*entityPuller)(nil)

// Pull implements portssvc.EntityPullerSvc. Documents are pulled before
// payments so payments can resolve against rows created in the same run.
func (s *entityPuller) Pull(ctx context.Context, conn domain.Connection, opts portssvc.PullOptions, result *domain.SyncResult) {
	today := domain.DateOnly(opts.To)

	if opts.Invoices {
		s.pullInvoices(ctx, conn, opts, today, result)
	}
	if opts.Bills {
		s.pullBills(ctx, conn, opts, today, result)
	}
	if opts.Payments {
		s.pullPayments(ctx, conn, opts, today, result)
	}
}

func (s *entityPuller) pullInvoices(ctx context.Context, conn domain.Connection, opts portssvc.PullOptions, today time.Time, result *domain.SyncResult) {
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	invoices, err := s.gateway.ListInvoices(callCtx, conn, opts.From, opts.To)
	cancel()
	if err != nil {
		s.recordListError(ctx, apperrors.EntityInvoice, err, result)
		return
	}

	for _, inv := range invoices {
		if err := s.mirrorInvoice(ctx, conn.TenantID, inv, today); err != nil {
			s.recordDocumentError(ctx, apperrors.EntityInvoice, inv.ExternalID, err, result)
			continue
		}
		result.InvoicesPulled++
	}
}

func (s *entityPuller) mirrorInvoice(ctx context.Context, tenantID string, inv domain.ExternalInvoice, today time.Time) error {
	if err := s.validate.Struct(inv); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	snapshot := inv.LedgerEntry(tenantID, today)
	company, err := s.companyRepo.FindCompanyByExternalID(ctx, tenantID, inv.CustomerExternalID)
	switch {
	case err == nil:
		snapshot.CompanyID = company.CompanyID
		if snapshot.Counterparty == "" {
			snapshot.Counterparty = company.Name
		}
	case errors.Is(err, apperrors.ErrNotFound):
		// Customer unknown locally; the receivable is still mirrored without a company.
	default:
		return fmt.Errorf("resolve customer %s: %w", inv.CustomerExternalID, err)
	}

	return s.upsert(ctx, snapshot, today)
}

func (s *entityPuller) pullBills(ctx context.Context, conn domain.Connection, opts portssvc.PullOptions, today time.Time, result *domain.SyncResult) {
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	bills, err := s.gateway.ListBills(callCtx, conn, opts.From, opts.To)
	cancel()
	if err != nil {
		s.recordListError(ctx, apperrors.EntityBill, err, result)
		return
	}

	for _, bill := range bills {
		err := s.validate.Struct(bill)
		if err == nil {
			err = s.upsert(ctx, bill.LedgerEntry(conn.TenantID, today), today)
		}
		if err != nil {
			s.recordDocumentError(ctx, apperrors.EntityBill, bill.ExternalID, err, result)
			continue
		}
		result.BillsPulled++
	}
}

// upsert hands the snapshot to the reconciler, which merges it under a row lock.
func (s *entityPuller) upsert(ctx context.Context, snapshot domain.LedgerEntry, today time.Time) error {
	created, err := s.reconciler.MirrorDocument(ctx, snapshot, today)
	if err != nil {
		return err
	}
	s.LogDebug(ctx, "Mirrored external document",
		slog.String("kind", string(snapshot.Kind)),
		slog.String("external_id", snapshot.ExternalID),
		slog.Bool("created", created))
	return nil
}

func (s *entityPuller) pullPayments(ctx context.Context, conn domain.Connection, opts portssvc.PullOptions, today time.Time, result *domain.SyncResult) {
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	payments, err := s.gateway.ListPayments(callCtx, conn, opts.From, opts.To)
	cancel()
	if err != nil {
		s.recordListError(ctx, apperrors.EntityPayment, err, result)
		return
	}

	for _, payment := range payments {
		if err := s.validate.Struct(payment); err != nil {
			s.recordPullError(ctx, &apperrors.EntityPullError{Kind: apperrors.EntityPayment, ExternalID: payment.ExternalID, Err: fmt.Errorf("invalid payment: %w", err)}, result)
			continue
		}

		outcome, err := s.reconciler.ApplyExternalPayment(ctx, conn.TenantID, payment, today)
		if err != nil {
			s.recordDocumentError(ctx, apperrors.EntityPayment, payment.ExternalID, err, result)
			continue
		}

		switch outcome {
		case portssvc.OutcomeApplied:
			result.PaymentsPulled++
		case portssvc.OutcomeUnresolved:
			s.LogInfo(ctx, "Payment references an unknown document, retrying next run",
				slog.String("external_payment_id", payment.ExternalID),
				slog.String("linked_external_id", payment.LinkedExternalID))
			result.PaymentsSkipped++
		case portssvc.OutcomeAlreadyApplied:
			result.PaymentsSkipped++
		}
	}
}

// recordDocumentError files reconciliation failures apart from plain pull
// failures so they stand out in the run's error list.
func (s *entityPuller) recordDocumentError(ctx context.Context, kind apperrors.EntityKind, externalID string, err error, result *domain.SyncResult) {
	var reconErr *apperrors.ReconciliationError
	if errors.As(err, &reconErr) {
		s.LogError(ctx, reconErr, "Ledger reconciliation failed, manual review required",
			slog.String("tenant_id", reconErr.TenantID),
			slog.String("kind", string(kind)),
			slog.String("external_payment_id", reconErr.ExternalPaymentID),
			slog.String("ledger_entry_id", reconErr.LedgerEntryID),
			slog.String("linked_external_id", reconErr.LinkedExternalID),
			slog.String("amount", reconErr.Amount.StringFixed(2)))
		result.PhaseErrors.Reconciliation = append(result.PhaseErrors.Reconciliation, reconErr.Error())
		return
	}
	s.recordPullError(ctx, &apperrors.EntityPullError{Kind: kind, ExternalID: externalID, Err: err}, result)
}

func (s *entityPuller) recordListError(ctx context.Context, kind apperrors.EntityKind, err error, result *domain.SyncResult) {
	s.LogError(ctx, err, "Failed to list external records", slog.String("kind", string(kind)))
	result.PhaseErrors.Pull = append(result.PhaseErrors.Pull, fmt.Sprintf("list %ss: %v", kind, err))
}

func (s *entityPuller) recordPullError(ctx context.Context, pullErr *apperrors.EntityPullError, result *domain.SyncResult) {
	s.LogError(ctx, pullErr, "External record pull failed")
	result.PhaseErrors.Pull = append(result.PhaseErrors.Pull, pullErr.Error())
}
