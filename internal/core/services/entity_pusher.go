package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

var errNoLineItems = errors.New("invoice has no line items")

// entityPusher mirrors local companies and invoices to the accounting system.
type entityPusher struct {
	BaseService
	companyRepo portsrepo.CompanyRepositoryFacade
	invoiceRepo portsrepo.InvoiceRepositoryFacade
	gateway     gateways.AccountingGateway
	batchSize   int
	callTimeout time.Duration
}

// NewEntityPusher creates an EntityPusherSvc.
func NewEntityPusher(
	companyRepo portsrepo.CompanyRepositoryFacade,
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	gateway gateways.AccountingGateway,
	batchSize int,
	callTimeout time.Duration,
) portssvc.EntityPusherSvc {
	return &entityPusher{
		companyRepo: companyRepo,
		invoiceRepo: invoiceRepo,
		gateway:     gateway,
		batchSize:   batchSize,
		callTimeout: callTimeout,
	}
}

var _ portssvc.EntityPusherSvc = (*entityPusher)(nil)

// PushCustomers implements portssvc.EntityPusherSvc.
func (s *entityPusher) PushCustomers(ctx context.Context, conn domain.Connection, result *domain.SyncResult) {
	companies, err := s.companyRepo.ListPendingCompanies(ctx, conn.TenantID, s.batchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending customers", slog.String("tenant_id", conn.TenantID))
		result.PhaseErrors.Customers = append(result.PhaseErrors.Customers, fmt.Sprintf("list pending customers: %v", err))
		return
	}

	for _, company := range companies {
		if err := s.pushCustomer(ctx, conn, company); err != nil {
			pushErr := &apperrors.EntityPushError{Kind: apperrors.EntityCustomer, LocalID: company.CompanyID, Label: company.Name, Err: err}
			s.LogError(ctx, pushErr, "Customer push failed", slog.String("company_id", company.CompanyID))
			result.PhaseErrors.Customers = append(result.PhaseErrors.Customers, pushErr.Error())
			continue
		}
		result.CustomersPushed++
	}
}

func (s *entityPusher) pushCustomer(ctx context.Context, conn domain.Connection, company domain.Company) error {
	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()

	externalID, err := s.gateway.UpsertCustomer(callCtx, conn, company.CustomerPayload())
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := company.Sync.MarkSynced(externalID, now); err != nil {
		return err
	}
	if err := s.companyRepo.MarkCompanySynced(ctx, company.CompanyID, externalID, now); err != nil {
		return fmt.Errorf("store external id %s: %w", externalID, err)
	}
	s.LogDebug(ctx, "Customer pushed", slog.String("company_id", company.CompanyID), slog.String("external_id", externalID))
	return nil
}

// PushInvoices implements portssvc.EntityPusherSvc. Invoices whose company has
// no external id yet are not listed and wait for a later run.
func (s *entityPusher) PushInvoices(ctx context.Context, conn domain.Connection, result *domain.SyncResult) {
	pending, err := s.invoiceRepo.ListPendingInvoices(ctx, conn.TenantID, s.batchSize)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending invoices", slog.String("tenant_id", conn.TenantID))
		result.PhaseErrors.Invoices = append(result.PhaseErrors.Invoices, fmt.Sprintf("list pending invoices: %v", err))
		return
	}

	for _, pi := range pending {
		if err := s.pushInvoice(ctx, conn, pi); err != nil {
			pushErr := &apperrors.EntityPushError{Kind: apperrors.EntityInvoice, LocalID: pi.Invoice.InvoiceID, Label: pi.Invoice.InvoiceNumber, Err: err}
			s.LogError(ctx, pushErr, "Invoice push failed", slog.String("invoice_id", pi.Invoice.InvoiceID))
			result.PhaseErrors.Invoices = append(result.PhaseErrors.Invoices, pushErr.Error())
			continue
		}
		result.InvoicesPushed++
	}
}

func (s *entityPusher) pushInvoice(ctx context.Context, conn domain.Connection, pi domain.PendingInvoice) error {
	customerID, ok := pi.Company.Sync.ExternalID()
	if !ok {
		return fmt.Errorf("company %s has no external id", pi.Company.CompanyID)
	}

	lines, err := s.invoiceRepo.FindLineItems(ctx, pi.Invoice.InvoiceID)
	if err != nil {
		return fmt.Errorf("load line items: %w", err)
	}
	if len(lines) == 0 {
		return errNoLineItems
	}

	callCtx, cancel := withCallTimeout(ctx, s.callTimeout)
	defer cancel()

	externalID, err := s.gateway.CreateInvoice(callCtx, conn, pi.InvoicePayload(customerID, lines))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := pi.Invoice.Sync.MarkSynced(externalID, now); err != nil {
		return err
	}
	if err := s.invoiceRepo.MarkInvoiceSynced(ctx, pi.Invoice.InvoiceID, externalID, now); err != nil {
		return fmt.Errorf("store external id %s: %w", externalID, err)
	}
	s.LogDebug(ctx, "Invoice pushed", slog.String("invoice_id", pi.Invoice.InvoiceID), slog.String("external_id", externalID))
	return nil
}
