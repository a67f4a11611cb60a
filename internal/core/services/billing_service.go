package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/utils/accounting"
)

var ErrEmptyInvoice = errors.New("invoice total must be positive")

// billingService turns fee agreements into unsynced invoices.
type billingService struct {
	BaseService
	companyRepo portsrepo.CompanyReader
	invoiceRepo portsrepo.InvoiceWriter
}

// NewBillingService creates a BillingSvc.
func NewBillingService(companyRepo portsrepo.CompanyReader, invoiceRepo portsrepo.InvoiceWriter) portssvc.BillingSvc {
	return &billingService{companyRepo: companyRepo, invoiceRepo: invoiceRepo}
}

var _ portssvc.BillingSvc = (*billingService)(nil)

// GenerateInvoice implements portssvc.BillingSvc.
func (s *billingService) GenerateInvoice(ctx context.Context, tenantID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, []domain.InvoiceLineItem, error) {
	company, err := s.companyRepo.FindCompanyByID(ctx, req.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if company.TenantID != tenantID {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("company %s not found", req.CompanyID))
	}

	fees, err := accounting.ComputeFees(req.PretaxMonthly, req.FeeModel)
	if err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error())
	}
	share, err := accounting.ComputeProfitShare(req.ProfitShareMode, req.ProfitSharePct, req.FicaSavings, req.BBProfit)
	if err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	invoiceID := uuid.NewString()
	period := req.InvoiceDate.Format("January 2006")

	var lines []domain.InvoiceLineItem
	addLine := func(description string, amount decimal.Decimal) {
		if !amount.IsPositive() {
			return
		}
		lines = append(lines, domain.InvoiceLineItem{
			LineItemID:  uuid.NewString(),
			InvoiceID:   invoiceID,
			Description: description,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amount,
			Amount:      amount,
			SortOrder:   len(lines) + 1,
		})
	}
	addLine(fmt.Sprintf("Employee administration fees, %s", period), fees.EmployeeFee)
	addLine(fmt.Sprintf("Employer administration fees, %s", period), fees.EmployerFee)
	addLine(share.Description, share.Amount)

	total := decimal.Zero
	for _, li := range lines {
		total = total.Add(li.Amount)
	}
	if !total.IsPositive() {
		return nil, nil, apperrors.NewValidationError(ErrEmptyInvoice.Error())
	}

	audit := domain.NewAuditFields(now, userID)
	invoice := domain.Invoice{
		InvoiceID:     invoiceID,
		TenantID:      tenantID,
		CompanyID:     company.CompanyID,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   domain.DateOnly(req.InvoiceDate),
		DueDate:       domain.DateOnly(req.DueDate),
		TotalAmount:   total,
		Memo:          req.Memo,
		Sync:          domain.Unsynced(),
		AuditFields:   audit,
	}
	receivable := domain.LedgerEntry{
		EntryID:      uuid.NewString(),
		TenantID:     tenantID,
		Kind:         domain.Receivable,
		CompanyID:    company.CompanyID,
		InvoiceID:    invoiceID,
		Counterparty: company.Name,
		DocNumber:    req.InvoiceNumber,
		Amount:       total,
		AmountPaid:   decimal.Zero,
		DueDate:      invoice.DueDate,
		AuditFields:  audit,
	}
	receivable.Recompute(now)

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice, lines, receivable); err != nil {
		s.LogError(ctx, err, "Failed to save generated invoice", slog.String("company_id", company.CompanyID))
		return nil, nil, err
	}

	s.LogInfo(ctx, "Invoice generated",
		slog.String("invoice_id", invoiceID),
		slog.String("company_id", company.CompanyID),
		slog.String("total", total.StringFixed(2)),
		slog.Int("line_count", len(lines)))
	return &invoice, lines, nil
}
