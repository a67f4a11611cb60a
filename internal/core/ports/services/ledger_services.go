package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/dto"
)

// PaymentSvc records and removes locally entered payments.
type PaymentSvc interface {
	// RecordPayment applies a manual payment to one AR or AP row.
	RecordPayment(ctx context.Context, tenantID string, req dto.RecordPaymentRequest, userID string) (*domain.PaymentTransaction, *domain.LedgerEntry, error)

	// DeletePayment removes a payment and reverses its effect on the ledger row.
	DeletePayment(ctx context.Context, tenantID, paymentID, userID string) (*domain.LedgerEntry, error)

	// RefreshOverdue recomputes statuses that changed only because time passed.
	RefreshOverdue(ctx context.Context, tenantID string, today time.Time) (int64, error)
}

// BillingSvc generates invoices for companies from fee models.
type BillingSvc interface {
	// GenerateInvoice builds line items via the fee calculator and stores an unsynced invoice plus its receivable row.
	GenerateInvoice(ctx context.Context, tenantID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, []domain.InvoiceLineItem, error)
}
