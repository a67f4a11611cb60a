package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	// ListPendingInvoices lists unsynced invoices whose owning company is already synced.
	ListPendingInvoices(ctx context.Context, tenantID string, limit int) ([]domain.PendingInvoice, error)

	// CountPendingInvoices counts all unsynced invoices, including those still waiting on their company.
	CountPendingInvoices(ctx context.Context, tenantID string) (int, error)

	// FindLineItems returns the invoice's line items in display order.
	FindLineItems(ctx context.Context, invoiceID string) ([]domain.InvoiceLineItem, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice with its line items and receivable row in one transaction.
	SaveInvoice(ctx context.Context, invoice domain.Invoice, lines []domain.InvoiceLineItem, receivable domain.LedgerEntry) error

	// MarkInvoiceSynced stores the external invoice id (set-once) on the invoice and its receivable row.
	MarkInvoiceSynced(ctx context.Context, invoiceID, externalID string, at time.Time) error
}

// InvoiceRepositoryFacade combines all invoice repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
