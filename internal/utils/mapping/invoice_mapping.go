package mapping

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:     d.InvoiceID,
		TenantID:      d.TenantID,
		CompanyID:     d.CompanyID,
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   d.InvoiceDate,
		DueDate:       d.DueDate,
		TotalAmount:   d.TotalAmount,
		Memo:          d.Memo,
		SyncColumns:   ToModelSyncColumns(d.Sync),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:     m.InvoiceID,
		TenantID:      m.TenantID,
		CompanyID:     m.CompanyID,
		InvoiceNumber: m.InvoiceNumber,
		InvoiceDate:   m.InvoiceDate,
		DueDate:       m.DueDate,
		TotalAmount:   m.TotalAmount,
		Memo:          m.Memo,
		Sync:          ToDomainSyncState(m.SyncColumns),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInvoiceLineItem converts a domain line item to a model line item
func ToModelInvoiceLineItem(d domain.InvoiceLineItem) models.InvoiceLineItem {
	return models.InvoiceLineItem(d)
}

// ToDomainInvoiceLineItemSlice converts model line items to domain line items
func ToDomainInvoiceLineItemSlice(ms []models.InvoiceLineItem) []domain.InvoiceLineItem {
	ds := make([]domain.InvoiceLineItem, len(ms))
	for i, m := range ms {
		ds[i] = domain.InvoiceLineItem(m)
	}
	return ds
}
