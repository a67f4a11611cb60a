package mapping

import (
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	m := models.LedgerEntry{
		EntryID:         d.EntryID,
		TenantID:        d.TenantID,
		CompanyID:       nullable(d.CompanyID),
		InvoiceID:       nullable(d.InvoiceID),
		Counterparty:    d.Counterparty,
		DocNumber:       d.DocNumber,
		Amount:          d.Amount,
		AmountPaid:      d.AmountPaid,
		ManualPaid:      d.ManualPaid,
		SnapshotPaid:    d.SnapshotPaid,
		ExternalApplied: d.ExternalApplied,
		Status:          string(d.Status),
		ExternalID:      nullable(d.ExternalID),
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
	if !d.DueDate.IsZero() {
		due := d.DueDate
		m.DueDate = &due
	}
	return m
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry of the given kind
func ToDomainLedgerEntry(m models.LedgerEntry, kind domain.LedgerKind) domain.LedgerEntry {
	var due time.Time
	if m.DueDate != nil {
		due = *m.DueDate
	}
	return domain.LedgerEntry{
		EntryID:         m.EntryID,
		TenantID:        m.TenantID,
		Kind:            kind,
		CompanyID:       deref(m.CompanyID),
		InvoiceID:       deref(m.InvoiceID),
		Counterparty:    m.Counterparty,
		DocNumber:       m.DocNumber,
		Amount:          m.Amount,
		AmountPaid:      m.AmountPaid,
		ManualPaid:      m.ManualPaid,
		SnapshotPaid:    m.SnapshotPaid,
		ExternalApplied: m.ExternalApplied,
		Status:          domain.LedgerStatus(m.Status),
		DueDate:         due,
		ExternalID:      deref(m.ExternalID),
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelPayment converts a domain PaymentTransaction to a model PaymentTransaction
func ToModelPayment(d domain.PaymentTransaction) models.PaymentTransaction {
	return models.PaymentTransaction{
		PaymentID:         d.PaymentID,
		TenantID:          d.TenantID,
		ARID:              nullable(d.ReceivableID),
		APID:              nullable(d.PayableID),
		Amount:            d.Amount,
		PaymentDate:       d.PaymentDate,
		Method:            d.Method,
		Reference:         d.Reference,
		Source:            string(d.Source),
		ExternalPaymentID: nullable(d.ExternalPaymentID),
		CreatedAt:         d.CreatedAt,
		CreatedBy:         d.CreatedBy,
	}
}

// ToDomainPayment converts a model PaymentTransaction to a domain PaymentTransaction
func ToDomainPayment(m models.PaymentTransaction) domain.PaymentTransaction {
	return domain.PaymentTransaction{
		PaymentID:         m.PaymentID,
		TenantID:          m.TenantID,
		ReceivableID:      deref(m.ARID),
		PayableID:         deref(m.APID),
		Amount:            m.Amount,
		PaymentDate:       m.PaymentDate,
		Method:            m.Method,
		Reference:         m.Reference,
		Source:            domain.PaymentSource(m.Source),
		ExternalPaymentID: deref(m.ExternalPaymentID),
		CreatedAt:         m.CreatedAt,
		CreatedBy:         m.CreatedBy,
	}
}
