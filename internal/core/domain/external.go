package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerPayload is what the sync engine sends to create or update an external customer.
type CustomerPayload struct {
	DisplayName        string
	Email              string
	Phone              string
	ExistingExternalID string // empty means create
}

// InvoicePayload is what the sync engine sends to create an external invoice.
type InvoicePayload struct {
	CustomerExternalID string
	DocNumber          string
	TxnDate            time.Time
	DueDate            time.Time
	Memo               string
	Lines              []InvoicePayloadLine
}

// InvoicePayloadLine is one line of an external invoice payload.
type InvoicePayloadLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// ExternalInvoice is an invoice as observed in the external system.
type ExternalInvoice struct {
	ExternalID         string `validate:"required"`
	CustomerExternalID string `validate:"required"`
	CustomerName       string
	DocNumber          string
	TxnDate            time.Time
	DueDate            time.Time
	TotalAmount        decimal.Decimal
	Balance            decimal.Decimal
}

// ExternalBill is a vendor bill as observed in the external system.
type ExternalBill struct {
	ExternalID  string `validate:"required"`
	VendorName  string
	DocNumber   string
	TxnDate     time.Time
	DueDate     time.Time
	TotalAmount decimal.Decimal
	Balance     decimal.Decimal
}

// ExternalPayment is one application of an external payment to one linked
// invoice (receivable) or bill (payable).
type ExternalPayment struct {
	ExternalID       string     `validate:"required"`
	Kind             LedgerKind `validate:"required,oneof=receivable payable"`
	LinkedExternalID string     `validate:"required"`
	Amount           decimal.Decimal
	TxnDate          time.Time
	Method           string
	Reference        string
}

// ExternalStatus derives the local status of a pulled document from its
// external total and remaining balance.
func ExternalStatus(total, balance decimal.Decimal, dueDate, today time.Time) LedgerStatus {
	if !balance.IsPositive() {
		return StatusPaid
	}
	return DeriveStatus(total, total.Sub(balance), dueDate, today)
}

// LedgerEntry converts the pulled invoice to a receivable row (ids filled by the caller).
func (i ExternalInvoice) LedgerEntry(tenantID string, today time.Time) LedgerEntry {
	paid := externalPaid(i.TotalAmount, i.Balance)
	return LedgerEntry{
		TenantID:     tenantID,
		Kind:         Receivable,
		Counterparty: i.CustomerName,
		DocNumber:    i.DocNumber,
		Amount:       i.TotalAmount,
		AmountPaid:   paid,
		SnapshotPaid: paid,
		Status:       ExternalStatus(i.TotalAmount, i.Balance, i.DueDate, today),
		DueDate:      i.DueDate,
		ExternalID:   i.ExternalID,
	}
}

// LedgerEntry converts the pulled bill to a payable row (ids filled by the caller).
func (b ExternalBill) LedgerEntry(tenantID string, today time.Time) LedgerEntry {
	paid := externalPaid(b.TotalAmount, b.Balance)
	return LedgerEntry{
		TenantID:     tenantID,
		Kind:         Payable,
		Counterparty: b.VendorName,
		DocNumber:    b.DocNumber,
		Amount:       b.TotalAmount,
		AmountPaid:   paid,
		SnapshotPaid: paid,
		Status:       ExternalStatus(b.TotalAmount, b.Balance, b.DueDate, today),
		DueDate:      b.DueDate,
		ExternalID:   b.ExternalID,
	}
}

// externalPaid is total minus balance, kept within [0, total]; a credit
// balance does not count as more than fully paid.
func externalPaid(total, balance decimal.Decimal) decimal.Decimal {
	paid := total.Sub(balance)
	switch {
	case paid.IsNegative():
		return decimal.Zero
	case paid.GreaterThan(total):
		return total
	}
	return paid
}
