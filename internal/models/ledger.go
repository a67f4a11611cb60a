package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is a row of accounts_receivable or accounts_payable.
// CompanyID and InvoiceID are always NULL for payables.
type LedgerEntry struct {
	EntryID         string          `db:"entry_id"`
	TenantID        string          `db:"tenant_id"`
	CompanyID       *string         `db:"company_id"`
	InvoiceID       *string         `db:"invoice_id"`
	Counterparty    string          `db:"counterparty"`
	DocNumber       string          `db:"doc_number"`
	Amount          decimal.Decimal `db:"amount"`
	AmountPaid      decimal.Decimal `db:"amount_paid"`
	ManualPaid      decimal.Decimal `db:"manual_paid"`
	SnapshotPaid    decimal.Decimal `db:"snapshot_paid"`
	ExternalApplied decimal.Decimal `db:"external_applied"`
	Status          string          `db:"status"`
	DueDate         *time.Time      `db:"due_date"`
	ExternalID      *string         `db:"external_id"`
	AuditFields
}

// PaymentTransaction is a row of payment_transactions.
type PaymentTransaction struct {
	PaymentID         string          `db:"payment_id"`
	TenantID          string          `db:"tenant_id"`
	ARID              *string         `db:"ar_id"`
	APID              *string         `db:"ap_id"`
	Amount            decimal.Decimal `db:"amount"`
	PaymentDate       time.Time       `db:"payment_date"`
	Method            string          `db:"method"`
	Reference         string          `db:"reference"`
	Source            string          `db:"source"`
	ExternalPaymentID *string         `db:"external_payment_id"`
	CreatedAt         time.Time       `db:"created_at"`
	CreatedBy         string          `db:"created_by"`
}
