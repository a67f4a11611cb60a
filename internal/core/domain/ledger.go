package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind distinguishes receivable from payable rows.
type LedgerKind string

const (
	Receivable LedgerKind = "receivable"
	Payable    LedgerKind = "payable"
)

// LedgerStatus is derived from amounts and due date, never set directly.
type LedgerStatus string

const (
	StatusOpen    LedgerStatus = "open"
	StatusPartial LedgerStatus = "partial"
	StatusPaid    LedgerStatus = "paid"
	StatusOverdue LedgerStatus = "overdue"
)

var (
	ErrNonPositiveAmount = errors.New("payment amount must be positive")
	ErrOverpayment       = errors.New("payment exceeds remaining balance")
)

// DeriveStatus is the single source of truth for ledger status:
// paid if amountPaid >= amount, else partial if amountPaid > 0,
// else overdue if the due date is before today, else open.
func DeriveStatus(amount, amountPaid decimal.Decimal, dueDate, today time.Time) LedgerStatus {
	switch {
	case amountPaid.GreaterThanOrEqual(amount):
		return StatusPaid
	case amountPaid.IsPositive():
		return StatusPartial
	case !dueDate.IsZero() && DateOnly(dueDate).Before(DateOnly(today)):
		return StatusOverdue
	default:
		return StatusOpen
	}
}

// LedgerEntry is an accounts receivable or accounts payable row.
//
// AmountPaid is derived from three components and never set on its own:
// ManualPaid + max(SnapshotPaid, ExternalApplied). SnapshotPaid is the paid
// part of the latest external document (total minus balance) and
// ExternalApplied the sum of payments pulled for the row. Both describe the
// same external payments, so a payment seen first in a snapshot and later
// pulled on its own counts once.
type LedgerEntry struct {
	EntryID         string          `json:"entryID"`
	TenantID        string          `json:"tenantID"`
	Kind            LedgerKind      `json:"kind"`
	CompanyID       string          `json:"companyID,omitempty"` // receivables only, empty when the customer is unknown locally
	InvoiceID       string          `json:"invoiceID,omitempty"` // receivables created from a local invoice
	Counterparty    string          `json:"counterparty"`        // customer or vendor name
	DocNumber       string          `json:"docNumber"`
	Amount          decimal.Decimal `json:"amount"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	ManualPaid      decimal.Decimal `json:"manualPaid"`
	SnapshotPaid    decimal.Decimal `json:"snapshotPaid"`
	ExternalApplied decimal.Decimal `json:"externalApplied"`
	Status          LedgerStatus    `json:"status"`
	DueDate         time.Time       `json:"dueDate"`
	ExternalID      string          `json:"externalID,omitempty"`
	AuditFields
}

// ErrAmountBelowPaid is returned when an external document shrinks below what
// is already recorded as paid against it.
var ErrAmountBelowPaid = errors.New("document amount is below the amount already paid")

// Remaining is the open balance of the row.
func (e LedgerEntry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.AmountPaid)
}

// Recompute sets Status from the amount fields and the due date.
func (e *LedgerEntry) Recompute(today time.Time) {
	e.Status = DeriveStatus(e.Amount, e.AmountPaid, e.DueDate, today)
}

func paidFrom(manual, snapshot, applied decimal.Decimal) decimal.Decimal {
	return manual.Add(decimal.Max(snapshot, applied))
}

// settle commits new paid components after checking them against Amount.
// The row is left untouched when the check fails.
func (e *LedgerEntry) settle(manual, snapshot, applied decimal.Decimal, today time.Time, overErr error) error {
	paid := paidFrom(manual, snapshot, applied)
	if paid.GreaterThan(e.Amount) {
		return fmt.Errorf("%w: paid %s > %s", overErr, paid.StringFixed(2), e.Amount.StringFixed(2))
	}
	e.ManualPaid, e.SnapshotPaid, e.ExternalApplied = manual, snapshot, applied
	e.AmountPaid = paid
	e.Recompute(today)
	return nil
}

// ApplyPayment adds a locally recorded payment and recomputes Status. It
// refuses amounts that would take AmountPaid above Amount.
func (e *LedgerEntry) ApplyPayment(amount decimal.Decimal, today time.Time) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return e.settle(e.ManualPaid.Add(amount), e.SnapshotPaid, e.ExternalApplied, today, ErrOverpayment)
}

// ReversePayment removes a locally recorded payment, clamped at zero, and recomputes Status.
func (e *LedgerEntry) ReversePayment(amount decimal.Decimal, today time.Time) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	manual := e.ManualPaid.Sub(amount)
	if manual.IsNegative() {
		manual = decimal.Zero
	}
	return e.settle(manual, e.SnapshotPaid, e.ExternalApplied, today, ErrOverpayment)
}

// ApplyExternalPayment counts a pulled payment. When the latest snapshot
// already includes it, AmountPaid does not move.
func (e *LedgerEntry) ApplyExternalPayment(amount decimal.Decimal, today time.Time) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return e.settle(e.ManualPaid, e.SnapshotPaid, e.ExternalApplied.Add(amount), today, ErrOverpayment)
}

// MergeExternal refreshes the row from a pulled snapshot of the same external
// document. Pulled payments stay counted even when the snapshot predates them.
// A snapshot whose amount is below what is already paid is refused with
// ErrAmountBelowPaid and leaves the row unchanged.
func (e *LedgerEntry) MergeExternal(snapshot LedgerEntry, today time.Time) error {
	next := *e
	next.Amount = snapshot.Amount
	next.DueDate = snapshot.DueDate
	next.DocNumber = snapshot.DocNumber
	if snapshot.Counterparty != "" {
		next.Counterparty = snapshot.Counterparty
	}
	if next.CompanyID == "" {
		next.CompanyID = snapshot.CompanyID
	}
	if err := next.settle(e.ManualPaid, snapshot.SnapshotPaid, e.ExternalApplied, today, ErrAmountBelowPaid); err != nil {
		return err
	}
	*e = next
	return nil
}
