package apperrors

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntityKind names the kind of record a sync error refers to.
type EntityKind string

const (
	EntityCustomer EntityKind = "customer"
	EntityInvoice  EntityKind = "invoice"
	EntityBill     EntityKind = "bill"
	EntityPayment  EntityKind = "payment"
)

// AuthError is fatal for a sync run. The connection could not produce a
// usable access token and has to be re-authorized out of band unless
// Transient is set.
type AuthError struct {
	TenantID  string
	Transient bool
	Err       error
}

func (e *AuthError) Error() string {
	if e.Transient {
		return fmt.Sprintf("accounting auth for tenant %s temporarily unavailable: %v", e.TenantID, e.Err)
	}
	return fmt.Sprintf("accounting connection for tenant %s requires re-authorization: %v", e.TenantID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// EntityPushError is a non-fatal failure to mirror one local record outward.
// Label is the human readable name of the record (customer name, invoice number).
type EntityPushError struct {
	Kind    EntityKind
	LocalID string
	Label   string
	Err     error
}

func (e *EntityPushError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *EntityPushError) Unwrap() error { return e.Err }

// EntityPullError is a non-fatal failure to mirror one external record locally.
type EntityPullError struct {
	Kind       EntityKind
	ExternalID string
	Err        error
}

func (e *EntityPullError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ExternalID, e.Err)
}

func (e *EntityPullError) Unwrap() error { return e.Err }

// ReconciliationError means a pulled payment or document could not be applied
// to the local ledger consistently. It carries enough context for a manual fix.
// ExternalPaymentID is empty when the pulled document itself conflicts with
// the payments already recorded against its row.
type ReconciliationError struct {
	TenantID          string
	ExternalPaymentID string
	LedgerEntryID     string
	LinkedExternalID  string
	Amount            decimal.Decimal
	Err               error
}

func (e *ReconciliationError) Error() string {
	if e.ExternalPaymentID == "" {
		return fmt.Sprintf("reconcile document %s (%s) against ledger row %s: %v",
			e.LinkedExternalID, e.Amount.StringFixed(2), e.LedgerEntryID, e.Err)
	}
	return fmt.Sprintf("reconcile payment %s (%s) against ledger row %s (external %s): %v",
		e.ExternalPaymentID, e.Amount.StringFixed(2), e.LedgerEntryID, e.LinkedExternalID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }
