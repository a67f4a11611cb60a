package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSource records where a payment originated.
type PaymentSource string

const (
	PaymentManual   PaymentSource = "manual"
	PaymentExternal PaymentSource = "external"
)

var ErrPaymentTarget = errors.New("payment must reference exactly one of receivable or payable")

// PaymentTransaction is an immutable payment applied to one ledger row.
type PaymentTransaction struct {
	PaymentID         string          `json:"paymentID"`
	TenantID          string          `json:"tenantID"`
	ReceivableID      string          `json:"receivableID,omitempty"`
	PayableID         string          `json:"payableID,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       time.Time       `json:"paymentDate"`
	Method            string          `json:"method"`
	Reference         string          `json:"reference"`
	Source            PaymentSource   `json:"source"`
	ExternalPaymentID string          `json:"externalPaymentID,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	CreatedBy         string          `json:"createdBy"`
}

// Target returns the ledger kind and row id the payment applies to.
func (p PaymentTransaction) Target() (LedgerKind, string, error) {
	switch {
	case p.ReceivableID != "" && p.PayableID == "":
		return Receivable, p.ReceivableID, nil
	case p.PayableID != "" && p.ReceivableID == "":
		return Payable, p.PayableID, nil
	default:
		return "", "", ErrPaymentTarget
	}
}

// Validate checks the structural invariants of a payment.
func (p PaymentTransaction) Validate() error {
	if _, _, err := p.Target(); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}
