package dto

import (
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest defines the data needed to record a manual payment.
// Exactly one of ReceivableID and PayableID must be set.
type RecordPaymentRequest struct {
	ReceivableID string          `json:"receivableID" binding:"required_without=PayableID,excluded_with=PayableID"`
	PayableID    string          `json:"payableID" binding:"required_without=ReceivableID"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  time.Time       `json:"paymentDate" binding:"required"`
	Method       string          `json:"method" binding:"omitempty,max=50"`
	Reference    string          `json:"reference" binding:"omitempty,max=255"`
}

// PaymentResponse is returned after a payment is recorded.
type PaymentResponse struct {
	Payment domain.PaymentTransaction `json:"payment"`
	Ledger  LedgerEntryResponse       `json:"ledger"`
}

// LedgerEntryResponse mirrors domain.LedgerEntry for API responses.
type LedgerEntryResponse struct {
	EntryID      string              `json:"entryID"`
	Kind         domain.LedgerKind   `json:"kind"`
	Counterparty string              `json:"counterparty"`
	DocNumber    string              `json:"docNumber"`
	Amount       decimal.Decimal     `json:"amount"`
	AmountPaid   decimal.Decimal     `json:"amountPaid"`
	BalanceDue   decimal.Decimal     `json:"balanceDue"`
	Status       domain.LedgerStatus `json:"status"`
	DueDate      time.Time           `json:"dueDate"`
	ExternalID   string              `json:"externalID,omitempty"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		EntryID:      e.EntryID,
		Kind:         e.Kind,
		Counterparty: e.Counterparty,
		DocNumber:    e.DocNumber,
		Amount:       e.Amount,
		AmountPaid:   e.AmountPaid,
		BalanceDue:   e.Remaining(),
		Status:       e.Status,
		DueDate:      e.DueDate,
		ExternalID:   e.ExternalID,
	}
}

// RefreshOverdueResponse reports how many rows changed status.
type RefreshOverdueResponse struct {
	Updated int64 `json:"updated"`
}
