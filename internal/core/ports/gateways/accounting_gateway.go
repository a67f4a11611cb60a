package gateways

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// ErrGrantRevoked is returned by RefreshToken when the refresh token was
// rejected by the token endpoint (revoked, expired or otherwise invalid).
// Any other refresh error is treated as transient.
var ErrGrantRevoked = errors.New("refresh grant rejected")

// AccountingGateway is the external general-ledger API consumed by the sync engine.
type AccountingGateway interface {
	// RefreshToken exchanges a refresh token for a new access/refresh token pair.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)

	// UpsertCustomer creates the customer, or updates it when ExistingExternalID is set, and returns its external id.
	UpsertCustomer(ctx context.Context, conn domain.Connection, payload domain.CustomerPayload) (string, error)

	// CreateInvoice creates an invoice and returns its external id.
	CreateInvoice(ctx context.Context, conn domain.Connection, payload domain.InvoicePayload) (string, error)

	// ListInvoices lists invoices created or changed within [from, to].
	ListInvoices(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalInvoice, error)

	// ListBills lists vendor bills created or changed within [from, to].
	ListBills(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalBill, error)

	// ListPayments lists payment applications created or changed within [from, to].
	ListPayments(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalPayment, error)
}

// AuthorizationGateway drives the OAuth authorization-code handshake that
// creates a connection in the first place.
type AuthorizationGateway interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*domain.TokenGrant, error)
}
