package services

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// ConnectionSvc drives the OAuth handshake that links a tenant to its accounting company.
type ConnectionSvc interface {
	// StartConnect returns the authorization URL to redirect the operator to, and the
	// CSRF state value the callback must echo back.
	StartConnect(ctx context.Context, tenantID string) (authorizationURL string, state string, err error)

	// CompleteConnect exchanges the authorization code and stores a new active
	// connection for the tenant, retiring any previous one.
	CompleteConnect(ctx context.Context, tenantID, code, realmID, actorID string) (*domain.Connection, error)
}
