package repositories

import (
	"context"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// ConnectionReader defines read operations for accounting connections.
type ConnectionReader interface {
	// FindActiveConnection returns the tenant's active connection or apperrors.ErrNotFound.
	FindActiveConnection(ctx context.Context, tenantID string) (*domain.Connection, error)

	// FindConnectionByID returns a connection regardless of status.
	FindConnectionByID(ctx context.Context, connectionID string) (*domain.Connection, error)
}

// ConnectionWriter defines write operations for accounting connections.
type ConnectionWriter interface {
	// SaveConnection persists a new connection (initial OAuth handshake).
	SaveConnection(ctx context.Context, conn domain.Connection) error

	// UpdateTokens writes refreshed tokens and expiry in one statement, only if the
	// stored version still equals expectedVersion. Returns apperrors.ErrConflict otherwise.
	UpdateTokens(ctx context.Context, conn domain.Connection, expectedVersion int64) (*domain.Connection, error)

	// MarkExpired transitions the connection to expired.
	MarkExpired(ctx context.Context, connectionID string) error
}

// ConnectionRepositoryFacade combines all connection repository interfaces.
type ConnectionRepositoryFacade interface {
	ConnectionReader
	ConnectionWriter
}
