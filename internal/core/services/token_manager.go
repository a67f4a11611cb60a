package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

var errMissingRefreshToken = errors.New("connection has no refresh token")

// tokenManager keeps the access token of a connection usable for one run.
type tokenManager struct {
	BaseService
	connRepo portsrepo.ConnectionRepositoryFacade
	gateway  gateways.AccountingGateway
	margin   time.Duration
}

// NewTokenManager creates a TokenManagerSvc that refreshes tokens expiring within margin.
func NewTokenManager(connRepo portsrepo.ConnectionRepositoryFacade, gateway gateways.AccountingGateway, margin time.Duration) portssvc.TokenManagerSvc {
	return &tokenManager{connRepo: connRepo, gateway: gateway, margin: margin}
}

var _ portssvc.TokenManagerSvc = (*tokenManager)(nil)

// EnsureValid implements portssvc.TokenManagerSvc.
func (s *tokenManager) EnsureValid(ctx context.Context, conn domain.Connection, now time.Time) (domain.Connection, bool, error) {
	if !conn.IsActive() {
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Err: fmt.Errorf("connection %s is %s", conn.ConnectionID, conn.Status)}
	}
	if conn.RefreshToken == "" {
		s.expire(ctx, conn)
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Err: errMissingRefreshToken}
	}
	if !conn.ExpiresWithin(now, s.margin) {
		return conn, false, nil
	}

	s.LogInfo(ctx, "Refreshing accounting access token",
		slog.String("tenant_id", conn.TenantID),
		slog.String("connection_id", conn.ConnectionID),
		slog.Duration("remaining", conn.TimeRemaining(now)))

	grant, err := s.gateway.RefreshToken(ctx, conn.RefreshToken)
	if err != nil {
		if errors.Is(err, gateways.ErrGrantRevoked) {
			s.LogError(ctx, err, "Refresh grant rejected, marking connection expired", slog.String("tenant_id", conn.TenantID))
			s.expire(ctx, conn)
			return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Err: err}
		}
		s.LogError(ctx, err, "Token refresh failed", slog.String("tenant_id", conn.TenantID))
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Transient: true, Err: err}
	}

	refreshed := conn.WithGrant(*grant, now)
	saved, err := s.connRepo.UpdateTokens(ctx, refreshed, conn.Version)
	switch {
	case err == nil:
		return *saved, true, nil
	case errors.Is(err, apperrors.ErrConflict):
		// Another run refreshed first; its tokens win.
		return s.reload(ctx, conn, now)
	default:
		s.LogError(ctx, err, "Failed to persist refreshed tokens", slog.String("tenant_id", conn.TenantID))
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Transient: true, Err: fmt.Errorf("persist refreshed tokens: %w", err)}
	}
}

func (s *tokenManager) reload(ctx context.Context, conn domain.Connection, now time.Time) (domain.Connection, bool, error) {
	current, err := s.connRepo.FindConnectionByID(ctx, conn.ConnectionID)
	if err != nil {
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Transient: true, Err: fmt.Errorf("reload connection after concurrent refresh: %w", err)}
	}
	if !current.IsActive() || current.ExpiresWithin(now, 0) {
		return conn, false, &apperrors.AuthError{TenantID: conn.TenantID, Transient: current.IsActive(), Err: errors.New("concurrently refreshed connection is not usable")}
	}
	s.LogInfo(ctx, "Using tokens refreshed by a concurrent run", slog.String("tenant_id", conn.TenantID), slog.Int64("version", current.Version))
	return *current, false, nil
}

func (s *tokenManager) expire(ctx context.Context, conn domain.Connection) {
	if err := s.connRepo.MarkExpired(ctx, conn.ConnectionID); err != nil {
		s.LogError(ctx, err, "Failed to mark connection expired", slog.String("connection_id", conn.ConnectionID))
	}
}
