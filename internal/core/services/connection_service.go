package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/utils"
)

// connectionService runs the authorization-code handshake against the accounting provider.
type connectionService struct {
	BaseService
	connRepo portsrepo.ConnectionWriter
	auth     gateways.AuthorizationGateway
	now      func() time.Time
}

// NewConnectionService creates a new ConnectionSvc.
func NewConnectionService(connRepo portsrepo.ConnectionWriter, auth gateways.AuthorizationGateway) portssvc.ConnectionSvc {
	return &connectionService{connRepo: connRepo, auth: auth, now: time.Now}
}

var _ portssvc.ConnectionSvc = (*connectionService)(nil)

// StartConnect implements portssvc.ConnectionSvc.
func (s *connectionService) StartConnect(ctx context.Context, tenantID string) (string, string, error) {
	if tenantID == "" {
		return "", "", apperrors.NewValidationError("tenant id is required")
	}
	state, err := utils.GenerateURLSafeToken(32)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate OAuth state")
		return "", "", fmt.Errorf("failed to generate state string for OAuth: %w", err)
	}
	s.LogDebug(ctx, "Starting accounting connect flow", slog.String("tenant_id", tenantID))
	return s.auth.AuthCodeURL(state), state, nil
}

// CompleteConnect implements portssvc.ConnectionSvc.
func (s *connectionService) CompleteConnect(ctx context.Context, tenantID, code, realmID, actorID string) (*domain.Connection, error) {
	switch {
	case tenantID == "":
		return nil, apperrors.NewValidationError("tenant id is required")
	case code == "":
		return nil, apperrors.NewValidationError("authorization code is required")
	case realmID == "":
		return nil, apperrors.NewValidationError("realm id is required")
	}

	grant, err := s.auth.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, gateways.ErrGrantRevoked) {
			s.LogWarn(ctx, "Authorization code rejected", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
			return nil, apperrors.NewValidationError("authorization code is invalid or expired")
		}
		s.LogError(ctx, err, "Failed to exchange authorization code", slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if grant.RefreshToken == "" {
		return nil, apperrors.NewValidationError("provider did not issue a refresh token")
	}

	now := s.now()
	conn := domain.Connection{
		ConnectionID:         uuid.NewString(),
		TenantID:             tenantID,
		RealmID:              realmID,
		AccessToken:          grant.AccessToken,
		RefreshToken:         grant.RefreshToken,
		AccessTokenExpiresAt: grant.Expiry,
		Status:               domain.ConnectionActive,
		Version:              1,
		AuditFields:          domain.NewAuditFields(now, actorID),
	}
	if err := s.connRepo.SaveConnection(ctx, conn); err != nil {
		s.LogError(ctx, err, "Failed to save accounting connection", slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("save connection: %w", err)
	}

	s.LogInfo(ctx, "Accounting connection established",
		slog.String("tenant_id", tenantID),
		slog.String("connection_id", conn.ConnectionID),
		slog.String("realm_id", realmID))
	return &conn, nil
}
