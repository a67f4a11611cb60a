package dto

import (
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// StartConnectResponse carries the provider consent URL for the operator's browser.
type StartConnectResponse struct {
	AuthorizationURL string `json:"authorizationURL"`
	State            string `json:"state"`
}

// ExchangeConnectRequest is posted back after the provider redirect.
type ExchangeConnectRequest struct {
	Code    string `json:"code" binding:"required"`
	RealmID string `json:"realmId" binding:"required"`
	State   string `json:"state" binding:"required"`
}

// ConnectionResponse describes a connection without exposing its tokens.
type ConnectionResponse struct {
	ConnectionID         string                  `json:"connectionID"`
	RealmID              string                  `json:"realmID"`
	Status               domain.ConnectionStatus `json:"status"`
	AccessTokenExpiresAt time.Time               `json:"accessTokenExpiresAt"`
	CreatedAt            time.Time               `json:"createdAt"`
	CreatedBy            string                  `json:"createdBy"`
}

// ToConnectionResponse converts a domain.Connection to its DTO.
func ToConnectionResponse(c *domain.Connection) ConnectionResponse {
	return ConnectionResponse{
		ConnectionID:         c.ConnectionID,
		RealmID:              c.RealmID,
		Status:               c.Status,
		AccessTokenExpiresAt: c.AccessTokenExpiresAt,
		CreatedAt:            c.CreatedAt,
		CreatedBy:            c.CreatedBy,
	}
}
