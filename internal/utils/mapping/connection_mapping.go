package mapping

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelConnection converts a domain Connection to a model Connection.
// Token fields are copied verbatim; sealing is the repository's job.
func ToModelConnection(d domain.Connection) models.Connection {
	return models.Connection{
		ConnectionID:         d.ConnectionID,
		TenantID:             d.TenantID,
		RealmID:              d.RealmID,
		AccessToken:          d.AccessToken,
		RefreshToken:         d.RefreshToken,
		AccessTokenExpiresAt: d.AccessTokenExpiresAt,
		Status:               string(d.Status),
		Version:              d.Version,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainConnection converts a model Connection to a domain Connection
func ToDomainConnection(m models.Connection) domain.Connection {
	return domain.Connection{
		ConnectionID:         m.ConnectionID,
		TenantID:             m.TenantID,
		RealmID:              m.RealmID,
		AccessToken:          m.AccessToken,
		RefreshToken:         m.RefreshToken,
		AccessTokenExpiresAt: m.AccessTokenExpiresAt,
		Status:               domain.ConnectionStatus(m.Status),
		Version:              m.Version,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}
