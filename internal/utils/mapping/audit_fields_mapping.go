package mapping

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// ToModelSyncColumns converts a domain SyncState to its nullable columns
func ToModelSyncColumns(s domain.SyncState) models.SyncColumns {
	id, at := s.Columns()
	return models.SyncColumns{ExternalID: id, ExternalSyncedAt: at}
}

// ToDomainSyncState rebuilds the domain SyncState from its columns
func ToDomainSyncState(m models.SyncColumns) domain.SyncState {
	return domain.SyncStateFromColumns(m.ExternalID, m.ExternalSyncedAt)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
