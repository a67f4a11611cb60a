package models

import "time"

// AuditFields holds the audit columns shared by most tables.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}

// SyncColumns are the nullable external mirror columns. Both are NULL or both are set.
type SyncColumns struct {
	ExternalID       *string    `db:"external_id"`
	ExternalSyncedAt *time.Time `db:"external_synced_at"`
}
