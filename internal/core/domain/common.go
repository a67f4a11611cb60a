package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// SystemUserID is recorded in audit fields for writes made by the sync engine.
const SystemUserID = "system:accounting-sync"

// DateOnly truncates t to midnight UTC so due dates compare by calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewAuditFields stamps creation and update fields for a fresh record.
func NewAuditFields(now time.Time, userID string) AuditFields {
	return AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}
}

// Touch records an update by userID at now.
func (a *AuditFields) Touch(now time.Time, userID string) {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
}
