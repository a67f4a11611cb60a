package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrExternalIDConflict is returned when a record that is already mirrored
// externally is asked to take a different external id.
var ErrExternalIDConflict = errors.New("external id already assigned")

// SyncState records whether a local record has an external counterpart.
// The zero value is Unsynced. External id and sync time are always set
// together, so "synced without id" cannot be represented.
type SyncState struct {
	externalID string
	syncedAt   time.Time
}

// Unsynced returns the state of a record that has never been pushed.
func Unsynced() SyncState { return SyncState{} }

// Synced returns the state of a record mirrored as externalID at syncedAt.
func Synced(externalID string, syncedAt time.Time) SyncState {
	if externalID == "" {
		return SyncState{}
	}
	return SyncState{externalID: externalID, syncedAt: syncedAt}
}

// SyncStateFromColumns rebuilds the state from nullable external_id / synced_at columns.
func SyncStateFromColumns(externalID *string, syncedAt *time.Time) SyncState {
	if externalID == nil || *externalID == "" || syncedAt == nil {
		return Unsynced()
	}
	return Synced(*externalID, *syncedAt)
}

// IsSynced reports whether the record has an external counterpart.
func (s SyncState) IsSynced() bool { return s.externalID != "" }

// ExternalID returns the external id and whether one is set.
func (s SyncState) ExternalID() (string, bool) { return s.externalID, s.externalID != "" }

// SyncedAt returns the time of the last successful push (zero when unsynced).
func (s SyncState) SyncedAt() time.Time { return s.syncedAt }

// Columns returns the nullable column values for persistence.
func (s SyncState) Columns() (*string, *time.Time) {
	if !s.IsSynced() {
		return nil, nil
	}
	id, at := s.externalID, s.syncedAt
	return &id, &at
}

// MarkSynced transitions to Synced. External ids are set-once: re-marking
// with the same id refreshes the timestamp, a different id is rejected.
func (s SyncState) MarkSynced(externalID string, at time.Time) (SyncState, error) {
	if externalID == "" {
		return s, errors.New("external id must not be empty")
	}
	if s.IsSynced() && s.externalID != externalID {
		return s, fmt.Errorf("%w: have %s, got %s", ErrExternalIDConflict, s.externalID, externalID)
	}
	return Synced(externalID, at), nil
}
