package dto

import (
	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// TriggerSyncParams are the query parameters of POST /sync.
type TriggerSyncParams struct {
	TenantID string          `form:"tenant_id"`
	Mode     domain.SyncMode `form:"mode" binding:"omitempty,oneof=full bidirectional"`
	Force    bool            `form:"force"`
}

// TriggerSyncResponse is the body of POST /sync.
type TriggerSyncResponse struct {
	OK             bool               `json:"ok"`
	Results        *domain.SyncResult `json:"results,omitempty"`
	Error          string             `json:"error,omitempty"`
	Skipped        bool               `json:"skipped,omitempty"`
	NextEligibleAt string             `json:"next_eligible_at,omitempty"`
}

// SyncStatusParams are the query parameters of GET /sync/status.
type SyncStatusParams struct {
	TenantID  string  `form:"tenant_id"`
	Limit     int     `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"next_token"`
}

// SyncStatusResponse is the body of GET /sync/status.
type SyncStatusResponse struct {
	ConnectionActive bool                `json:"connection_active"`
	LastSync         *domain.SyncRun     `json:"last_sync"`
	LastErrors       []string            `json:"last_errors"`
	PendingSync      domain.PendingCount `json:"pending_sync"`
	SyncHistory      []domain.SyncRun    `json:"sync_history"`
	NextToken        *string             `json:"next_token,omitempty"`
}
