package models

import "time"

// Connection is a row of accounting_connections. Tokens hold sealed values.
type Connection struct {
	ConnectionID         string    `db:"connection_id"`
	TenantID             string    `db:"tenant_id"`
	RealmID              string    `db:"realm_id"`
	AccessToken          string    `db:"access_token"`
	RefreshToken         string    `db:"refresh_token"`
	AccessTokenExpiresAt time.Time `db:"access_token_expires_at"`
	Status               string    `db:"status"`
	Version              int64     `db:"version"`
	AuditFields
}
