package domain

import (
	"time"
)

// ConnectionStatus is the lifecycle state of a tenant's accounting connection.
type ConnectionStatus string

const (
	ConnectionActive  ConnectionStatus = "active"
	ConnectionExpired ConnectionStatus = "expired"
)

// Connection is the OAuth credential record linking one tenant to its
// external accounting company (realm). At most one active connection exists
// per tenant.
type Connection struct {
	ConnectionID         string           `json:"connectionID"`
	TenantID             string           `json:"tenantID"`
	RealmID              string           `json:"realmID"`
	AccessToken          string           `json:"-"`
	RefreshToken         string           `json:"-"`
	AccessTokenExpiresAt time.Time        `json:"accessTokenExpiresAt"`
	Status               ConnectionStatus `json:"status"`
	Version              int64            `json:"version"` // bumped on every token write
	AuditFields
}

// IsActive reports whether the connection may be used for syncing.
func (c Connection) IsActive() bool {
	return c.Status == ConnectionActive
}

// TimeRemaining is the time left before the access token expires (negative once expired).
func (c Connection) TimeRemaining(now time.Time) time.Duration {
	return c.AccessTokenExpiresAt.Sub(now)
}

// ExpiresWithin reports whether the access token expires within margin of now.
func (c Connection) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return c.TimeRemaining(now) <= margin
}

// TokenGrant is the result of a successful refresh against the token endpoint.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// WithGrant returns a copy of the connection carrying the refreshed tokens.
// Providers may omit a rotated refresh token, in which case the old one is kept.
func (c Connection) WithGrant(g TokenGrant, now time.Time) Connection {
	c.AccessToken = g.AccessToken
	if g.RefreshToken != "" {
		c.RefreshToken = g.RefreshToken
	}
	c.AccessTokenExpiresAt = g.Expiry
	c.LastUpdatedAt = now
	c.LastUpdatedBy = SystemUserID
	return c
}
