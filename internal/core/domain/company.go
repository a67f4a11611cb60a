package domain

// Company is a tenant's client employer, mirrored to the external system as a customer.
type Company struct {
	CompanyID string    `json:"companyID"`
	TenantID  string    `json:"tenantID"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Sync      SyncState `json:"-"`
	AuditFields
}

// NeedsPush reports whether the company must be created or updated externally:
// it was never synced, or it changed locally after the last push.
func (c Company) NeedsPush() bool {
	if !c.Sync.IsSynced() {
		return true
	}
	return c.LastUpdatedAt.After(c.Sync.SyncedAt())
}

// CustomerPayload converts the company to the external customer upsert payload.
func (c Company) CustomerPayload() CustomerPayload {
	existing, _ := c.Sync.ExternalID()
	return CustomerPayload{
		DisplayName:        c.Name,
		Email:              c.Email,
		Phone:              c.Phone,
		ExistingExternalID: existing,
	}
}

// PendingCount summarizes records still waiting to be pushed.
type PendingCount struct {
	Customers int `json:"customers"`
	Invoices  int `json:"invoices"`
}
