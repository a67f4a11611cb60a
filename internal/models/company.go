package models

// Company is a row of companies.
type Company struct {
	CompanyID string `db:"company_id"`
	TenantID  string `db:"tenant_id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	SyncColumns
	AuditFields
}
