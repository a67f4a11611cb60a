package models

import "time"

// SyncRun is a row of sync_runs. Errors is stored as JSONB.
type SyncRun struct {
	SyncRunID       string    `db:"sync_run_id"`
	TenantID        string    `db:"tenant_id"`
	Mode            string    `db:"mode"`
	Status          string    `db:"status"`
	RunAt           time.Time `db:"run_at"`
	DurationMS      int64     `db:"duration_ms"`
	CustomersPushed int       `db:"customers_pushed"`
	InvoicesPushed  int       `db:"invoices_pushed"`
	InvoicesPulled  int       `db:"invoices_pulled"`
	BillsPulled     int       `db:"bills_pulled"`
	PaymentsPulled  int       `db:"payments_pulled"`
	PaymentsSkipped int       `db:"payments_skipped"`
	Errors          []string  `db:"errors"`
}
