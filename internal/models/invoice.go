package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a row of invoices.
type Invoice struct {
	InvoiceID     string          `db:"invoice_id"`
	TenantID      string          `db:"tenant_id"`
	CompanyID     string          `db:"company_id"`
	InvoiceNumber string          `db:"invoice_number"`
	InvoiceDate   time.Time       `db:"invoice_date"`
	DueDate       time.Time       `db:"due_date"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Memo          string          `db:"memo"`
	SyncColumns
	AuditFields
}

// InvoiceLineItem is a row of invoice_line_items.
type InvoiceLineItem struct {
	LineItemID  string          `db:"line_item_id"`
	InvoiceID   string          `db:"invoice_id"`
	Description string          `db:"description"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Amount      decimal.Decimal `db:"amount"`
	SortOrder   int             `db:"sort_order"`
}
