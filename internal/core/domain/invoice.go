package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a locally generated invoice issued to a company.
type Invoice struct {
	InvoiceID     string          `json:"invoiceID"`
	TenantID      string          `json:"tenantID"`
	CompanyID     string          `json:"companyID"`
	InvoiceNumber string          `json:"invoiceNumber"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	DueDate       time.Time       `json:"dueDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Memo          string          `json:"memo"`
	Sync          SyncState       `json:"-"`
	AuditFields
}

// InvoiceLineItem is one billable line of an invoice.
type InvoiceLineItem struct {
	LineItemID  string          `json:"lineItemID"`
	InvoiceID   string          `json:"invoiceID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	SortOrder   int             `json:"sortOrder"`
}

// PendingInvoice is an unsynced invoice together with its owning company.
// The company is always exactly one record; repositories normalize joins to this shape.
type PendingInvoice struct {
	Invoice Invoice
	Company Company
}

// InvoicePayload builds the external invoice payload from the line items.
// customerExternalID must be the owning company's external id.
func (p PendingInvoice) InvoicePayload(customerExternalID string, lines []InvoiceLineItem) InvoicePayload {
	payload := InvoicePayload{
		CustomerExternalID: customerExternalID,
		DocNumber:          p.Invoice.InvoiceNumber,
		TxnDate:            p.Invoice.InvoiceDate,
		DueDate:            p.Invoice.DueDate,
		Memo:               p.Invoice.Memo,
		Lines:              make([]InvoicePayloadLine, 0, len(lines)),
	}
	for _, li := range lines {
		payload.Lines = append(payload.Lines, InvoicePayloadLine{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
		})
	}
	return payload
}
