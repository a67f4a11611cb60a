package dto

import (
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest defines the inputs for a monthly benefits invoice.
type GenerateInvoiceRequest struct {
	CompanyID       string                     `json:"companyID" binding:"required"`
	InvoiceNumber   string                     `json:"invoiceNumber" binding:"required,max=21"`
	InvoiceDate     time.Time                  `json:"invoiceDate" binding:"required"`
	DueDate         time.Time                  `json:"dueDate" binding:"required,gtefield=InvoiceDate"`
	PretaxMonthly   decimal.Decimal            `json:"pretaxMonthly"`
	FeeModel        accounting.FeeModel        `json:"feeModel" binding:"required"`
	ProfitShareMode accounting.ProfitShareMode `json:"profitShareMode" binding:"omitempty,oneof=none fica_savings bb_profit"`
	ProfitSharePct  decimal.Decimal            `json:"profitSharePercent"`
	FicaSavings     decimal.Decimal            `json:"ficaSavings"`
	BBProfit        decimal.Decimal            `json:"bbProfit"`
	Memo            string                     `json:"memo" binding:"omitempty,max=1000"`
}

// InvoiceResponse is returned after an invoice is generated.
type InvoiceResponse struct {
	InvoiceID     string                   `json:"invoiceID"`
	CompanyID     string                   `json:"companyID"`
	InvoiceNumber string                   `json:"invoiceNumber"`
	InvoiceDate   time.Time                `json:"invoiceDate"`
	DueDate       time.Time                `json:"dueDate"`
	TotalAmount   decimal.Decimal          `json:"totalAmount"`
	Synced        bool                     `json:"synced"`
	LineItems     []domain.InvoiceLineItem `json:"lineItems"`
}

// ToInvoiceResponse converts a domain invoice and its lines to the DTO.
func ToInvoiceResponse(inv *domain.Invoice, lines []domain.InvoiceLineItem) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID:     inv.InvoiceID,
		CompanyID:     inv.CompanyID,
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		TotalAmount:   inv.TotalAmount,
		Synced:        inv.Sync.IsSynced(),
		LineItems:     lines,
	}
}
