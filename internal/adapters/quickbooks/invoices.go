package quickbooks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// CreateInvoice implements gateways.AccountingGateway. Every local line becomes
// a sales line against the configured service item.
func (c *Client) CreateInvoice(ctx context.Context, conn domain.Connection, payload domain.InvoicePayload) (string, error) {
	req := invoiceRequest{
		CustomerRef: reference{Value: payload.CustomerExternalID},
		DocNumber:   payload.DocNumber,
		TxnDate:     formatDate(payload.TxnDate),
		DueDate:     formatDate(payload.DueDate),
		Line:        make([]invoiceLineRequest, 0, len(payload.Lines)),
	}
	if payload.Memo != "" {
		req.CustomerMemo = &memo{Value: payload.Memo}
	}
	for _, l := range payload.Lines {
		req.Line = append(req.Line, invoiceLineRequest{
			DetailType:  "SalesItemLineDetail",
			Amount:      amount(l.Amount),
			Description: l.Description,
			SalesItemLineDetail: salesItemLineDetail{
				ItemRef:   reference{Value: c.cfg.ServiceItemID},
				Qty:       amount(l.Quantity),
				UnitPrice: amount(l.UnitPrice),
			},
		})
	}

	var created invoiceEnvelope
	if err := c.do(ctx, conn.RealmID, conn.AccessToken, http.MethodPost, "invoice", nil, req, &created); err != nil {
		return "", fmt.Errorf("create invoice %s: %w", payload.DocNumber, err)
	}
	if created.Invoice.ID == "" {
		return "", fmt.Errorf("create invoice %s: %w", payload.DocNumber, errMissingID)
	}
	return created.Invoice.ID, nil
}
