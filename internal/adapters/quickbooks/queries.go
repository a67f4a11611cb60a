package quickbooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

// ListInvoices implements gateways.AccountingGateway.
func (c *Client) ListInvoices(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalInvoice, error) {
	var out []domain.ExternalInvoice
	err := c.query(ctx, conn, "Invoice", from, to, func(page queryResult) int {
		for _, inv := range page.Invoice {
			out = append(out, domain.ExternalInvoice{
				ExternalID:         inv.ID,
				CustomerExternalID: inv.CustomerRef.Value,
				CustomerName:       inv.CustomerRef.Name,
				DocNumber:          inv.DocNumber,
				TxnDate:            inv.TxnDate.Time,
				DueDate:            inv.DueDate.Time,
				TotalAmount:        inv.TotalAmt,
				Balance:            inv.Balance,
			})
		}
		return len(page.Invoice)
	})
	return out, err
}

// ListBills implements gateways.AccountingGateway.
func (c *Client) ListBills(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalBill, error) {
	var out []domain.ExternalBill
	err := c.query(ctx, conn, "Bill", from, to, func(page queryResult) int {
		for _, b := range page.Bill {
			out = append(out, domain.ExternalBill{
				ExternalID:  b.ID,
				VendorName:  b.VendorRef.Name,
				DocNumber:   b.DocNumber,
				TxnDate:     b.TxnDate.Time,
				DueDate:     b.DueDate.Time,
				TotalAmount: b.TotalAmt,
				Balance:     b.Balance,
			})
		}
		return len(page.Bill)
	})
	return out, err
}

// ListPayments implements gateways.AccountingGateway. Customer payments map to
// receivables and bill payments to payables; each linked document yields one
// ExternalPayment keyed by applicationID.
func (c *Client) ListPayments(ctx context.Context, conn domain.Connection, from, to time.Time) ([]domain.ExternalPayment, error) {
	var out []domain.ExternalPayment
	err := c.query(ctx, conn, "Payment", from, to, func(page queryResult) int {
		for _, p := range page.Payment {
			method := ""
			if p.PaymentMethodRef != nil {
				method = p.PaymentMethodRef.Name
				if method == "" {
					method = p.PaymentMethodRef.Value
				}
			}
			out = append(out, expandPayment("Payment", p.ID, domain.Receivable, "Invoice", p.TxnDate.Time, method, p.PaymentRefNum, p.Line)...)
		}
		return len(page.Payment)
	})
	if err != nil {
		return nil, err
	}

	err = c.query(ctx, conn, "BillPayment", from, to, func(page queryResult) int {
		for _, p := range page.BillPayment {
			out = append(out, expandPayment("BillPayment", p.ID, domain.Payable, "Bill", p.TxnDate.Time, p.PayType, p.DocNumber, p.Line)...)
		}
		return len(page.BillPayment)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// expandPayment splits a payment into one application per linked document of
// txnType, summing the line amounts per document. Each line links one document.
func expandPayment(entity, paymentID string, kind domain.LedgerKind, txnType string, txnDate time.Time, method, reference string, lines []paymentLine) []domain.ExternalPayment {
	var order []string
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		for _, link := range line.LinkedTxn {
			if link.TxnType != txnType || link.TxnID == "" {
				continue
			}
			if _, seen := totals[link.TxnID]; !seen {
				order = append(order, link.TxnID)
			}
			totals[link.TxnID] = totals[link.TxnID].Add(line.Amount)
			break
		}
	}

	out := make([]domain.ExternalPayment, 0, len(order))
	for _, txnID := range order {
		out = append(out, domain.ExternalPayment{
			ExternalID:       applicationID(entity, paymentID, txnID),
			Kind:             kind,
			LinkedExternalID: txnID,
			Amount:           totals[txnID],
			TxnDate:          txnDate,
			Method:           method,
			Reference:        reference,
		})
	}
	return out
}

// applicationID identifies one payment applied to one document. It does not
// depend on how many documents the payment covers, so editing a payment to
// cover another document keeps the key of its existing applications.
// Payment and BillPayment ids are separate sequences, hence the entity prefix.
func applicationID(entity, paymentID, txnID string) string {
	return entity + ":" + paymentID + ":" + txnID
}

// query pages through entity rows changed within [from, to]. visit returns the
// number of rows on the page; a short page ends the scan.
func (c *Client) query(ctx context.Context, conn domain.Connection, entity string, from, to time.Time, visit func(queryResult) int) error {
	start := 1
	for {
		stmt := fmt.Sprintf("SELECT * FROM %s WHERE MetaData.LastUpdatedTime >= '%s' AND MetaData.LastUpdatedTime <= '%s' ORDERBY MetaData.LastUpdatedTime STARTPOSITION %d MAXRESULTS %d",
			entity, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), start, c.cfg.PageSize)

		var env queryEnvelope
		if err := c.do(ctx, conn.RealmID, conn.AccessToken, http.MethodGet, "query", url.Values{"query": {stmt}}, nil, &env); err != nil {
			return fmt.Errorf("query %s: %w", entity, err)
		}
		n := visit(env.QueryResponse)
		if n < c.cfg.PageSize {
			return nil
		}
		start += n
	}
}
