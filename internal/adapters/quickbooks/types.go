package quickbooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// oneOrMany decodes a JSON value that the API sends either as a single
// object or as an array. It always yields a slice.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}
	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}

// qboDate is a calendar date in the API's yyyy-mm-dd form.
type qboDate struct {
	time.Time
}

func (d *qboDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// amount renders a decimal as a bare JSON number.
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type reference struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type emailAddress struct {
	Address string `json:"Address,omitempty"`
}

type telephone struct {
	FreeFormNumber string `json:"FreeFormNumber,omitempty"`
}

type memo struct {
	Value string `json:"value"`
}

// customer is both the request and the response shape of the customer endpoint.
type customer struct {
	ID               string        `json:"Id,omitempty"`
	SyncToken        string        `json:"SyncToken,omitempty"`
	Sparse           bool          `json:"sparse,omitempty"`
	DisplayName      string        `json:"DisplayName,omitempty"`
	PrimaryEmailAddr *emailAddress `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone     *telephone    `json:"PrimaryPhone,omitempty"`
}

type customerEnvelope struct {
	Customer customer `json:"Customer"`
}

type salesItemLineDetail struct {
	ItemRef   reference   `json:"ItemRef"`
	Qty       json.Number `json:"Qty"`
	UnitPrice json.Number `json:"UnitPrice"`
}

type invoiceLineRequest struct {
	DetailType          string              `json:"DetailType"`
	Amount              json.Number         `json:"Amount"`
	Description         string              `json:"Description,omitempty"`
	SalesItemLineDetail salesItemLineDetail `json:"SalesItemLineDetail"`
}

type invoiceRequest struct {
	CustomerRef  reference            `json:"CustomerRef"`
	DocNumber    string               `json:"DocNumber,omitempty"`
	TxnDate      string               `json:"TxnDate,omitempty"`
	DueDate      string               `json:"DueDate,omitempty"`
	CustomerMemo *memo                `json:"CustomerMemo,omitempty"`
	Line         []invoiceLineRequest `json:"Line"`
}

type invoice struct {
	ID          string          `json:"Id"`
	DocNumber   string          `json:"DocNumber"`
	TxnDate     qboDate         `json:"TxnDate"`
	DueDate     qboDate         `json:"DueDate"`
	TotalAmt    decimal.Decimal `json:"TotalAmt"`
	Balance     decimal.Decimal `json:"Balance"`
	CustomerRef reference       `json:"CustomerRef"`
}

type invoiceEnvelope struct {
	Invoice invoice `json:"Invoice"`
}

type bill struct {
	ID        string          `json:"Id"`
	DocNumber string          `json:"DocNumber"`
	TxnDate   qboDate         `json:"TxnDate"`
	DueDate   qboDate         `json:"DueDate"`
	TotalAmt  decimal.Decimal `json:"TotalAmt"`
	Balance   decimal.Decimal `json:"Balance"`
	VendorRef reference       `json:"VendorRef"`
}

type linkedTxn struct {
	TxnID   string `json:"TxnId"`
	TxnType string `json:"TxnType"`
}

type paymentLine struct {
	Amount    decimal.Decimal      `json:"Amount"`
	LinkedTxn oneOrMany[linkedTxn] `json:"LinkedTxn"`
}

type payment struct {
	ID               string                 `json:"Id"`
	TxnDate          qboDate                `json:"TxnDate"`
	TotalAmt         decimal.Decimal        `json:"TotalAmt"`
	PaymentRefNum    string                 `json:"PaymentRefNum"`
	PaymentMethodRef *reference             `json:"PaymentMethodRef"`
	Line             oneOrMany[paymentLine] `json:"Line"`
}

type billPayment struct {
	ID        string                 `json:"Id"`
	TxnDate   qboDate                `json:"TxnDate"`
	TotalAmt  decimal.Decimal        `json:"TotalAmt"`
	DocNumber string                 `json:"DocNumber"`
	PayType   string                 `json:"PayType"`
	Line      oneOrMany[paymentLine] `json:"Line"`
}

type queryResult struct {
	Invoice       []invoice     `json:"Invoice"`
	Bill          []bill        `json:"Bill"`
	Payment       []payment     `json:"Payment"`
	BillPayment   []billPayment `json:"BillPayment"`
	StartPosition int           `json:"startPosition"`
	MaxResults    int           `json:"maxResults"`
}

type queryEnvelope struct {
	QueryResponse queryResult `json:"QueryResponse"`
}

type faultDetail struct {
	Message string `json:"Message"`
	Detail  string `json:"Detail"`
	Code    string `json:"code"`
}

type faultEnvelope struct {
	Fault struct {
		Error oneOrMany[faultDetail] `json:"Error"`
		Type  string                 `json:"type"`
	} `json:"Fault"`
}
