package quickbooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
)

var errMissingID = errors.New("response carried no entity id")

// UpsertCustomer implements gateways.AccountingGateway. Updates are sparse and
// need the current SyncToken, which is read first.
func (c *Client) UpsertCustomer(ctx context.Context, conn domain.Connection, payload domain.CustomerPayload) (string, error) {
	body := customer{DisplayName: payload.DisplayName}
	if payload.Email != "" {
		body.PrimaryEmailAddr = &emailAddress{Address: payload.Email}
	}
	if payload.Phone != "" {
		body.PrimaryPhone = &telephone{FreeFormNumber: payload.Phone}
	}

	op := "create customer"
	if id := payload.ExistingExternalID; id != "" {
		op = "update customer " + id
		var current customerEnvelope
		if err := c.do(ctx, conn.RealmID, conn.AccessToken, http.MethodGet, "customer/"+url.PathEscape(id), nil, nil, &current); err != nil {
			return "", fmt.Errorf("read customer %s: %w", id, err)
		}
		body.ID = id
		body.SyncToken = current.Customer.SyncToken
		body.Sparse = true
	}

	var saved customerEnvelope
	if err := c.do(ctx, conn.RealmID, conn.AccessToken, http.MethodPost, "customer", nil, body, &saved); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if saved.Customer.ID == "" {
		return "", fmt.Errorf("%s: %w", op, errMissingID)
	}
	return saved.Customer.ID, nil
}
