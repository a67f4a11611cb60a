package quickbooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
)

// accessTokenLifetime is assumed when the token endpoint omits expires_in.
const accessTokenLifetime = time.Hour

// RefreshToken implements gateways.AccountingGateway.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	// A token without an access token is never valid, so Token() always refreshes.
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classifyTokenError("refresh token", err)
	}
	return grantFromToken(tok), nil
}

// AuthCodeURL implements gateways.AuthorizationGateway.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode implements gateways.AuthorizationGateway.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, classifyTokenError("exchange authorization code", err)
	}
	return grantFromToken(tok), nil
}

func grantFromToken(tok *oauth2.Token) *domain.TokenGrant {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(accessTokenLifetime)
	}
	return &domain.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       expiry,
	}
}

// classifyTokenError maps token endpoint rejections to gateways.ErrGrantRevoked.
// Everything else (transport errors, 5xx) stays transient.
func classifyTokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_client" {
			return fmt.Errorf("%s: %w: %v", op, gateways.ErrGrantRevoked, err)
		}
		if re.Response != nil && (re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return fmt.Errorf("%s: %w: %v", op, gateways.ErrGrantRevoked, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
