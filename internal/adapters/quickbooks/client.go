// Package quickbooks implements the accounting gateway against the
// QuickBooks Online REST API.
package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/SscSPs/ledger_sync/internal/core/ports/gateways"
)

const (
	defaultMinorVersion  = "75"
	defaultServiceItemID = "1"
	defaultPageSize      = 100
	defaultMaxAttempts   = 3
	accountingScope      = "com.intuit.quickbooks.accounting"
	maxResponseBytes     = 10 << 20
)

// Config holds the provider endpoints and credentials.
type Config struct {
	ClientID      string
	ClientSecret  string
	AuthURL       string
	TokenURL      string
	RedirectURL   string
	APIBaseURL    string
	MinorVersion  string
	ServiceItemID string

	// MaxAttempts bounds attempts per call, including the first one.
	MaxAttempts    int
	InitialBackoff time.Duration
	PageSize       int
}

// Client talks to one QuickBooks environment on behalf of every tenant.
// The tenant is selected per call by the connection's realm and token.
type Client struct {
	cfg        Config
	httpClient *http.Client
	oauth      *oauth2.Config
	logger     *slog.Logger
}

var (
	_ gateways.AccountingGateway    = (*Client)(nil)
	_ gateways.AuthorizationGateway = (*Client)(nil)
)

// NewClient creates a QuickBooks client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinorVersion == "" {
		cfg.MinorVersion = defaultMinorVersion
	}
	if cfg.ServiceItemID == "" {
		cfg.ServiceItemID = defaultServiceItemID
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{accountingScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// APIError is a non-2xx answer from the accounting API.
type APIError struct {
	StatusCode int
	FaultType  string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("quickbooks api status %d", e.StatusCode)
	}
	return fmt.Sprintf("quickbooks api status %d: %s", e.StatusCode, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var fault faultEnvelope
	if err := json.Unmarshal(body, &fault); err == nil && len(fault.Fault.Error) > 0 {
		apiErr.FaultType = fault.Fault.Type
		msgs := make([]string, 0, len(fault.Fault.Error))
		for _, fe := range fault.Fault.Error {
			msg := fe.Message
			if fe.Detail != "" && fe.Detail != fe.Message {
				msg = msg + " (" + fe.Detail + ")"
			}
			msgs = append(msgs, msg)
		}
		apiErr.Message = strings.Join(msgs, "; ")
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if len(apiErr.Message) > 200 {
		apiErr.Message = apiErr.Message[:200]
	}
	return apiErr
}

// do performs one API call with bounded retries. POST requests carry a
// requestid that stays the same across attempts.
func (c *Client) do(ctx context.Context, realmID, accessToken, method, path string, query url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("minorversion", c.cfg.MinorVersion)
	if method == http.MethodPost {
		query.Set("requestid", uuid.NewString())
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s?%s", c.cfg.APIBaseURL, url.PathEscape(realmID), path, query.Encode())

	attempt := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := newAPIError(resp.StatusCode, data)
			if retryableStatus(resp.StatusCode) {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	return c.retry(ctx, attempt, func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "Retrying accounting API call",
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()))
	})
}
