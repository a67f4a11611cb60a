package quickbooks

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxBackoffInterval = 10 * time.Second

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// retry runs op up to MaxAttempts times with exponential backoff. Errors
// wrapped in backoff.Permanent stop immediately and are returned unwrapped.
func (c *Client) retry(ctx context.Context, op backoff.Operation, notify backoff.Notify) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = maxBackoffInterval
	policy.MaxElapsedTime = 0

	bounded := backoff.WithMaxRetries(policy, uint64(c.cfg.MaxAttempts-1))
	return backoff.RetryNotify(op, backoff.WithContext(bounded, ctx), notify)
}
