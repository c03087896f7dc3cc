package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/strannick-ru/article-backup/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxAttempts is the total number of tries for transient errors.
	MaxAttempts = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second

	// MaxRetryDelay caps the backoff interval.
	MaxRetryDelay = 30 * time.Second

	// ThrottleRate is the proactive request rate per host.
	ThrottleRate = 2.0
)

// Client is the shared HTTP client for platform APIs: fixed headers for
// auth, proactive throttling and retry with exponential backoff. Client
// errors other than 429 are permanent and never retried.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

// NewClient creates a client sending the given headers on every request.
func NewClient(headers map[string]string) *Client {
	return &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(ThrottleRate), 1),
		headers: headers,
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// HTTPClient returns the underlying HTTP client for sharing with the
// asset pool, so downloads ride the same session.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// GetJSON fetches url and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", domain.ErrMalformedPayload, url, err)
	}
	return nil
}

// GetBody fetches url and returns the response body, retrying transient
// failures.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d for %s", domain.ErrAuthInvalid, resp.StatusCode, url))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d for %s", resp.StatusCode, url)
		default:
			return backoff.Permanent(fmt.Errorf("%w: status %d for %s", domain.ErrPermanentRequest, resp.StatusCode, url))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryDelay
	bo.MaxInterval = MaxRetryDelay
	bo.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(MaxAttempts-1)), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}
