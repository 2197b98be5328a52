// Package httpclient provides the JSON HTTP client shared by provider and
// vector store adapters: per-attempt timeouts, bounded retries with
// exponential backoff, Retry-After handling and a token-bucket limiter.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 2048

// Config configures a Client.
type Config struct {
	// MaxAttempts is the total number of tries per call, including the first.
	MaxAttempts int

	// BaseDelay is the first backoff; it doubles per attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// CallTimeout bounds each attempt, including reading the body.
	CallTimeout time.Duration

	// RequestsPerSecond limits outgoing requests. Zero is unlimited.
	RequestsPerSecond float64
	Burst             int

	// Unavailable is wrapped into errors for transport failures and 5xx
	// responses, e.g. domain.ErrEmbeddingUnavailable.
	Unavailable error

	// HTTPClient overrides the transport. Defaults to a new http.Client.
	HTTPClient *http.Client
}

// FromSettings builds a Config from retry settings.
func FromSettings(s domain.RetrySettings, unavailable error) Config {
	return Config{
		MaxAttempts:       s.MaxAttempts,
		BaseDelay:         s.BaseDelay,
		MaxDelay:          s.MaxDelay,
		CallTimeout:       s.CallTimeout,
		RequestsPerSecond: s.RequestsPerSecond,
		Unavailable:       unavailable,
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Unwrap returns the domain error matching the status code.
func (e *StatusError) Unwrap() error {
	return e.kind
}

// Client sends JSON requests with retries.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *RateLimiter
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a client, applying defaults for zero values.
func New(cfg Config) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = domain.DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = domain.DefaultMaxDelay
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = domain.DefaultCallTimeout
	}
	if cfg.Unavailable == nil {
		cfg.Unavailable = errors.New("service unavailable")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		http:    httpClient,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		sleep:   sleepContext,
	}
}

// DoJSON sends in as a JSON body (nil for none) and decodes a 2xx response
// into out (nil to discard). Transport errors, 429 and 5xx are retried.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			var se *retryAfterError
			if errors.As(lastErr, &se) && se.after > 0 {
				delay = se.after
			}
			logger.Debug("Retrying %s %s in %s (attempt %d/%d): %v", method, url, delay, attempt+1, c.cfg.MaxAttempts, lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.attempt(ctx, method, url, headers, body, out)
		if err == nil {
			return nil
		}
		if !retry || ctx.Err() != nil {
			return unwrapRetryAfter(err)
		}
		lastErr = err
	}

	return fmt.Errorf("%s %s: retries exhausted: %w", method, url, unwrapRetryAfter(lastErr))
}

// attempt performs one request. It reports whether the failure is retryable.
func (c *Client) attempt(ctx context.Context, method, url string, headers map[string]string, body []byte, out any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, fmt.Errorf("%w: %v", c.cfg.Unavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if ctx.Err() != nil {
				return true, fmt.Errorf("%w: read response: %v", c.cfg.Unavailable, err)
			}
			return false, fmt.Errorf("decode response: %w", err)
		}
		return false, nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	status := &StatusError{
		Code:    resp.StatusCode,
		Message: strings.TrimSpace(string(msg)),
		kind:    c.kindFor(resp.StatusCode),
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		after := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.limiter.Pause(after)
		logger.Warn("Rate limited by %s, retry after %s", req.URL.Host, after)
		return true, &retryAfterError{err: status, after: after}
	case resp.StatusCode >= 500:
		after := parseRetryAfter(resp.Header.Get("Retry-After"))
		return true, &retryAfterError{err: status, after: after}
	default:
		return false, status
	}
}

func (c *Client) kindFor(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.ErrAuthInvalid
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code >= 500:
		return c.cfg.Unavailable
	default:
		return domain.ErrInvalidInput
	}
}

// backoff returns BaseDelay << attempt capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	if attempt > 30 {
		return c.cfg.MaxDelay
	}
	d := c.cfg.BaseDelay << attempt
	if d <= 0 || d > c.cfg.MaxDelay {
		return c.cfg.MaxDelay
	}
	return d
}

// retryAfterError carries the server-requested delay with the failure.
type retryAfterError struct {
	err   error
	after time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

func unwrapRetryAfter(err error) error {
	var ra *retryAfterError
	if errors.As(err, &ra) {
		return ra.err
	}
	return err
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
