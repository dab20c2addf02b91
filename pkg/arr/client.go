// Package arr is a thin JSON client for Sonarr/Radarr style APIs.
// Every failure is returned as a value; nothing here panics or exits.
package arr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every request unless WithTimeout overrides it.
	DefaultTimeout = 30 * time.Second

	apiKeyHeader = "X-Api-Key"
	maxBodyBytes = 32 << 20
	maxErrorBody = 512
)

var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("arr: transport error")
	// ErrDecode is returned when a 2xx body is not valid JSON.
	ErrDecode = errors.New("arr: decode error")
)

// StatusError carries the status code of a non-2xx response. It unwraps to ErrTransport.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// Client handles communication with the upstream queue services
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new client
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL with the given query parameters.
func (c *Client) Get(ctx context.Context, rawURL, apiKey string, params url.Values) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, rawURL, apiKey, params)
	if err != nil {
		c.logger.Error("❌ API request failed",
			zap.String("method", http.MethodGet),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}
	return body, nil
}

// Delete issues a DELETE against rawURL. Upstreams usually answer with an
// empty body, which comes back as an empty JSON object.
func (c *Client) Delete(ctx context.Context, rawURL, apiKey string, params url.Values) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodDelete, rawURL, apiKey, params)
	if err != nil {
		c.logger.Error("❌ API delete failed",
			zap.String("method", http.MethodDelete),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Info("🗑️ Successfully removed", zap.String("url", rawURL))
	return body, nil
}

func (c *Client) do(ctx context.Context, method, rawURL, apiKey string, params url.Values) (json.RawMessage, error) {
	target, err := withQuery(rawURL, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response from %s is not valid JSON", ErrDecode, rawURL)
	}
	return json.RawMessage(body), nil
}

// withQuery merges params into any query string already present on rawURL.
func withQuery(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
