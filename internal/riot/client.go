package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Status classifies the outcome of a Riot API call
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusRateLimited
	StatusTransient
	StatusAuthInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusRateLimited:
		return "rate_limited"
	case StatusTransient:
		return "transient"
	case StatusAuthInvalid:
		return "auth_invalid"
	default:
		return "unknown"
	}
}

// APIError is returned for any non-200 response or transport failure
type APIError struct {
	Status Status
	Code   int // HTTP status, 0 for transport errors
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("riot api %s (HTTP %d): %v", e.Status, e.Code, e.Err)
	}
	return fmt.Sprintf("riot api %s (HTTP %d)", e.Status, e.Code)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusOf extracts the Status carried by err; nil maps to StatusOK
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return StatusTransient
}

// Client is a Riot Games API client with rate limiting. It never retries;
// callers treat a failed call as unknown for the current cycle.
type Client struct {
	apiKey     string
	httpClient *http.Client

	// baseURL overrides the per-host routing, used by tests
	baseURL string

	// Simple rate limiter
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL sends every request to baseURL instead of the regional hosts
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Riot API client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Rate limit: ~20 requests per second (50ms between requests)
		minInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) url(host, path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	return fmt.Sprintf("https://%s.api.riotgames.com%s", host, path)
}

// wait applies the client-wide request spacing
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	delay := time.Duration(0)
	if elapsed < c.minInterval {
		delay = c.minInterval - elapsed
	}
	c.lastRequest = time.Now().Add(delay)
	c.mu.Unlock()

	if delay == 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// get performs a GET request and decodes the JSON response
func (c *Client) get(ctx context.Context, url string, result any) error {
	// Rejected locally, so it says nothing about the player
	if strings.ContainsAny(url, "\r\n") {
		return &APIError{Status: StatusTransient, Err: errors.New("invalid url")}
	}

	if err := c.wait(ctx); err != nil {
		return &APIError{Status: StatusTransient, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Status: StatusTransient, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Status: StatusTransient, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			Status: classify(resp.StatusCode),
			Code:   resp.StatusCode,
			Err:    fmt.Errorf("body: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &APIError{Status: StatusTransient, Code: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func classify(code int) Status {
	switch code {
	case http.StatusNotFound:
		return StatusNotFound
	case http.StatusTooManyRequests:
		return StatusRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return StatusAuthInvalid
	default:
		return StatusTransient
	}
}
