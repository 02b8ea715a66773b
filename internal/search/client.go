// Package search provides the cache-aside client for the catalog
// search origin. Results are keyed by a digest of the canonical
// request URL, so any two requests that canonicalize identically
// share one cache entry.
package search

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"stacksgw/internal/ratelimit"
)

const (
	defaultBaseURL       = "http://search.lib.virginia.edu/catalog.json"
	defaultMaxAttempts   = 3
	defaultRatePerSecond = 10
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a catalog search origin client.
type Client struct {
	baseURL       string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
}

// NewClient creates a new search origin client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		rateLimiter:   ratelimit.New("catalog", defaultRatePerSecond),
		retryAttempts: defaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the search origin.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRetryAttempts sets the number of retry attempts for failed requests.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRateLimiter sets a custom rate limiter for the client.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// cacheKey computes the content-addressed cache key for an origin URL.
func cacheKey(url string) string {
	digest := sha1.Sum([]byte(url))
	return hex.EncodeToString(digest[:])
}
