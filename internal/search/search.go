package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stacksgw/internal/cache"
	"stacksgw/internal/catalog"
	"stacksgw/internal/errdefs"
)

// Search resolves a search request through the cache. On a hit the
// cached raw payload is returned unchanged; on a miss the origin is
// queried synchronously and the decoded result stored under the
// request's digest key before being returned. The bool reports whether
// the result came from cache.
func (c *Client) Search(ctx context.Context, req catalog.SearchRequest) (*catalog.RawResult, bool, error) {
	endpoint := c.baseURL + "?" + req.Encode()
	key := cacheKey(endpoint)

	return cache.GetOrFetch("search_cache", key, func() (*catalog.RawResult, error) {
		return c.fetch(ctx, endpoint)
	})
}

// fetch performs the origin request with rate limiting and retry.
func (c *Client) fetch(ctx context.Context, endpoint string) (*catalog.RawResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		result, err := c.doRequest(ctx, endpoint)
		if err != nil {
			lastErr = err
			if !isRetryable(err) || attempt == c.retryAttempts {
				return nil, err
			}
			time.Sleep(backoffDelay(attempt))
			continue
		}
		return result, nil
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*catalog.RawResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errdefs.NewFetchError(endpoint,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var result catalog.RawResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errdefs.NewParseError("search origin", err)
	}

	return &result, nil
}

func isRetryable(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		// Network errors (connection resets etc.)
		if strings.Contains(urlErr.Error(), "connection") {
			return true
		}
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}
