// Package availability enriches catalog items with live per-copy
// holdings data. One holdings request is dispatched per physical item
// before any result is awaited, and the call returns only once every
// dispatched request has completed. A single item's failure never
// aborts its siblings.
package availability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"stacksgw/internal/catalog"
	"stacksgw/internal/directions"
	"stacksgw/internal/errdefs"
)

const (
	defaultBaseURL        = "http://search.lib.virginia.edu/catalog"
	defaultRequestTimeout = 5 * time.Second
	defaultDeadline       = 20 * time.Second
)

// physicalIDPattern selects catalog records that represent physical
// items: a letter prefix followed by digits. Digital collection ids
// carry other shapes and have no holdings.
var physicalIDPattern = regexp.MustCompile(`^[a-zA-Z]+[0-9]+$`)

// excludedLocationCodes are current locations whose copies never get a
// direction attached: the copy is not on its shelf.
var excludedLocationCodes = map[string]bool{
	"CHECKEDOUT": true,
	"BY-REQUEST": true,
	"IVYSTACKS":  true,
}

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Enricher fetches holdings documents and attaches them to items.
type Enricher struct {
	baseURL        string
	httpClient     HTTPDoer
	resolver       *directions.Resolver
	pool           *ants.Pool
	requestTimeout time.Duration
	deadline       time.Duration
}

// NewEnricher creates an Enricher that runs its fan-out on the given pool.
func NewEnricher(resolver *directions.Resolver, pool *ants.Pool, opts ...Option) *Enricher {
	e := &Enricher{
		baseURL:        defaultBaseURL,
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		resolver:       resolver,
		pool:           pool,
		requestTimeout: defaultRequestTimeout,
		deadline:       defaultDeadline,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option is a functional option for configuring the Enricher.
type Option func(*Enricher)

// WithBaseURL sets a custom base URL for the holdings origin.
func WithBaseURL(base string) Option {
	return func(e *Enricher) {
		if base != "" {
			e.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(e *Enricher) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithRequestTimeout sets the per-item request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.requestTimeout = d
		}
	}
}

// WithDeadline sets the overall deadline for one Enrich call.
func WithDeadline(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.deadline = d
		}
	}
}

// Enrich attaches holdings to every physical item in the collection.
// All requests are dispatched before any result is awaited, and Enrich
// returns once every dispatched request has completed. Items whose
// request fails, times out, or parses badly are left without holdings;
// the failure is logged, never propagated. When resolveDirections is
// set, each on-shelf copy is matched against the direction rule table.
func (e *Enricher) Enrich(ctx context.Context, collection *catalog.ItemCollection, resolveDirections bool) {
	if collection == nil || len(collection.Items) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	var wg sync.WaitGroup
	dispatched := 0
	for _, item := range collection.Items {
		if !physicalIDPattern.MatchString(item.ID) {
			continue
		}

		item := item
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			e.enrichItem(ctx, item, resolveDirections)
		})
		if err != nil {
			wg.Done()
			slog.Warn("Failed to schedule holdings fetch", "id", item.ID, "error", err)
			continue
		}
		dispatched++
	}

	wg.Wait()
	slog.Debug("Availability enrichment complete", "dispatched", dispatched, "items", len(collection.Items))
}

// enrichItem fetches and applies one item's holdings. Failures are
// isolated here: the item is left bare and the error logged.
func (e *Enricher) enrichItem(ctx context.Context, item *catalog.Item, resolveDirections bool) {
	doc, err := e.fetchHoldings(ctx, item.ID)
	if err != nil {
		slog.Warn("Holdings fetch failed", "id", item.ID, "error", err)
		return
	}

	doc.apply(item)

	if !resolveDirections {
		return
	}

	for _, holding := range item.Holdings {
		for _, cp := range holding.Copies {
			if excludedLocationCodes[strings.ToUpper(cp.CurrentLocation.Code)] {
				continue
			}
			cp.Direction = e.resolver.Resolve(ctx,
				holding.LibraryCode,
				holding.NormalizedCallNumber,
				item.PrimaryFormat(),
				cp.CurrentLocation.Code)
		}
	}
}

func (e *Enricher) fetchHoldings(ctx context.Context, id string) (*holdingsDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/firehose", e.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errdefs.NewFetchError(endpoint, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errdefs.NewFetchError(endpoint, err)
	}

	return parseHoldings(body)
}
