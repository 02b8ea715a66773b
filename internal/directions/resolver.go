// Package directions resolves physical wayfinding rules for catalog
// copies. The rule table is loaded once per process, from the shared
// cache when present and otherwise from the external feed, and is
// immutable afterwards.
package directions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"stacksgw/internal/cache"
	"stacksgw/internal/catalog"
)

const (
	cacheTable = "direction_cache"
	// cacheKey is the single shared-cache entry holding the serialized
	// rule table.
	cacheKey = "item-directions"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Resolver matches (library, call number, format, location) tuples to
// at most one wayfinding rule. It starts unloaded; the first Resolve
// call loads the rule table and the loaded state is terminal for the
// process lifetime.
type Resolver struct {
	feedURL    string
	httpClient HTTPDoer

	mu     sync.Mutex
	loaded bool
	rules  []*catalog.Direction
}

// NewResolver creates an unloaded Resolver for the given feed URL.
func NewResolver(feedURL string, opts ...Option) *Resolver {
	r := &Resolver{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client for feed fetches.
func WithHTTPClient(c HTTPDoer) Option {
	return func(r *Resolver) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// ensureLoaded transitions the resolver from unloaded to loaded. The
// cached rule table is preferred; on a cache miss the feed is fetched
// and the serialized table written back. A failed load leaves the
// resolver unloaded so a later call can retry, and is reported as an
// empty rule table rather than an error.
func (r *Resolver) ensureLoaded(ctx context.Context) []*catalog.Direction {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.rules
	}

	cacheDB, err := cache.GetGlobalCache()
	if err != nil {
		slog.Warn("Direction cache unavailable", "error", err)
		cacheDB = nil
	}

	if cacheDB != nil {
		if data, found, err := cacheDB.Get(cacheTable, cacheKey); err == nil && found {
			var rules []*catalog.Direction
			if err := json.Unmarshal([]byte(data), &rules); err == nil {
				r.rules = rules
				r.loaded = true
				slog.Debug("Loaded direction rules from cache", "rules", len(rules))
				return r.rules
			}
			slog.Warn("Failed to decode cached direction rules, refetching", "error", err)
		}
	}

	rules, err := r.fetchFeed(ctx)
	if err != nil {
		slog.Warn("Failed to load directions feed", "error", err)
		return nil
	}

	if cacheDB != nil {
		if data, err := json.Marshal(rules); err == nil {
			if err := cacheDB.Set(cacheTable, cacheKey, string(data)); err != nil {
				slog.Warn("Failed to cache direction rules", "error", err)
			}
		}
	}

	r.rules = rules
	r.loaded = true
	slog.Info("Loaded direction rules from feed", "rules", len(rules))
	return r.rules
}

// Resolve returns the first rule matching the given tuple, or nil when
// no rule matches. Inputs are uppercased before matching. Each rule is
// tried in table order against three tiers:
//
//  1. location: the rule's location key is a substring of the input
//     location key
//  2. format+call: both the rule's format key and call key are
//     substrings of the corresponding inputs
//  3. range: the normalized call number falls lexicographically within
//     the rule's [start, end] range, inclusive
//
// Resolve never fails; absence of a match is a normal nil result.
func (r *Resolver) Resolve(ctx context.Context, library, callNumber, formatKey, locationKey string) *catalog.Direction {
	library = strings.ToUpper(library)
	callNumber = strings.ToUpper(callNumber)
	formatKey = strings.ToUpper(formatKey)
	locationKey = strings.ToUpper(locationKey)

	for _, rule := range r.ensureLoaded(ctx) {
		if !strings.EqualFold(rule.Library, library) {
			continue
		}

		if rule.LocationKey != "" &&
			strings.Contains(locationKey, strings.ToUpper(rule.LocationKey)) {
			return rule
		}

		if rule.FormatKey != "" && rule.CallKey != "" &&
			strings.Contains(formatKey, strings.ToUpper(rule.FormatKey)) &&
			strings.Contains(callNumber, strings.ToUpper(rule.CallKey)) {
			return rule
		}

		if rule.StartCall != "" && rule.EndCall != "" &&
			callNumber >= strings.ToUpper(rule.StartCall) &&
			callNumber <= strings.ToUpper(rule.EndCall) {
			return rule
		}
	}

	return nil
}
