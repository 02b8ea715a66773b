package directions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacksgw/internal/cache"
	"stacksgw/internal/catalog"
	"stacksgw/internal/testutil"
)

func setupCache(t *testing.T) {
	t.Helper()

	testutil.WithViper(t)

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", filepath.Join(env.RootDir(), "cache.db"))

	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })
}

// seedRules writes a rule table straight into the shared cache so the
// resolver loads without touching the feed.
func seedRules(t *testing.T, rules []*catalog.Direction) {
	t.Helper()

	cacheDB, err := cache.GetGlobalCache()
	require.NoError(t, err)

	data, err := json.Marshal(rules)
	require.NoError(t, err)
	require.NoError(t, cacheDB.Set("direction_cache", "item-directions", string(data)))
}

func TestResolveRangeMatch(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", StartCall: "PS3500", EndCall: "PS3600", Floor: "2"},
	})

	resolver := NewResolver("http://unused.invalid/feed")

	rule := resolver.Resolve(context.Background(), "alderman", "PS3551.A78", "", "")
	require.NotNil(t, rule)
	assert.Equal(t, "2", rule.Floor)

	assert.Nil(t, resolver.Resolve(context.Background(), "alderman", "ZZ9999", "", ""))
}

func TestResolveRangeInclusive(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", StartCall: "PS3500", EndCall: "PS3600"},
	})

	resolver := NewResolver("http://unused.invalid/feed")

	assert.NotNil(t, resolver.Resolve(context.Background(), "alderman", "PS3500", "", ""))
	assert.NotNil(t, resolver.Resolve(context.Background(), "alderman", "PS3600", "", ""))
	assert.Nil(t, resolver.Resolve(context.Background(), "alderman", "PS3601", "", ""))
}

func TestResolveLocationMatchWinsOverLaterRules(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", LocationKey: "STACKS", Floor: "4"},
		{Library: "ALDERMAN", StartCall: "A", EndCall: "Z", Floor: "1"},
	})

	resolver := NewResolver("http://unused.invalid/feed")

	// Table order is priority order: the location rule comes first.
	rule := resolver.Resolve(context.Background(), "alderman", "PS3551", "", "NEW-STACKS")
	require.NotNil(t, rule)
	assert.Equal(t, "4", rule.Floor)
}

func TestResolveFormatCallKeyMatch(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", FormatKey: "MICROFILM", CallKey: "MFILM", Floor: "B"},
	})

	resolver := NewResolver("http://unused.invalid/feed")

	rule := resolver.Resolve(context.Background(), "Alderman", "MFILM N-1234", "Microfilm", "")
	require.NotNil(t, rule)
	assert.Equal(t, "B", rule.Floor)

	// Both keys must match for this tier.
	assert.Nil(t, resolver.Resolve(context.Background(), "Alderman", "PS3551", "Microfilm", ""))
}

func TestResolveLibraryMismatch(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", StartCall: "A", EndCall: "Z"},
	})

	resolver := NewResolver("http://unused.invalid/feed")

	assert.Nil(t, resolver.Resolve(context.Background(), "clemons", "PS3551", "", ""))
}

func TestEnsureLoadedFromFeed(t *testing.T) {
	setupCache(t)

	feedCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feedCalls++
		_, _ = w.Write([]byte(`{
			"feed": {
				"entry": [
					{
						"title": {"$t": "PS3500-PS3600"},
						"gsx$startcallnumber": {"$t": "PS3500"},
						"gsx$endcallnumber": {"$t": "PS3600"},
						"gsx$floor": {"$t": "2"},
						"gsx$area": {"$t": "New Stacks"},
						"gsx$directions": {"$t": "Take the stairs."}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	resolver := NewResolver(server.URL)

	rule := resolver.Resolve(context.Background(), "alderman", "PS3551.A78", "", "")
	require.NotNil(t, rule)
	assert.Equal(t, "ALDERMAN", rule.Library)
	assert.Equal(t, "New Stacks", rule.Area)

	// Loaded state is terminal: further resolves never refetch.
	_ = resolver.Resolve(context.Background(), "alderman", "PS3551.A78", "", "")
	assert.Equal(t, 1, feedCalls)

	// The cold load wrote the serialized table back to the shared cache.
	cacheDB, err := cache.GetGlobalCache()
	require.NoError(t, err)
	assert.True(t, cacheDB.CacheExists("direction_cache", "item-directions"))
}

func TestEnsureLoadedPrefersCache(t *testing.T) {
	setupCache(t)
	seedRules(t, []*catalog.Direction{
		{Library: "ALDERMAN", StartCall: "PS3500", EndCall: "PS3600"},
	})

	feedCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feedCalls++
	}))
	defer server.Close()

	resolver := NewResolver(server.URL)

	require.NotNil(t, resolver.Resolve(context.Background(), "alderman", "PS3551", "", ""))
	assert.Equal(t, 0, feedCalls)
}

func TestResolveFeedFailureYieldsNoMatch(t *testing.T) {
	setupCache(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewResolver(server.URL)

	// Resolve never errors; a failed load degrades to an empty table.
	assert.Nil(t, resolver.Resolve(context.Background(), "alderman", "PS3551", "", ""))
}
