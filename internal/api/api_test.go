package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacksgw/internal/availability"
	"stacksgw/internal/cache"
	"stacksgw/internal/catalog"
	"stacksgw/internal/directions"
	"stacksgw/internal/itemstore"
	"stacksgw/internal/search"
	"stacksgw/internal/testutil"
)

const originPayload = `{
	"response": {
		"numFound": 1,
		"docs": [{"id": "u1234", "title_display": ["Moby Dick"], "format_facet": ["Book"]}]
	},
	"facet_counts": {
		"facet_fields": {"library_facet": ["Alderman", 1]}
	}
}`

func setupServer(t *testing.T) (*Server, *url.Values) {
	t.Helper()

	testutil.WithViper(t)

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", filepath.Join(env.RootDir(), "cache.db"))

	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })

	var capturedQuery url.Values
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query()
		_, _ = w.Write([]byte(originPayload))
	}))
	t.Cleanup(origin.Close)

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	searchClient := search.NewClient(search.WithBaseURL(origin.URL))
	store := itemstore.NewStore(pool)
	resolver := directions.NewResolver("http://unused.invalid/feed")
	enricher := availability.NewEnricher(resolver, pool)

	return NewServer(searchClient, store, enricher), &capturedQuery
}

func TestSearchEndpoint(t *testing.T) {
	server, capturedQuery := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog/search?query=moby+dick&per_page=5")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var collection catalog.ItemCollection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&collection))

	assert.Equal(t, 1, collection.Count)
	require.Len(t, collection.Items, 1)
	assert.Equal(t, "u1234", collection.Items[0].ID)
	require.Len(t, collection.Facets, 1)
	assert.Equal(t, "library", collection.Facets[0].Name)

	// The origin saw the canonical parameter list.
	q := *capturedQuery
	assert.Equal(t, "moby dick", q.Get("q"))
	assert.Equal(t, "5", q.Get("per_page"))
	assert.Equal(t, "0", q.Get("page"))
}

func TestSearchEndpointFacetsParam(t *testing.T) {
	server, capturedQuery := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	facets := url.QueryEscape(`{"library": "Alderman"}`)
	resp, err := http.Get(ts.URL + "/catalog/search?query=history&facets=" + facets)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	q := *capturedQuery
	assert.Equal(t, "Alderman", q.Get("f[library_facet][]"))
}

func TestSearchEndpointBadFacetsParam(t *testing.T) {
	server, _ := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog/search?query=x&facets=notjson")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchPopulatesItemCache(t *testing.T) {
	server, _ := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog/search?query=moby")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Population is asynchronous relative to the search response.
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/catalog/item/u1234")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
}

const holdingsPayload = `<?xml version="1.0" encoding="UTF-8"?>
<firehose>
  <canHold value="yes"><message>Item is holdable</message></canHold>
  <holding holdable="true" shadowed="false">
    <callNumber>PS3551 .A78</callNumber>
    <shelvingKey>PS3551.A78</shelvingKey>
    <library name="Alderman" code="ALDERMAN" deliverable="true" remoteStorage="false"/>
    <copy copyNumber="1" barCode="X001" shadowed="false" periodical="false">
      <circulate>true</circulate>
      <currentLocation name="Stacks" code="STACKS"/>
      <homeLocation name="Stacks" code="STACKS"/>
      <itemType code="BOOK"/>
    </copy>
  </holding>
</firehose>`

func TestSearchWithAvailabilityCachesEnrichedItem(t *testing.T) {
	testutil.WithViper(t)

	env := testutil.NewTestEnv(t)
	viper.Set("cache.dbfile", filepath.Join(env.RootDir(), "cache.db"))

	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(originPayload))
	}))
	t.Cleanup(origin.Close)

	holdings := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(holdingsPayload))
	}))
	t.Cleanup(holdings.Close)

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	searchClient := search.NewClient(search.WithBaseURL(origin.URL))
	store := itemstore.NewStore(pool)
	resolver := directions.NewResolver("http://unused.invalid/feed")
	enricher := availability.NewEnricher(resolver, pool, availability.WithBaseURL(holdings.URL))

	server := NewServer(searchClient, store, enricher)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog/search?query=moby&availability=true")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var collection catalog.ItemCollection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&collection))
	require.Len(t, collection.Items, 1)
	require.Len(t, collection.Items[0].Holdings, 1)

	// The item cache is populated only after enrichment has finished,
	// so the cached entry carries the holdings and the background
	// serialization never overlaps with the enrichment writes.
	var cached catalog.Item
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/catalog/item/u1234")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return json.NewDecoder(resp.Body).Decode(&cached) == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, cached.Holdable)
	require.Len(t, cached.Holdings, 1)
	assert.Equal(t, "PS3551.A78", cached.Holdings[0].NormalizedCallNumber)
}

func TestItemEndpointNotFound(t *testing.T) {
	server, _ := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/catalog/item/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStubEndpoints(t *testing.T) {
	server, _ := setupServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	for _, path := range []string{
		"/directory/search",
		"/directory/list",
		"/directory/entry/dir1",
		"/hours/list",
		"/jobs/list",
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/directory/entry/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
