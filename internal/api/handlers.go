package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stacksgw/internal/catalog"
	"stacksgw/internal/errdefs"
)

// handleSearch runs a catalog search: canonicalize, resolve through the
// search cache, transform, optionally enrich with live availability,
// and schedule item-cache population.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search request")
		return
	}

	raw, fromCache, err := s.search.Search(r.Context(), req)
	if err != nil {
		slog.Error("Catalog search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog request failed")
		return
	}
	if fromCache {
		slog.Info("Hit cache for catalog search request")
	}

	collection, err := catalog.Transform(raw)
	if err != nil {
		slog.Error("Catalog result transform failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog request failed")
		return
	}

	if boolParam(r, "availability") {
		s.enricher.Enrich(r.Context(), collection, boolParam(r, "directions"))
	}

	// Off the critical path; no completion guarantee. Scheduled after
	// enrichment so the background serialization never shares the items
	// with a writer.
	s.store.Populate(collection)

	writeJSON(w, http.StatusOK, collection)
}

// handleItem looks a single item up in the item cache.
func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, errdefs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("Item lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "catalog request failed")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// decodeSearchRequest maps query parameters onto a SearchRequest.
// The facets parameter is a JSON object mapping facet name to either a
// single value or a list of values, matching the original wire format.
func decodeSearchRequest(r *http.Request) (catalog.SearchRequest, error) {
	q := r.URL.Query()

	req := catalog.SearchRequest{
		Query:   q.Get("query"),
		SortKey: q.Get("sort_key"),
		Advanced: catalog.AdvancedFields{
			Op:                   q.Get("op"),
			Author:               q.Get("author"),
			Title:                q.Get("title"),
			Journal:              q.Get("journal"),
			Subject:              q.Get("subject"),
			Keyword:              q.Get("keyword"),
			CallNumber:           q.Get("call_number"),
			Published:            q.Get("published"),
			PublicationDateStart: q.Get("publication_date_start"),
			PublicationDateEnd:   q.Get("publication_date_end"),
		},
	}

	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil {
			return catalog.SearchRequest{}, err
		}
		req.PerPage = perPage
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return catalog.SearchRequest{}, err
		}
		req.Page = page
	}

	if v := q.Get("facets"); v != "" {
		filters, err := decodeFacetFilters(v)
		if err != nil {
			return catalog.SearchRequest{}, err
		}
		req.Facets = filters
	}

	return req, nil
}

func decodeFacetFilters(raw string) ([]catalog.FacetFilter, error) {
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}

	// Sort keys so the same facet map always canonicalizes identically
	// regardless of JSON object iteration order.
	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	filters := make([]catalog.FacetFilter, 0, len(decoded))
	for _, key := range keys {
		var values []string
		if err := json.Unmarshal(decoded[key], &values); err != nil {
			var single string
			if err := json.Unmarshal(decoded[key], &single); err != nil {
				return nil, err
			}
			values = []string{single}
		}
		filters = append(filters, catalog.FacetFilter{Facet: key, Values: values})
	}
	return filters, nil
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	return v == "true" || v == "1"
}
