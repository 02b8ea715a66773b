package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPerPage = 10
)

// Param is a single (key, value) pair in a canonical parameter list.
type Param struct {
	Key   string
	Value string
}

// FacetFilter restricts a search to one or more values of a single facet.
// Value order is preserved in the canonical parameter list.
type FacetFilter struct {
	Facet  string
	Values []string
}

// AdvancedFields carries the advanced-search field overrides. Empty
// fields are omitted from the canonical parameter list.
type AdvancedFields struct {
	Op                   string
	Author               string
	Title                string
	Journal              string
	Subject              string
	Keyword              string
	CallNumber           string
	Published            string
	PublicationDateStart string
	PublicationDateEnd   string
}

func (a AdvancedFields) pairs() []Param {
	// Fixed emission order so identical requests canonicalize identically.
	ordered := []Param{
		{"op", a.Op},
		{"author", a.Author},
		{"title", a.Title},
		{"journal", a.Journal},
		{"subject", a.Subject},
		{"keyword", a.Keyword},
		{"call_number", a.CallNumber},
		{"published", a.Published},
		{"publication_date_start", a.PublicationDateStart},
		{"publication_date_end", a.PublicationDateEnd},
	}
	params := make([]Param, 0, len(ordered))
	for _, p := range ordered {
		if p.Value != "" {
			params = append(params, p)
		}
	}
	return params
}

// SearchRequest is a normalized search against the catalog origin.
type SearchRequest struct {
	Query   string
	PerPage int
	Page    int
	SortKey string

	Advanced AdvancedFields

	// Facets preserves the caller's filter order; it feeds directly into
	// the canonical parameter list.
	Facets []FacetFilter
}

// Params builds the canonical parameter list for the request. Base
// fields come first in a fixed order, then advanced fields, then one
// pair per facet filter value. When an advanced title is present the
// free-text query is dropped and an advanced=true marker is appended.
// Two logically identical requests always produce the same list.
func (r SearchRequest) Params() []Param {
	query := r.Query
	advanced := false
	if r.Advanced.Title != "" {
		query = ""
		advanced = true
	}

	perPage := r.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := r.Page
	if page < 0 {
		page = 0
	}

	params := []Param{
		{"q", query},
		{"per_page", strconv.Itoa(perPage)},
		{"page", strconv.Itoa(page)},
	}
	if r.SortKey != "" {
		params = append(params, Param{"sort_key", r.SortKey})
	}

	params = append(params, r.Advanced.pairs()...)

	for _, filter := range r.Facets {
		key := "f[" + filter.Facet + "_facet][]"
		for _, value := range filter.Values {
			params = append(params, Param{key, value})
		}
	}

	if advanced {
		params = append(params, Param{"advanced", "true"})
	}

	return params
}

// Encode renders the canonical parameter list as a query string,
// preserving parameter order. url.Values.Encode would sort keys and
// break the stable ordering the cache key depends on.
func (r SearchRequest) Encode() string {
	params := r.Params()
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}
