package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsBaseOrdering(t *testing.T) {
	req := SearchRequest{Query: "moby dick", PerPage: 20, Page: 2, SortKey: "relevancy"}

	params := req.Params()

	require.Len(t, params, 4)
	assert.Equal(t, Param{"q", "moby dick"}, params[0])
	assert.Equal(t, Param{"per_page", "20"}, params[1])
	assert.Equal(t, Param{"page", "2"}, params[2])
	assert.Equal(t, Param{"sort_key", "relevancy"}, params[3])
}

func TestParamsDefaults(t *testing.T) {
	params := SearchRequest{Query: "whales"}.Params()

	require.Len(t, params, 3)
	assert.Equal(t, Param{"per_page", "10"}, params[1])
	assert.Equal(t, Param{"page", "0"}, params[2])
}

func TestParamsAdvancedFieldsFollowBaseFields(t *testing.T) {
	req := SearchRequest{
		Query: "whales",
		Advanced: AdvancedFields{
			Author:  "melville",
			Subject: "whaling",
		},
	}

	params := req.Params()

	require.Len(t, params, 5)
	assert.Equal(t, Param{"author", "melville"}, params[3])
	assert.Equal(t, Param{"subject", "whaling"}, params[4])
}

func TestParamsAdvancedTitleClearsQuery(t *testing.T) {
	req := SearchRequest{
		Query:    "free text",
		Advanced: AdvancedFields{Title: "moby dick"},
	}

	params := req.Params()

	assert.Equal(t, Param{"q", ""}, params[0])
	assert.Equal(t, Param{"title", "moby dick"}, params[3])
	assert.Equal(t, Param{"advanced", "true"}, params[len(params)-1])
}

func TestParamsFacetFiltersPreserveOrder(t *testing.T) {
	req := SearchRequest{
		Query: "history",
		Facets: []FacetFilter{
			{Facet: "library", Values: []string{"Alderman", "Clemons"}},
			{Facet: "format", Values: []string{"Book"}},
		},
	}

	params := req.Params()

	require.Len(t, params, 6)
	assert.Equal(t, Param{"f[library_facet][]", "Alderman"}, params[3])
	assert.Equal(t, Param{"f[library_facet][]", "Clemons"}, params[4])
	assert.Equal(t, Param{"f[format_facet][]", "Book"}, params[5])
}

func TestEncodeDeterministic(t *testing.T) {
	req := SearchRequest{
		Query: "moby dick",
		Facets: []FacetFilter{
			{Facet: "library", Values: []string{"Alderman"}},
		},
	}
	other := SearchRequest{
		Query: "moby dick",
		Facets: []FacetFilter{
			{Facet: "library", Values: []string{"Alderman"}},
		},
	}

	assert.Equal(t, req.Encode(), other.Encode())
	assert.Equal(t, "q=moby+dick&per_page=10&page=0&f%5Blibrary_facet%5D%5B%5D=Alderman", req.Encode())
}
