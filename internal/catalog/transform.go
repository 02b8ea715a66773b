package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"stacksgw/internal/errdefs"
)

// RawResult is the origin's search response as decoded JSON. It is
// cached verbatim by the search layer and projected into an
// ItemCollection by Transform.
type RawResult struct {
	Response struct {
		NumFound any              `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	FacetCounts struct {
		FacetFields map[string][]any `json:"facet_fields"`
	} `json:"facet_counts"`
}

// facetCategories is the fixed set of facet categories exposed on a
// collection, in presentation order. The origin names each field
// "<category>_facet".
var facetCategories = []string{
	"library",
	"location",
	"format",
	"subject",
	"series",
	"language",
	"call_number",
	"region",
	"era",
	"digital_collection",
	"source",
}

// Transform projects a raw origin result into an ItemCollection.
// It is pure: no I/O, deterministic, and tolerant of absent fields.
// The only fatal condition is a count that cannot be parsed as an
// integer, which fails the whole transform.
func Transform(raw *RawResult) (*ItemCollection, error) {
	count, err := toInt(raw.Response.NumFound)
	if err != nil {
		return nil, errdefs.NewParseError("search result", fmt.Errorf("numFound: %w", err))
	}

	collection := &ItemCollection{
		Count: count,
		Items: make([]*Item, 0, len(raw.Response.Docs)),
	}

	for _, doc := range raw.Response.Docs {
		collection.Items = append(collection.Items, transformDoc(doc))
	}

	facets, err := transformFacets(raw.FacetCounts.FacetFields)
	if err != nil {
		return nil, err
	}
	collection.Facets = facets

	return collection, nil
}

// transformDoc maps one origin document onto an Item using a fixed
// projection. Absent fields become empty lists, never errors. Call
// numbers prefer the display field, falling back to the sort facet.
func transformDoc(doc map[string]any) *Item {
	callNumbers := stringList(doc, "call_number_display")
	if len(callNumbers) == 0 {
		callNumbers = stringList(doc, "call_number_sort_facet")
	}

	return &Item{
		ID:          stringField(doc, "id"),
		Title:       stringList(doc, "title_display"),
		Author:      stringList(doc, "author_display"),
		Format:      stringList(doc, "format_facet"),
		Library:     stringList(doc, "library_facet"),
		ISBN:        stringList(doc, "isbn_display"),
		CallNumbers: callNumbers,
		Score:       floatField(doc, "score"),
	}
}

// transformFacets pairs the origin's flat [value, count, value, count, …]
// arrays into FacetValue entries for each fixed category. A count that
// cannot be coerced to an integer is fatal.
func transformFacets(fields map[string][]any) (Facets, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	facets := make(Facets, 0, len(facetCategories))
	for _, category := range facetCategories {
		flat, ok := fields[category+"_facet"]
		if !ok {
			continue
		}
		facet := Facet{Name: category}
		for i := 0; i+1 < len(flat); i += 2 {
			value, _ := flat[i].(string)
			count, err := toInt(flat[i+1])
			if err != nil {
				return nil, errdefs.NewParseError("facet counts",
					fmt.Errorf("facet %s value %q: %w", category, value, err))
			}
			facet.Values = append(facet.Values, FacetValue{Value: value, Count: count})
		}
		facets = append(facets, facet)
	}

	if len(facets) == 0 {
		return nil, nil
	}
	return facets, nil
}

// toInt coerces the loosely typed values the origin uses for counts.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid count %q", n.String())
		}
		return int(parsed), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("invalid count %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid count type %T", v)
	}
}

func stringField(doc map[string]any, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func stringList(doc map[string]any, key string) []string {
	switch v := doc[key].(type) {
	case []any:
		list := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				list = append(list, s)
			}
		}
		return list
	case string:
		return []string{v}
	}
	return nil
}

func floatField(doc map[string]any, key string) float64 {
	switch v := doc[key].(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}
