// Package catalog contains the domain model for the library catalog:
// items and their physical holdings, search facets, wayfinding
// directions, and the pure request/response transformations around them.
package catalog

// Item is a single catalog record. Most descriptive fields are repeated
// because the origin models them as multi-valued.
type Item struct {
	ID          string     `json:"id"`
	Title       []string   `json:"title,omitempty"`
	Author      []string   `json:"author,omitempty"`
	Format      []string   `json:"format,omitempty"`
	Library     []string   `json:"library,omitempty"`
	ISBN        []string   `json:"isbn,omitempty"`
	CallNumbers []string   `json:"call_numbers,omitempty"`
	Score       float64    `json:"score,omitempty"`
	Holdable    bool       `json:"holdable,omitempty"`
	HoldMessage string     `json:"hold_message,omitempty"`
	Holdings    []*Holding `json:"holdings,omitempty"`
}

// PrimaryFormat returns the first format value, or "" if the item has none.
func (i *Item) PrimaryFormat() string {
	if len(i.Format) == 0 {
		return ""
	}
	return i.Format[0]
}

// Holding is one shelving entry of an item at a particular library.
type Holding struct {
	CallNumber           string  `json:"call_number,omitempty"`
	NormalizedCallNumber string  `json:"normalized_call_number,omitempty"`
	Sequence             int     `json:"sequence,omitempty"`
	Holdable             bool    `json:"holdable,omitempty"`
	Shadowed             bool    `json:"shadowed,omitempty"`
	LibraryName          string  `json:"library_name,omitempty"`
	LibraryCode          string  `json:"library_code,omitempty"`
	Deliverable          bool    `json:"deliverable,omitempty"`
	Remote               bool    `json:"remote,omitempty"`
	Copies               []*Copy `json:"copies,omitempty"`
}

// Copy is an individual physical instance of a holding. Direction is a
// reference into the shared rule table, never a private copy.
type Copy struct {
	Number          int        `json:"number,omitempty"`
	Periodical      bool       `json:"periodical,omitempty"`
	Barcode         string     `json:"barcode,omitempty"`
	Shadowed        bool       `json:"shadowed,omitempty"`
	Circulate       bool       `json:"circulate,omitempty"`
	CurrentLocation Location   `json:"current_location,omitempty"`
	HomeLocation    Location   `json:"home_location,omitempty"`
	ItemType        string     `json:"item_type,omitempty"`
	LastCheckout    string     `json:"last_checkout,omitempty"`
	Direction       *Direction `json:"direction,omitempty"`
}

// Location is a named shelving location within a library.
type Location struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// FacetValue is one (value, count) pair within a facet category.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet is a named facet category with its value counts.
type Facet struct {
	Name   string       `json:"name"`
	Values []FacetValue `json:"values,omitempty"`
}

// Facets is the fixed set of facet categories attached to a collection.
type Facets []Facet

// Direction is one wayfinding rule. Rules are immutable after load and
// shared between all copies they are attached to; their position in the
// rule table is their match priority.
type Direction struct {
	Library     string `json:"library"`
	LocationKey string `json:"location_key,omitempty"`
	FormatKey   string `json:"format_key,omitempty"`
	CallKey     string `json:"call_key,omitempty"`
	StartCall   string `json:"start_call,omitempty"`
	EndCall     string `json:"end_call,omitempty"`
	Floor       string `json:"floor,omitempty"`
	Area        string `json:"area,omitempty"`
	Text        string `json:"text,omitempty"`
}

// ItemCollection is the result of one search request: total match count,
// the page of items, and optionally the facet counts for the whole result.
type ItemCollection struct {
	Count  int     `json:"count"`
	Items  []*Item `json:"items,omitempty"`
	Facets Facets  `json:"facets,omitempty"`
}
