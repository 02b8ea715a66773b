package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"stacksgw/internal/catalog"
	"stacksgw/internal/errdefs"
)

// The feed is a spreadsheet list feed covering a single library, so
// every rule gets the same library name.
const feedLibrary = "ALDERMAN"

// feedDocument is the directions feed payload: a list feed whose
// entries each carry the fields of one wayfinding rule.
type feedDocument struct {
	Feed struct {
		Entry []feedEntry `json:"entry"`
	} `json:"feed"`
}

type feedEntry struct {
	Title      feedText `json:"title"`
	Location   feedText `json:"gsx$location"`
	Format     feedText `json:"gsx$format"`
	Call       feedText `json:"gsx$call"`
	StartCall  feedText `json:"gsx$startcallnumber"`
	EndCall    feedText `json:"gsx$endcallnumber"`
	Floor      feedText `json:"gsx$floor"`
	Area       feedText `json:"gsx$area"`
	Directions feedText `json:"gsx$directions"`
}

type feedText struct {
	Text string `json:"$t"`
}

// fetchFeed retrieves and decodes the external directions feed into the
// in-memory rule list, preserving feed order. Feed order is match
// priority.
func (r *Resolver) fetchFeed(ctx context.Context) ([]*catalog.Direction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, errdefs.NewFetchError(r.feedURL, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errdefs.NewFetchError(r.feedURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errdefs.NewFetchError(r.feedURL,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errdefs.NewParseError("directions feed", err)
	}

	rules := make([]*catalog.Direction, 0, len(doc.Feed.Entry))
	for _, entry := range doc.Feed.Entry {
		rules = append(rules, &catalog.Direction{
			Library:     feedLibrary,
			LocationKey: entry.Location.Text,
			FormatKey:   entry.Format.Text,
			CallKey:     entry.Call.Text,
			StartCall:   entry.StartCall.Text,
			EndCall:     entry.EndCall.Text,
			Floor:       entry.Floor.Text,
			Area:        entry.Area.Text,
			Text:        entry.Directions.Text,
		})
	}
	return rules, nil
}
