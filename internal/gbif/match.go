// Package gbif implements a client for the GBIF <https://www.gbif.org>
// backbone taxonomy name matching service.
package gbif

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/bioquery/internal/fetch"
)

// DefaultEndpoint is the species match service of the GBIF API.
const DefaultEndpoint = "https://api.gbif.org/v1/species/match"

// Match is the answer of the species match service.
type Match struct {
	UsageKey       int64  `json:"usageKey"` // ID
	NubKey         int64  `json:"nubKey"`
	ScientificName string `json:"scientificName"` // name with author
	CanonicalName  string `json:"canonicalName"`  // name
	Authorship     string `json:"authorship"`     // author
	Confidence     int    `json:"confidence"`
	MatchType      string `json:"matchType"` // EXACT, FUZZY, HIGHERRANK, NONE
	Status         string `json:"status"`    // ACCEPTED, SYNONYM, DOUBTFUL
	Rank           string `json:"rank"`      // taxon rank

	Kingdom string `json:"kingdom"`
	Phylum  string `json:"phylum"`
	Class   string `json:"class"`
	Order   string `json:"order"`
	Family  string `json:"family"`
	Genus   string `json:"genus"`
}

// Client queries the species match service.
type Client struct {
	endpoint string
	http     *fetch.Client
}

// NewClient returns a client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint string, httpClient *fetch.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Match searches the backbone for name with verbose output.
// It returns nil and no error when GBIF answers without a usable usage key.
func (c *Client) Match(ctx context.Context, name string) (*Match, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("gbif: match: search an empty name")
	}

	params := url.Values{
		"name":    {name},
		"verbose": {"true"},
	}
	m := &Match{}
	if err := c.http.GetJSON(ctx, c.endpoint, params, m); err != nil {
		return nil, fmt.Errorf("gbif: match: %w", err)
	}
	if m.UsageKey == 0 {
		return nil, nil
	}
	return m, nil
}
