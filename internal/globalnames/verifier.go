// Package globalnames implements a client for the Global Names Verifier
// <https://verifier.globalnames.org>, which checks a name string against
// many biodiversity data sources at once.
package globalnames

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/bioquery/internal/fetch"
)

// DefaultEndpoint is the verification endpoint of the verifier API.
const DefaultEndpoint = "https://verifier.globalnames.org/api/v1/verifications"

// Request is the body of a verification POST.
type Request struct {
	NameStrings      []string `json:"nameStrings"`
	PreferredSources []int    `json:"preferredSources"`
}

// Response is the verifier answer; one Name per requested name string.
type Response struct {
	Names []Name `json:"names"`
}

// Name holds the verification of one name string.
type Name struct {
	Name      string   `json:"name"`
	MatchType string   `json:"matchType"`
	Results   []Result `json:"results"`
}

// Result is one data source's record for the name.
type Result struct {
	DataSourceID         int     `json:"dataSourceId"`
	DataSourceTitleShort string  `json:"dataSourceTitleShort"`
	DataSourceTitle      string  `json:"dataSourceTitle"`
	RecordID             string  `json:"recordId"`
	Outlink              string  `json:"outlink"`
	MatchType            string  `json:"matchType"`
	Score                float64 `json:"score"`
}

// SourceName returns the short source title, falling back to the full title.
func (r Result) SourceName() string {
	if r.DataSourceTitleShort != "" {
		return r.DataSourceTitleShort
	}
	return r.DataSourceTitle
}

// Client posts verification requests.
type Client struct {
	endpoint         string
	preferredSources []int
	http             *fetch.Client
}

// NewClient returns a client for endpoint (DefaultEndpoint when empty) that
// asks for results from preferredSources.
func NewClient(endpoint string, preferredSources []int, httpClient *fetch.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:         endpoint,
		preferredSources: preferredSources,
		http:             httpClient,
	}
}

// Verify checks name against the preferred sources and returns the first
// interpretation, or nil when the verifier returned none.
func (c *Client) Verify(ctx context.Context, name string) (*Name, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("globalnames: verify: empty name")
	}

	sources := c.preferredSources
	if sources == nil {
		sources = []int{}
	}
	req := Request{
		NameStrings:      []string{name},
		PreferredSources: sources,
	}

	var resp Response
	if err := c.http.PostJSON(ctx, c.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("globalnames: verify: %w", err)
	}
	if len(resp.Names) == 0 {
		return nil, nil
	}
	return &resp.Names[0], nil
}
