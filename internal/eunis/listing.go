// Package eunis reads the EEA listing of EUNIS species that carry a
// Natura 2000 (Birds/Habitats Directive) code.
package eunis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/jonathan/bioquery/internal/schemas"
	"github.com/jonathan/bioquery/internal/types"
)

// DefaultEndpoint is the EEA daviz export of EUNIS species with Natura 2000 codes.
const DefaultEndpoint = "https://www.eea.europa.eu/data-and-maps/daviz/sds/list-of-eunis-species-with-1/daviz.json"

// listing is the body of the daviz export.
type listing struct {
	Items []item `json:"items"`
}

// item is one species row. Field names follow the export's column keys.
type item struct {
	Code       *string `json:"o"`
	Name       *string `json:"name"`
	Authorship *string `json:"author"`
	URL        *string `json:"s"`
}

// Client fetches the policy code listing.
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

// ListPolicyCodes downloads the listing and returns one entry per item that
// has both a code and a scientific name. Codes are upper-cased.
func (c *Client) ListPolicyCodes(ctx context.Context) ([]types.PolicyCodeEntry, error) {
	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, c.endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("eunis: listing: %w", err)
	}
	return ParseListing(raw)
}

// ParseListing validates and converts a daviz export body.
func ParseListing(body []byte) ([]types.PolicyCodeEntry, error) {
	if err := schemas.ValidateDocument(schemas.PolicyListing, body); err != nil {
		return nil, fmt.Errorf("eunis: listing: unexpected payload: %w", err)
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("eunis: listing: %w", err)
	}

	entries := make([]types.PolicyCodeEntry, 0, len(l.Items))
	for _, it := range l.Items {
		code := strings.ToUpper(trimmed(it.Code))
		name := trimmed(it.Name)
		if code == "" || name == "" {
			continue
		}
		entries = append(entries, types.PolicyCodeEntry{
			Code:           code,
			ScientificName: name,
			Authorship:     trimmed(it.Authorship),
			ReferenceURL:   trimmed(it.URL),
		})
	}
	return entries, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
