// Package natura2000 queries the Natura 2000 tables of the EEA DiscoData
// SQL endpoint.
package natura2000

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/jonathan/bioquery/internal/observability"
)

// DefaultEndpoint is the DiscoData SQL forwarding endpoint.
const DefaultEndpoint = "https://discodata.eea.europa.eu/sql"

// Source is reported in every envelope.
const Source = "https://discodata.eea.europa.eu"

const (
	siteIDPrefix    = "https://biodiversity.europa.eu/sites/natura2000/"
	habitatIDPrefix = "https://biodiversity.europa.eu/habitats/ANNEX1_"
)

// Envelope wraps DiscoData records with an identifier and their source.
type Envelope struct {
	ID      string          `json:"@id"`
	Source  string          `json:"source"`
	Results json.RawMessage `json:"results"`
}

// Query is one fixed lookup: a table filtered on a single code column.
type Query struct {
	Name     string // command name
	Short    string // one-line description
	Arg      string // placeholder name of the code in usage text
	Table    string
	Column   string
	IDPrefix string
}

// SQL renders the query for code. Single quotes in code are doubled.
func (q Query) SQL(code string) string {
	escaped := strings.ReplaceAll(code, "'", "''")
	return fmt.Sprintf("SELECT * FROM [BISE].[latest].[%s] WHERE %s='%s'", q.Table, q.Column, escaped)
}

// The four supported lookups.
var (
	SiteInfoQuery = Query{
		Name:     "site-info",
		Short:    "Get site information",
		Arg:      "site_code",
		Table:    "Site_Information",
		Column:   "site_code",
		IDPrefix: siteIDPrefix,
	}
	SiteHabitatsQuery = Query{
		Name:     "site-habitats",
		Short:    "Get habitats at a site",
		Arg:      "site_code",
		Table:    "Site_Habitats_List",
		Column:   "site_code",
		IDPrefix: siteIDPrefix,
	}
	SiteSpeciesQuery = Query{
		Name:     "site-species",
		Short:    "Get species at a site",
		Arg:      "site_code",
		Table:    "Site_Species_List_Details",
		Column:   "site_code",
		IDPrefix: siteIDPrefix,
	}
	HabitatInfoQuery = Query{
		Name:     "habitat-info",
		Short:    "Get habitat information",
		Arg:      "code_2000",
		Table:    "Habitat_Information",
		Column:   "code_2000",
		IDPrefix: habitatIDPrefix,
	}
)

// Queries lists every lookup in command order.
var Queries = []Query{SiteInfoQuery, SiteHabitatsQuery, SiteSpeciesQuery, HabitatInfoQuery}

var validate = validator.New()

// ValidateCode rejects codes that are empty, non-printable ASCII or too long.
func ValidateCode(code string) error {
	if err := validate.Var(code, "required,printascii,max=64"); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return fmt.Errorf("invalid code %q: fails %q", code, validationErrors[0].Tag())
		}
		return fmt.Errorf("invalid code %q: %w", code, err)
	}
	return nil
}

// Client runs lookups against DiscoData.
type Client struct {
	endpoint string
	http     *fetch.Client
	logger   *slog.Logger
}

// NewClient returns a client for endpoint (DefaultEndpoint when empty).
// logger may be nil.
func NewClient(endpoint string, httpClient *fetch.Client, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &Client{endpoint: endpoint, http: httpClient, logger: logger}
}

// Run executes q for code. It returns nil when the request fails; the
// failure is logged. A failed lookup never produces an envelope with null
// results, so callers can tell "no answer" from "empty answer".
func (c *Client) Run(ctx context.Context, q Query, code string) *Envelope {
	results, err := c.querySQL(ctx, q.SQL(code))
	if err != nil {
		c.logger.Error("error querying EEA", "query", q.Name, "code", code, "error", err)
		return nil
	}
	return &Envelope{
		ID:      q.IDPrefix + code,
		Source:  Source,
		Results: results,
	}
}

// SiteInfo returns the site information record of a Natura 2000 site.
func (c *Client) SiteInfo(ctx context.Context, siteCode string) *Envelope {
	return c.Run(ctx, SiteInfoQuery, siteCode)
}

// SiteHabitats returns the habitats listed for a site.
func (c *Client) SiteHabitats(ctx context.Context, siteCode string) *Envelope {
	return c.Run(ctx, SiteHabitatsQuery, siteCode)
}

// SiteSpecies returns the species listed for a site.
func (c *Client) SiteSpecies(ctx context.Context, siteCode string) *Envelope {
	return c.Run(ctx, SiteSpeciesQuery, siteCode)
}

// HabitatInfo returns information on an Annex I habitat type.
func (c *Client) HabitatInfo(ctx context.Context, code2000 string) *Envelope {
	return c.Run(ctx, HabitatInfoQuery, code2000)
}

// querySQL forwards sql and returns the "records" member of the answer, or
// the whole body when there is none.
func (c *Client) querySQL(ctx context.Context, sql string) (json.RawMessage, error) {
	var body json.RawMessage
	if err := c.http.GetJSON(ctx, c.endpoint, url.Values{"query": {sql}}, &body); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if records, ok := obj["records"]; ok {
				return records, nil
			}
		}
	}
	return body, nil
}
