// Package checklistbank implements a client for name usages in ChecklistBank
// <https://www.checklistbank.org>. Dataset 3 is the Catalogue of Life release.
package checklistbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/bioquery/internal/fetch"
)

// DefaultEndpoint is the name usage collection of the Catalogue of Life dataset.
const DefaultEndpoint = "https://api.checklistbank.org/dataset/3/nameusage"

// ID is a ChecklistBank identifier. The service returns string IDs for
// most datasets and numbers for some, so both decode to a string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("checklistbank: id %s is neither string nor number", data)
	}
	*id = ID(n.String())
	return nil
}

// NameUsage is the subset of a name usage record the resolver needs.
type NameUsage struct {
	ID     ID     `json:"id"`
	Status string `json:"status"`
}

// Client fetches name usages by key.
type Client struct {
	endpoint string
	http     *fetch.Client
}

// NewClient returns a client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint string, httpClient *fetch.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), http: httpClient}
}

// NameUsage fetches the usage stored under key.
func (c *Client) NameUsage(ctx context.Context, key int64) (*NameUsage, error) {
	if key <= 0 {
		return nil, fmt.Errorf("checklistbank: name usage: invalid key %d", key)
	}

	usage := &NameUsage{}
	target := c.endpoint + "/" + strconv.FormatInt(key, 10)
	if err := c.http.GetJSON(ctx, target, nil, usage); err != nil {
		return nil, fmt.Errorf("checklistbank: name usage: %w", err)
	}
	return usage, nil
}
