package gbif

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pernisMatch = `{
	"usageKey": 2480830,
	"scientificName": "Pernis apivorus (Linnaeus, 1758)",
	"canonicalName": "Pernis apivorus",
	"authorship": "(Linnaeus, 1758)",
	"rank": "SPECIES",
	"status": "ACCEPTED",
	"confidence": 99,
	"matchType": "EXACT",
	"kingdom": "Animalia",
	"phylum": "Chordata",
	"class": "Aves",
	"order": "Accipitriformes",
	"family": "Accipitridae",
	"genus": "Pernis",
	"nubKey": 2480830
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := fetch.NewClient(nil)
	t.Cleanup(httpClient.Close)
	return NewClient(server.URL, httpClient)
}

func TestMatch_Found(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Pernis apivorus", r.URL.Query().Get("name"))
		assert.Equal(t, "true", r.URL.Query().Get("verbose"))
		_, _ = w.Write([]byte(pernisMatch))
	})

	m, err := client.Match(context.Background(), "  Pernis apivorus ")
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Equal(t, int64(2480830), m.UsageKey)
	assert.Equal(t, "Pernis apivorus", m.CanonicalName)
	assert.Equal(t, 99, m.Confidence)
	assert.Equal(t, "Aves", m.Class)
	assert.Equal(t, "Pernis", m.Genus)
}

func TestMatch_NoUsageKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"confidence": 100, "matchType": "NONE", "synonym": false}`))
	})

	m, err := client.Match(context.Background(), "Nonexistus fakeus")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMatch_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	m, err := client.Match(context.Background(), "Pernis apivorus")
	require.Error(t, err)
	assert.Nil(t, m)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}

func TestMatch_EmptyName(t *testing.T) {
	client := NewClient("", fetch.NewClient(nil))
	_, err := client.Match(context.Background(), "   ")
	assert.Error(t, err)
	assert.Equal(t, DefaultEndpoint, client.endpoint)
}
