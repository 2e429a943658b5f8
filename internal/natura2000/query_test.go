package natura2000

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/bioquery/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerySQL(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		code  string
		want  string
	}{
		{
			name:  "site info",
			query: SiteInfoQuery,
			code:  "DE1234567",
			want:  "SELECT * FROM [BISE].[latest].[Site_Information] WHERE site_code='DE1234567'",
		},
		{
			name:  "site habitats",
			query: SiteHabitatsQuery,
			code:  "FR9301234",
			want:  "SELECT * FROM [BISE].[latest].[Site_Habitats_List] WHERE site_code='FR9301234'",
		},
		{
			name:  "site species",
			query: SiteSpeciesQuery,
			code:  "ES0000001",
			want:  "SELECT * FROM [BISE].[latest].[Site_Species_List_Details] WHERE site_code='ES0000001'",
		},
		{
			name:  "habitat info",
			query: HabitatInfoQuery,
			code:  "9110",
			want:  "SELECT * FROM [BISE].[latest].[Habitat_Information] WHERE code_2000='9110'",
		},
		{
			name:  "quotes doubled",
			query: SiteInfoQuery,
			code:  "X' OR '1'='1",
			want:  "SELECT * FROM [BISE].[latest].[Site_Information] WHERE site_code='X'' OR ''1''=''1'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.SQL(tt.code))
		})
	}
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("DE1234567"))
	assert.NoError(t, ValidateCode("9110"))

	assert.Error(t, ValidateCode(""))
	assert.Error(t, ValidateCode("DE\x001234"))
	assert.Error(t, ValidateCode("Ünïcode"))
	assert.Error(t, ValidateCode(string(make([]byte, 65))))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *string) {
	t.Helper()
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	httpClient := fetch.NewClient(nil)
	t.Cleanup(httpClient.Close)
	return NewClient(server.URL, httpClient, nil), &gotQuery
}

func TestClient_SiteInfo_Records(t *testing.T) {
	client, gotQuery := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records": [{"SITE_CODE": "DE1234567", "SITE_NAME": "Testmoor"}]}`))
	})

	env := client.SiteInfo(context.Background(), "DE1234567")
	require.NotNil(t, env)

	assert.Equal(t, "SELECT * FROM [BISE].[latest].[Site_Information] WHERE site_code='DE1234567'", *gotQuery)
	assert.Equal(t, "https://biodiversity.europa.eu/sites/natura2000/DE1234567", env.ID)
	assert.Equal(t, Source, env.Source)
	assert.JSONEq(t, `[{"SITE_CODE": "DE1234567", "SITE_NAME": "Testmoor"}]`, string(env.Results))
}

func TestClient_HabitatInfo_RawBody(t *testing.T) {
	client, gotQuery := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [], "total": 0}`))
	})

	env := client.HabitatInfo(context.Background(), "9110")
	require.NotNil(t, env)

	assert.Contains(t, *gotQuery, "[Habitat_Information] WHERE code_2000='9110'")
	assert.Equal(t, "https://biodiversity.europa.eu/habitats/ANNEX1_9110", env.ID)
	assert.JSONEq(t, `{"errors": [], "total": 0}`, string(env.Results))
}

func TestClient_ArrayBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"code": 1}]`))
	})

	env := client.SiteSpecies(context.Background(), "ES0000001")
	require.NotNil(t, env)
	assert.JSONEq(t, `[{"code": 1}]`, string(env.Results))
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>not json</html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			assert.Nil(t, client.SiteHabitats(context.Background(), "FR9301234"))
		})
	}
}

func TestEnvelope_JSON(t *testing.T) {
	env := Envelope{
		ID:      "https://biodiversity.europa.eu/sites/natura2000/X",
		Source:  Source,
		Results: json.RawMessage(`[]`),
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@id": "https://biodiversity.europa.eu/sites/natura2000/X", "source": "https://discodata.eea.europa.eu", "results": []}`, string(data))
}

func TestQueries_Order(t *testing.T) {
	names := make([]string, 0, len(Queries))
	for _, q := range Queries {
		names = append(names, q.Name)
	}
	assert.Equal(t, []string{"site-info", "site-habitats", "site-species", "habitat-info"}, names)
}

func TestClient_EmptyRecordsIsNotAbsence(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records": []}`))
	})

	env := client.SiteInfo(context.Background(), "NL9801015")
	require.NotNil(t, env)
	assert.JSONEq(t, `[]`, string(env.Results))
}
