package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/bioquery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedIdentity() *types.SpeciesIdentity {
	return &types.SpeciesIdentity{
		Query:           "A072",
		ScientificName:  "Pernis apivorus (Linnaeus, 1758)",
		CanonicalName:   types.Some("Pernis apivorus"),
		Authorship:      types.Some("(Linnaeus, 1758)"),
		PolicyCode:      types.Some("A072"),
		EunisURL:        types.Some("https://eunis.eea.europa.eu/species/1234"),
		GBIFUsageKey:    types.Some(int64(2480830)),
		GBIFConfidence:  types.Some(99),
		GBIFMatchType:   types.Some("EXACT"),
		GBIFStatus:      types.Some("ACCEPTED"),
		Kingdom:         types.Some("Animalia"),
		Class:           types.Some("Aves"),
		Family:          types.Some("Accipitridae"),
		ChecklistBankID: types.Some("4QHKG"),
		CrossReferences: types.Some(map[string]types.CrossReference{
			"GBIF": {RecordID: "2480830", URL: types.Some("https://www.gbif.org/species/2480830"), MatchType: "Exact", Score: 9.8},
			"CoL":  {RecordID: "4QHKG", MatchType: "Exact"},
		}),
		Lookups: types.Lookups{
			Taxonomy:     types.LookupMatched,
			Catalogue:    types.LookupMatched,
			Verification: types.LookupMatched,
		},
	}
}

func TestPrintIdentity(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIdentity(resolvedIdentity())
	output := buf.String()

	assert.Contains(t, output, "SPECIES IDENTITY RESOLVED")
	assert.Contains(t, output, "Scientific Name: Pernis apivorus (Linnaeus, 1758)")
	assert.Contains(t, output, "EU Birds/Habitats Directive: A072")
	assert.Contains(t, output, "Usage Key: 2480830")
	assert.Contains(t, output, "Match: EXACT (99% confidence)")
	assert.Contains(t, output, "Kingdom: Animalia")
	assert.NotContains(t, output, "Phylum:")
	assert.Contains(t, output, "ChecklistBank ID: 4QHKG")
	assert.Contains(t, output, "Cross-Database Identifiers (2 sources)")
	assert.Contains(t, output, "→ https://www.gbif.org/species/2480830")
	assert.Contains(t, output, "GBIF: https://www.gbif.org/species/2480830")
	assert.Contains(t, output, "names=Pernis+apivorus+(Linnaeus,+1758)")
	// sorted source order
	assert.Less(t, strings.Index(output, "• CoL"), strings.Index(output, "• GBIF"))
}

func TestPrintIdentity_Unresolved(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIdentity(&types.SpeciesIdentity{
		Query:          "Nonexistus fakeus",
		ScientificName: "Nonexistus fakeus",
		Lookups: types.Lookups{
			Taxonomy:     types.LookupNoMatch,
			Catalogue:    types.LookupSkipped,
			Verification: types.LookupFailed,
		},
	})
	output := buf.String()

	assert.Contains(t, output, "Usage Key: n/a")
	assert.NotContains(t, output, "Policy Identifiers")
	assert.NotContains(t, output, "Cross-Database")
	assert.Contains(t, output, "catalogue=skipped")
}

func TestPrintIdentity_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIdentity(nil)
	assert.Empty(t, buf.String())
}

func TestPrintIdentity_TruncatesSources(t *testing.T) {
	refs := make(map[string]types.CrossReference)
	for i := 0; i < 12; i++ {
		refs[fmt.Sprintf("Source%02d", i)] = types.CrossReference{RecordID: fmt.Sprint(i)}
	}
	identity := &types.SpeciesIdentity{Query: "x", ScientificName: "x", CrossReferences: types.Some(refs)}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintIdentity(identity)
	assert.Contains(t, buf.String(), "... and 2 more")
	assert.NotContains(t, buf.String(), "Source11")
}

func TestPrint_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	require.NoError(t, p.Print(resolvedIdentity(), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "A072", decoded["policy_code"])
	assert.Nil(t, decoded["phylum"])
	assert.Contains(t, buf.String(), "\n  \"query\"")
}

func TestPrint_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewPrinter(&buf).Print(resolvedIdentity(), "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestPrintJSON_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).PrintJSON(map[string]string{"q": "a<b&c"}))
	assert.Contains(t, buf.String(), "a<b&c")
}
