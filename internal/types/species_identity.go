package types

// LookupStatus is the outcome of one external lookup during resolution.
type LookupStatus string

const (
	// LookupSkipped means the lookup was never attempted.
	LookupSkipped LookupStatus = "skipped"
	// LookupMatched means the service returned usable data.
	LookupMatched LookupStatus = "matched"
	// LookupNoMatch means the service answered but had nothing for the query.
	LookupNoMatch LookupStatus = "no_match"
	// LookupFailed means the call failed (transport, status or decode error).
	LookupFailed LookupStatus = "failed"
)

// Lookups records which downstream services contributed to an identity.
type Lookups struct {
	Taxonomy     LookupStatus `json:"taxonomy"`
	Catalogue    LookupStatus `json:"catalogue"`
	Verification LookupStatus `json:"verification"`
}

// CrossReference is one source's record for a verified name.
type CrossReference struct {
	RecordID  string           `json:"record_id"`
	URL       Optional[string] `json:"url"`
	MatchType string           `json:"match_type"`
	Score     float64          `json:"score"`
}

// SpeciesIdentity is the merged record produced for a single query.
// Only Query and ScientificName are always set.
type SpeciesIdentity struct {
	Query          string           `json:"query"`
	ScientificName string           `json:"scientific_name"`
	CanonicalName  Optional[string] `json:"canonical_name"`
	Authorship     Optional[string] `json:"authorship"`
	PolicyCode     Optional[string] `json:"policy_code"`
	EunisURL       Optional[string] `json:"eunis_url"`

	// GBIF backbone
	GBIFUsageKey   Optional[int64]  `json:"gbif_usage_key"`
	GBIFNubKey     Optional[int64]  `json:"gbif_nub_key"`
	GBIFConfidence Optional[int]    `json:"gbif_confidence"`
	GBIFMatchType  Optional[string] `json:"gbif_match_type"`
	GBIFStatus     Optional[string] `json:"gbif_status"`
	Rank           Optional[string] `json:"rank"`

	// Classification
	Kingdom Optional[string] `json:"kingdom"`
	Phylum  Optional[string] `json:"phylum"`
	Class   Optional[string] `json:"class_name"`
	Order   Optional[string] `json:"order"`
	Family  Optional[string] `json:"family"`
	Genus   Optional[string] `json:"genus"`

	ChecklistBankID Optional[string]                    `json:"checklistbank_id"`
	CrossReferences Optional[map[string]CrossReference] `json:"gnv_sources"`

	// No lookup fills these yet; they are emitted as null.
	CommonNames Optional[[]string] `json:"common_names"`
	WikidataID  Optional[string]   `json:"wikidata_id"`
	IUCNID      Optional[string]   `json:"iucn_id"`
	EunisCode   Optional[string]   `json:"eunis_code"`

	Lookups Lookups `json:"lookups"`
}
