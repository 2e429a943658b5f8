package types

// PolicyCodeEntry maps an EU Birds/Habitats Directive code to a species.
type PolicyCodeEntry struct {
	Code           string `json:"natura2000"`
	ScientificName string `json:"scientific_name"`
	Authorship     string `json:"authorship"`
	ReferenceURL   string `json:"eunis_url"`
}
