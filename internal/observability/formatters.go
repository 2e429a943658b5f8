// Package observability provides logging setup and the output formatters
// used by the command-line tools.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/bioquery/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxSourcesToShow caps the cross-reference list in pretty output
	maxSourcesToShow = 10
)

// Output formats accepted by species_resolver.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// Printer handles formatted output of resolved records.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// PrintJSON writes v as indented JSON without HTML escaping.
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Print writes identity in the requested format.
func (p *Printer) Print(identity *types.SpeciesIdentity, format string) error {
	switch format {
	case FormatJSON:
		return p.PrintJSON(identity)
	case FormatPretty, "":
		p.PrintIdentity(identity)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// printBox prints a formatted box with a title
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintIdentity outputs a human-readable summary of a resolved species.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIdentity(identity *types.SpeciesIdentity) {
	if identity == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\nScientific Name: %s\n", identity.ScientificName))
	if authorship, ok := identity.Authorship.Get(); ok && authorship != "" {
		sb.WriteString(fmt.Sprintf("  Authority: %s\n", authorship))
	}

	if code, ok := identity.PolicyCode.Get(); ok {
		sb.WriteString("\nPolicy Identifiers:\n")
		sb.WriteString(fmt.Sprintf("  EU Birds/Habitats Directive: %s\n", code))
		if url, ok := identity.EunisURL.Get(); ok && url != "" {
			sb.WriteString(fmt.Sprintf("  EUNIS: %s\n", url))
		}
	}

	sb.WriteString("\nGBIF Backbone Taxonomy:\n")
	sb.WriteString(fmt.Sprintf("  Usage Key: %s\n", orNA(identity.GBIFUsageKey)))
	sb.WriteString(fmt.Sprintf("  Match: %s (%s%% confidence)\n", orNA(identity.GBIFMatchType), orNA(identity.GBIFConfidence)))
	sb.WriteString(fmt.Sprintf("  Status: %s\n", orNA(identity.GBIFStatus)))
	if rank, ok := identity.Rank.Get(); ok {
		sb.WriteString(fmt.Sprintf("  Rank: %s\n", rank))
	}

	sb.WriteString("\nClassification:\n")
	ranks := []struct {
		label string
		value types.Optional[string]
	}{
		{"Kingdom", identity.Kingdom},
		{"Phylum", identity.Phylum},
		{"Class", identity.Class},
		{"Order", identity.Order},
		{"Family", identity.Family},
		{"Genus", identity.Genus},
	}
	for _, r := range ranks {
		if v, ok := r.value.Get(); ok && v != "" {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", r.label, v))
		}
	}

	if id, ok := identity.ChecklistBankID.Get(); ok {
		sb.WriteString(fmt.Sprintf("\nChecklistBank ID: %s\n", id))
	}

	refs, _ := identity.CrossReferences.Get()
	if len(refs) > 0 {
		sb.WriteString(fmt.Sprintf("\nCross-Database Identifiers (%d sources):\n", len(refs)))
		names := make([]string, 0, len(refs))
		for name := range refs {
			names = append(names, name)
		}
		sort.Strings(names)

		count := min(len(names), maxSourcesToShow)
		for _, name := range names[:count] {
			ref := refs[name]
			recordID := ref.RecordID
			if recordID == "" {
				recordID = "N/A"
			}
			sb.WriteString(fmt.Sprintf("  • %s: %s\n", name, recordID))
			if url, ok := ref.URL.Get(); ok && url != "" {
				sb.WriteString(fmt.Sprintf("    → %s\n", url))
			}
		}
		if len(names) > maxSourcesToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(names)-maxSourcesToShow))
		}
	}

	sb.WriteString("\nDirect Links:\n")
	if key, ok := identity.GBIFUsageKey.Get(); ok {
		sb.WriteString(fmt.Sprintf("  GBIF: https://www.gbif.org/species/%d\n", key))
	}
	if id, ok := identity.ChecklistBankID.Get(); ok {
		sb.WriteString(fmt.Sprintf("  ChecklistBank: https://www.checklistbank.org/dataset/3/taxon/%s\n", id))
	}
	if url, ok := identity.EunisURL.Get(); ok && url != "" {
		sb.WriteString(fmt.Sprintf("  EUNIS: %s\n", url))
	}
	sb.WriteString(fmt.Sprintf("  Global Names: https://verifier.globalnames.org/?names=%s\n",
		strings.ReplaceAll(identity.ScientificName, " ", "+")))

	sb.WriteString(fmt.Sprintf("\nLookups: taxonomy=%s catalogue=%s verification=%s\n",
		identity.Lookups.Taxonomy, identity.Lookups.Catalogue, identity.Lookups.Verification))

	p.printBox("SPECIES IDENTITY RESOLVED")
	fmt.Fprint(p.out, sb.String())
	fmt.Fprintln(p.out, strings.Repeat("=", boxWidth))
}

func orNA[T any](o types.Optional[T]) string {
	v, ok := o.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprint(v)
}
