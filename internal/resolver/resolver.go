// Package resolver merges a policy code lookup, a GBIF backbone match, a
// ChecklistBank name usage and a Global Names verification into one
// SpeciesIdentity.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/bioquery/internal/checklistbank"
	"github.com/jonathan/bioquery/internal/gbif"
	"github.com/jonathan/bioquery/internal/globalnames"
	"github.com/jonathan/bioquery/internal/observability"
	"github.com/jonathan/bioquery/internal/policy"
	"github.com/jonathan/bioquery/internal/types"
	"golang.org/x/sync/errgroup"
)

// PolicyLookup finds policy code entries by code or by scientific name.
type PolicyLookup interface {
	Get(ctx context.Context, code string) (types.PolicyCodeEntry, bool)
	GetByName(ctx context.Context, name string) (types.PolicyCodeEntry, bool)
}

// Taxonomy matches a name against the backbone. A nil match with a nil
// error means no usable taxon.
type Taxonomy interface {
	Match(ctx context.Context, name string) (*gbif.Match, error)
}

// Catalogue fetches the catalogue record for a backbone key.
type Catalogue interface {
	NameUsage(ctx context.Context, key int64) (*checklistbank.NameUsage, error)
}

// Verifier cross-checks a name against several data sources.
type Verifier interface {
	Verify(ctx context.Context, name string) (*globalnames.Name, error)
}

// Options configures a Resolver.
type Options struct {
	// CodeMatcher decides whether a query is tried as a policy code first.
	// Defaults to policy.DefaultMatcher.
	CodeMatcher policy.CodeMatcher
	// Parallel runs the taxonomy/catalogue chain and the verification
	// concurrently. The result is the same as in sequential mode.
	Parallel bool
	Logger   *slog.Logger
}

// Resolver orchestrates the lookups for one query at a time.
type Resolver struct {
	policy    PolicyLookup
	taxonomy  Taxonomy
	catalogue Catalogue
	verifier  Verifier
	isCode    policy.CodeMatcher
	parallel  bool
	logger    *slog.Logger
}

// New creates a Resolver.
func New(p PolicyLookup, t Taxonomy, c Catalogue, v Verifier, opts *Options) *Resolver {
	if opts == nil {
		opts = &Options{}
	}
	r := &Resolver{
		policy:    p,
		taxonomy:  t,
		catalogue: c,
		verifier:  v,
		isCode:    opts.CodeMatcher,
		parallel:  opts.Parallel,
		logger:    opts.Logger,
	}
	if r.isCode == nil {
		r.isCode = policy.DefaultMatcher()
	}
	if r.logger == nil {
		r.logger = observability.Discard()
	}
	return r
}

// taxonomyResult carries the outcome of the backbone and catalogue steps.
type taxonomyResult struct {
	match           *gbif.Match
	usage           *checklistbank.NameUsage
	taxonomyStatus  types.LookupStatus
	catalogueStatus types.LookupStatus
}

// verificationResult carries the outcome of the verifier step.
type verificationResult struct {
	name   *globalnames.Name
	status types.LookupStatus
}

// Resolve builds the identity for query. Failures of individual services
// are logged and reduce that service's contribution to nothing; Resolve
// itself never fails.
func (r *Resolver) Resolve(ctx context.Context, query string) *types.SpeciesIdentity {
	r.logger.Info("resolving", "query", query)

	searchName, entry := r.classify(ctx, query)

	var tax taxonomyResult
	var ver verificationResult
	if r.parallel {
		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			tax = r.lookupTaxonomy(gCtx, searchName)
			return nil
		})
		g.Go(func() error {
			ver = r.verify(gCtx, searchName)
			return nil
		})
		// branches record their own failures, Wait only joins
		_ = g.Wait()
	} else {
		tax = r.lookupTaxonomy(ctx, searchName)
		ver = r.verify(ctx, searchName)
	}

	return build(query, searchName, entry, tax, ver)
}

// classify decides which name to search with and which policy entry, if
// any, applies to the query.
func (r *Resolver) classify(ctx context.Context, query string) (string, *types.PolicyCodeEntry) {
	code := strings.ToUpper(strings.TrimSpace(query))

	if r.isCode(query) {
		r.logger.Info("checking policy code", "code", code)
		if entry, ok := r.policy.Get(ctx, code); ok {
			r.logger.Info("recognized policy code",
				"code", entry.Code,
				"scientific_name", entry.ScientificName,
				"eunis_url", entry.ReferenceURL)
			return entry.ScientificName, &entry
		}
	}

	r.logger.Info("checking policy listing by name", "name", query)
	if entry, ok := r.policy.GetByName(ctx, query); ok {
		r.logger.Info("found in policy listing", "code", entry.Code, "scientific_name", entry.ScientificName)
		return query, &entry
	}
	return query, nil
}

func (r *Resolver) lookupTaxonomy(ctx context.Context, name string) taxonomyResult {
	res := taxonomyResult{
		taxonomyStatus:  types.LookupNoMatch,
		catalogueStatus: types.LookupSkipped,
	}

	r.logger.Info("querying GBIF backbone taxonomy", "name", name)
	match, err := r.taxonomy.Match(ctx, name)
	switch {
	case err != nil:
		r.logger.Warn("GBIF query failed", "error", err)
		res.taxonomyStatus = types.LookupFailed
		return res
	case match == nil:
		r.logger.Info("no GBIF match found", "name", name)
		return res
	}
	res.match = match
	res.taxonomyStatus = types.LookupMatched
	r.logger.Info("GBIF match",
		"scientific_name", match.ScientificName,
		"match_type", match.MatchType,
		"confidence", match.Confidence,
		"status", match.Status,
		"rank", match.Rank)

	r.logger.Info("querying ChecklistBank", "usage_key", match.UsageKey)
	usage, err := r.catalogue.NameUsage(ctx, match.UsageKey)
	switch {
	case err != nil:
		r.logger.Warn("ChecklistBank query failed", "error", err)
		res.catalogueStatus = types.LookupFailed
	case usage == nil || usage.ID == "":
		res.catalogueStatus = types.LookupNoMatch
	default:
		r.logger.Info("ChecklistBank record", "id", usage.ID)
		res.usage = usage
		res.catalogueStatus = types.LookupMatched
	}
	return res
}

func (r *Resolver) verify(ctx context.Context, name string) verificationResult {
	r.logger.Info("querying Global Names Verifier", "name", name)
	result, err := r.verifier.Verify(ctx, name)
	switch {
	case err != nil:
		r.logger.Warn("Global Names query failed", "error", err)
		return verificationResult{status: types.LookupFailed}
	case result == nil || len(result.Results) == 0:
		r.logger.Info("no Global Names matches", "name", name)
		return verificationResult{status: types.LookupNoMatch}
	}
	r.logger.Info("Global Names matches", "sources", len(result.Results))
	return verificationResult{name: result, status: types.LookupMatched}
}

// build assembles the identity; taxonomy values win over policy values.
func build(query, searchName string, entry *types.PolicyCodeEntry, tax taxonomyResult, ver verificationResult) *types.SpeciesIdentity {
	id := &types.SpeciesIdentity{
		Query:          query,
		ScientificName: searchName,
		Lookups: types.Lookups{
			Taxonomy:     tax.taxonomyStatus,
			Catalogue:    tax.catalogueStatus,
			Verification: ver.status,
		},
	}

	var policyAuthorship types.Optional[string]
	if entry != nil {
		id.PolicyCode = types.Some(entry.Code)
		id.EunisURL = types.NonZero(entry.ReferenceURL)
		policyAuthorship = types.NonZero(entry.Authorship)
	}

	if m := tax.match; m != nil {
		if m.ScientificName != "" {
			id.ScientificName = m.ScientificName
		}
		id.CanonicalName = types.NonZero(m.CanonicalName)
		id.Authorship = types.NonZero(m.Authorship)
		id.GBIFUsageKey = types.Some(m.UsageKey)
		id.GBIFNubKey = types.NonZero(m.NubKey)
		id.GBIFConfidence = types.Some(m.Confidence)
		id.GBIFMatchType = types.NonZero(m.MatchType)
		id.GBIFStatus = types.NonZero(m.Status)
		id.Rank = types.NonZero(m.Rank)
		id.Kingdom = types.NonZero(m.Kingdom)
		id.Phylum = types.NonZero(m.Phylum)
		id.Class = types.NonZero(m.Class)
		id.Order = types.NonZero(m.Order)
		id.Family = types.NonZero(m.Family)
		id.Genus = types.NonZero(m.Genus)
	}
	id.Authorship = id.Authorship.Or(policyAuthorship)

	if tax.usage != nil {
		id.ChecklistBankID = types.Some(string(tax.usage.ID))
	}

	if ver.name != nil && len(ver.name.Results) > 0 {
		refs := make(map[string]types.CrossReference, len(ver.name.Results))
		for _, res := range ver.name.Results {
			source := res.SourceName()
			if source == "" {
				source = fmt.Sprintf("source %d", res.DataSourceID)
			}
			refs[source] = types.CrossReference{
				RecordID:  res.RecordID,
				URL:       types.NonZero(res.Outlink),
				MatchType: res.MatchType,
				Score:     res.Score,
			}
		}
		id.CrossReferences = types.Some(refs)
	}

	return id
}
