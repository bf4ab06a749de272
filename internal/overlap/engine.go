package overlap

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/litmap/internal/paper"
)

// Input is one dataset to compute groups for.
type Input struct {
	// Queries lists the configured query ids in display order. When nil the
	// queries are derived from the papers and sorted.
	Queries    []string
	Papers     []paper.Paper
	Aggregates []AggregateInput
}

// IdentityFunc maps a paper to the key used when intersecting term sets
// across queries.
type IdentityFunc func(p *paper.Paper) string

type options struct {
	identity IdentityFunc
}

// Option configures Compute.
type Option func(*options)

// WithIdentity sets the key cross-query intersections compare papers by.
// The default is the paper id.
func WithIdentity(fn IdentityFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.identity = fn
		}
	}
}

// WithWorkIdentity intersects across queries by the published work (DOI,
// then normalized title) rather than the record id, so the same article
// exported by two searches counts as shared.
func WithWorkIdentity() Option {
	return WithIdentity(paper.WorkKey)
}

func paperID(p *paper.Paper) string { return p.ID }

// Compute groups the papers of in by branch-term signature within each
// query, intersects term sets across every pair of queries, and validates
// the aggregate groups.
//
// The result depends only on the set of papers, not their order. An empty
// input yields an empty result with a warning, not an error.
func Compute(in Input, opts ...Option) (*Result, error) {
	o := options{identity: paperID}
	for _, opt := range opts {
		opt(&o)
	}

	queries, err := resolveQueries(in)
	if err != nil {
		return nil, err
	}
	byID, err := validatePapers(in.Papers, queries)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Queries:           queries,
		BranchTerms:       make(map[string][]TermCount, len(queries)),
		WithinQueryGroups: make(map[string][]WithinGroup, len(queries)),
		Uncategorized:     make(map[string]UncategorizedGroup, len(queries)),
		CrossQueryGroups:  []CrossGroup{},
		AggregateGroups:   []AggregateGroup{},
	}

	if len(in.Papers) == 0 {
		res.Warnings = append(res.Warnings, Warning{
			Code:    WarnEmptyInput,
			Message: "no papers supplied; all groups are empty",
		})
	}

	perQuery := make(map[string][]*paper.Paper, len(queries))
	for i := range in.Papers {
		p := &in.Papers[i]
		perQuery[p.SourceQuery] = append(perQuery[p.SourceQuery], p)
	}

	indexes := make(map[string]*termIndex, len(queries))
	for _, q := range queries {
		papers := perQuery[q]
		if len(papers) == 0 && len(in.Papers) > 0 {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnEmptyQuery,
				Query:   q,
				Message: fmt.Sprintf("query %s has no papers", q),
			})
		}
		within, uncategorized, idx := groupQuery(q, papers, o.identity)
		res.WithinQueryGroups[q] = within
		res.Uncategorized[q] = uncategorized
		res.BranchTerms[q] = idx.termCounts()
		indexes[q] = idx
	}

	res.CrossQueryGroups = crossGroups(queries, indexes)

	aggregates, err := buildAggregates(in.Aggregates, byID)
	if err != nil {
		return nil, err
	}
	res.AggregateGroups = aggregates

	return res, nil
}

// resolveQueries returns the configured query list without duplicates, or
// the sorted set of queries the papers reference when none is configured.
func resolveQueries(in Input) ([]string, error) {
	if in.Queries == nil {
		seen := make(map[string]bool)
		var out []string
		for _, p := range in.Papers {
			if p.SourceQuery != "" && !seen[p.SourceQuery] {
				seen[p.SourceQuery] = true
				out = append(out, p.SourceQuery)
			}
		}
		sort.Strings(out)
		if out == nil {
			out = []string{}
		}
		return out, nil
	}

	out := make([]string, 0, len(in.Queries))
	seen := make(map[string]bool, len(in.Queries))
	for i, q := range in.Queries {
		if q == "" {
			return nil, &MissingFieldError{Kind: "query", Index: i, Field: "id"}
		}
		if !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out, nil
}

// validatePapers checks required fields, id uniqueness and query references,
// and returns the papers indexed by id.
func validatePapers(papers []paper.Paper, queries []string) (map[string]int, error) {
	known := make(map[string]bool, len(queries))
	for _, q := range queries {
		known[q] = true
	}

	byID := make(map[string]int, len(papers))
	for i := range papers {
		p := &papers[i]
		if p.ID == "" {
			return nil, &MissingFieldError{Kind: "paper", Index: i, Field: "id"}
		}
		if p.SourceQuery == "" {
			return nil, &MissingFieldError{Kind: "paper", Index: i, Field: "source_query"}
		}
		if first, ok := byID[p.ID]; ok {
			return nil, &DuplicatePaperIDError{
				ID:     p.ID,
				First:  ref(papers, first),
				Second: ref(papers, i),
			}
		}
		if !known[p.SourceQuery] {
			return nil, &UnknownQueryError{PaperID: p.ID, QueryID: p.SourceQuery}
		}
		byID[p.ID] = i
	}
	return byID, nil
}

func ref(papers []paper.Paper, i int) PaperRef {
	return PaperRef{Index: i, ID: papers[i].ID, Query: papers[i].SourceQuery, Title: papers[i].Title}
}

// signature returns the sorted, de-duplicated branch terms of p.
func signature(p *paper.Paper) []string {
	sig := paper.DedupeTerms(p.BranchTerms)
	sort.Strings(sig)
	return sig
}

// signatureKey encodes a sorted signature as a map key. Each term is length
// prefixed, so terms may contain any byte without two signatures colliding.
func signatureKey(sig []string) string {
	var b strings.Builder
	for _, t := range sig {
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	}
	return b.String()
}

// groupQuery buckets one query's papers by exact signature. Every paper lands
// in exactly one group or in the uncategorized set.
func groupQuery(query string, papers []*paper.Paper, identity IdentityFunc) ([]WithinGroup, UncategorizedGroup, *termIndex) {
	idx := newTermIndex()
	buckets := make(map[string]*WithinGroup)
	uncategorized := UncategorizedGroup{Query: query, PaperIDs: []string{}}

	for _, p := range papers {
		sig := signature(p)
		if len(sig) == 0 {
			uncategorized.PaperIDs = append(uncategorized.PaperIDs, p.ID)
			continue
		}

		key := signatureKey(sig)
		g, ok := buckets[key]
		if !ok {
			g = &WithinGroup{Query: query, Signature: sig, Label: SignatureLabel(sig)}
			buckets[key] = g
		}
		g.PaperIDs = append(g.PaperIDs, p.ID)

		k := identity(p)
		for _, t := range sig {
			idx.add(t, k, p.ID)
		}
	}

	groups := make([]WithinGroup, 0, len(buckets))
	for _, g := range buckets {
		sort.Strings(g.PaperIDs)
		g.Count = len(g.PaperIDs)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return slices.Compare(groups[i].Signature, groups[j].Signature) < 0
	})

	sort.Strings(uncategorized.PaperIDs)
	uncategorized.Count = len(uncategorized.PaperIDs)
	return groups, uncategorized, idx
}
