// Package overlap computes branch-term co-occurrence groups for a catalog of
// papers: exact-signature groups within each query, pairwise term
// intersections across queries, and externally ranked aggregate groups.
//
// Compute is a pure function of its input. It never mutates the papers it is
// given and holds no state between calls.
package overlap

import (
	"fmt"
	"strings"
)

// LabelSeparator joins term names in group labels.
const LabelSeparator = " ∩ "

// ScopeKind distinguishes the three families of groups.
type ScopeKind string

const (
	ScopeWithinQuery ScopeKind = "within-query"
	ScopeCrossQuery  ScopeKind = "cross-query"
	ScopeAggregate   ScopeKind = "aggregate"
)

// Scope says which queries a group was computed over.
type Scope struct {
	Kind   ScopeKind
	QueryA string // the query for within-query scopes
	QueryB string // set only for cross-query scopes
}

// String renders the scope as within-query(Q) or cross-query(A,B).
func (s Scope) String() string {
	switch s.Kind {
	case ScopeWithinQuery:
		return fmt.Sprintf("%s(%s)", s.Kind, s.QueryA)
	case ScopeCrossQuery:
		return fmt.Sprintf("%s(%s,%s)", s.Kind, s.QueryA, s.QueryB)
	default:
		return string(s.Kind)
	}
}

// Group is the contract shared by every group kind, so consumers can render
// overlap and aggregate groups the same way. Member ids are opaque: consumers
// display membership and counts, they do not re-derive overlaps.
type Group interface {
	GroupScope() Scope
	GroupLabel() string
	Members() []string
	Size() int
}

// WithinGroup holds the papers of one query carrying exactly Signature.
type WithinGroup struct {
	Query     string   `json:"-"`
	Signature []string `json:"signature"`
	Label     string   `json:"label"`
	PaperIDs  []string `json:"paper_ids"`
	Count     int      `json:"count"`
}

func (g *WithinGroup) GroupScope() Scope  { return Scope{Kind: ScopeWithinQuery, QueryA: g.Query} }
func (g *WithinGroup) GroupLabel() string { return g.Label }
func (g *WithinGroup) Members() []string  { return g.PaperIDs }
func (g *WithinGroup) Size() int          { return g.Count }

// IsOverlap reports whether the group combines two or more terms.
func (g *WithinGroup) IsOverlap() bool {
	return len(g.Signature) > 1
}

// UncategorizedGroup holds the papers of one query with no branch terms.
type UncategorizedGroup struct {
	Query    string   `json:"-"`
	PaperIDs []string `json:"paper_ids"`
	Count    int      `json:"count"`
}

// UncategorizedLabel is the display label for papers without branch terms.
const UncategorizedLabel = "Found outside search"

func (g *UncategorizedGroup) GroupScope() Scope  { return Scope{Kind: ScopeWithinQuery, QueryA: g.Query} }
func (g *UncategorizedGroup) GroupLabel() string { return UncategorizedLabel }
func (g *UncategorizedGroup) Members() []string  { return g.PaperIDs }
func (g *UncategorizedGroup) Size() int          { return g.Count }

// CrossGroup holds the papers shared by TermA (in QueryA) and TermB (in
// QueryB). Cross groups may overlap each other.
type CrossGroup struct {
	QueryA   string   `json:"query_a"`
	QueryB   string   `json:"query_b"`
	TermA    string   `json:"term_a"`
	TermB    string   `json:"term_b"`
	Label    string   `json:"label"`
	PaperIDs []string `json:"paper_ids"`
	Count    int      `json:"count"`
}

func (g *CrossGroup) GroupScope() Scope {
	return Scope{Kind: ScopeCrossQuery, QueryA: g.QueryA, QueryB: g.QueryB}
}
func (g *CrossGroup) GroupLabel() string { return g.Label }
func (g *CrossGroup) Members() []string  { return g.PaperIDs }
func (g *CrossGroup) Size() int          { return g.Count }

// AggregateInput is an externally selected, ordered list of papers
// ("most cited", "most relevant"). Query and Term optionally anchor the
// group to a branch term.
type AggregateInput struct {
	Name     string
	Label    string
	Query    string
	Term     string
	PaperIDs []string
}

// AggregateGroup is an AggregateInput validated against the catalog.
type AggregateGroup struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Query    string   `json:"query,omitempty"`
	Term     string   `json:"term,omitempty"`
	PaperIDs []string `json:"paper_ids"`
	Count    int      `json:"count"`
}

func (g *AggregateGroup) GroupScope() Scope  { return Scope{Kind: ScopeAggregate, QueryA: g.Query} }
func (g *AggregateGroup) GroupLabel() string { return g.Label }
func (g *AggregateGroup) Members() []string  { return g.PaperIDs }
func (g *AggregateGroup) Size() int          { return g.Count }

// IsAnchored reports whether the aggregate hangs off a specific branch term.
func (g *AggregateGroup) IsAnchored() bool {
	return g.Query != "" && g.Term != ""
}

// TermCount is a branch term with the number of papers carrying it.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Warning codes.
const (
	WarnEmptyInput = "empty_input"
	WarnEmptyQuery = "empty_query"
)

// Warning is a non-fatal finding; the result is still complete and valid.
type Warning struct {
	Code    string `json:"code"`
	Query   string `json:"query,omitempty"`
	Message string `json:"message"`
}

// Result is everything Compute derives from one dataset.
type Result struct {
	Queries           []string                      `json:"queries"`
	BranchTerms       map[string][]TermCount        `json:"branch_terms"`
	WithinQueryGroups map[string][]WithinGroup      `json:"within_query_groups"`
	Uncategorized     map[string]UncategorizedGroup `json:"uncategorized"`
	CrossQueryGroups  []CrossGroup                  `json:"cross_query_groups"`
	AggregateGroups   []AggregateGroup              `json:"aggregate_groups"`
	Warnings          []Warning                     `json:"warnings,omitempty"`
}

// Groups returns every group in emission order: per query (in Queries
// order) the within-query groups then the uncategorized set when non-empty,
// then cross-query groups, then aggregates.
func (r *Result) Groups() []Group {
	var out []Group
	for _, q := range r.Queries {
		within := r.WithinQueryGroups[q]
		for i := range within {
			out = append(out, &within[i])
		}
		if u, ok := r.Uncategorized[q]; ok && u.Count > 0 {
			u := u
			out = append(out, &u)
		}
	}
	for i := range r.CrossQueryGroups {
		out = append(out, &r.CrossQueryGroups[i])
	}
	for i := range r.AggregateGroups {
		out = append(out, &r.AggregateGroups[i])
	}
	return out
}

// GroupOf returns the within-query group holding paperID, or nil when the
// paper is uncategorized or unknown.
func (r *Result) GroupOf(query, paperID string) *WithinGroup {
	groups := r.WithinQueryGroups[query]
	for i := range groups {
		for _, id := range groups[i].PaperIDs {
			if id == paperID {
				return &groups[i]
			}
		}
	}
	return nil
}

// Aggregate returns the aggregate with the given name.
func (r *Result) Aggregate(name string) (*AggregateGroup, bool) {
	for i := range r.AggregateGroups {
		if r.AggregateGroups[i].Name == name {
			return &r.AggregateGroups[i], true
		}
	}
	return nil, false
}

// SignatureLabel joins terms into a display label ("a ∩ b").
func SignatureLabel(terms []string) string {
	return strings.Join(terms, LabelSeparator)
}
