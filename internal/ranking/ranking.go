// Package ranking loads the manually curated "most cited" and "most relevant"
// lists and turns them into aggregate groups for the overlap engine.
//
// A curated list is an RIS export. Each record is matched to a catalog paper
// by normalized title or DOI, then assigned to whichever of its branch terms
// has the fewest papers in the matched paper's query, so highlights spread
// toward the narrower branches.
package ranking

import (
	"strings"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/paper"
)

// Kind names a curated list.
type Kind string

const (
	MostCited    Kind = "most_cited"
	MostRelevant Kind = "most_relevant"
)

// Pattern returns the file glob for the kind's RIS exports.
func (k Kind) Pattern() string {
	return string(k) + "*.txt"
}

// Display labels for aggregate groups.
const (
	MostCitedLabel    = "Most cited (or of interest)"
	MostRelevantLabel = "Most relevant"
)

// Assignment places one curated paper under a branch term of its query.
type Assignment struct {
	PaperID string `json:"paper_id"`
	Query   string `json:"query"`
	Term    string `json:"term"`
}

// Ranking is one curated list resolved against a catalog.
type Ranking struct {
	Kind        Kind         `json:"kind"`
	Source      string       `json:"source,omitempty"`
	Records     int          `json:"records"`
	Matched     []string     `json:"matched"` // catalog ids in list order, de-duplicated
	Assignments []Assignment `json:"assignments"`
}

// Assign matches curated records against c and assigns each matched paper to
// its least-populated branch term. Records that match nothing, or whose
// terms resolve to none of the matched paper's query terms, are counted but
// not assigned. Ties go to the term listed first in the record.
func Assign(c *catalog.Catalog, kind Kind, records []paper.Paper) *Ranking {
	r := &Ranking{Kind: kind, Records: len(records)}
	m := newMatcher(c)
	counts := termCounts(c)
	matched := make(map[string]bool)
	assigned := make(map[string]bool)

	for i := range records {
		rec := &records[i]
		p := m.match(rec)
		if p == nil {
			continue
		}
		if !matched[p.ID] {
			matched[p.ID] = true
			r.Matched = append(r.Matched, p.ID)
		}
		if assigned[p.ID] || p.IsUncategorized() {
			continue
		}

		queryCounts := counts[p.SourceQuery]
		best, bestCount := "", -1
		for _, t := range rec.BranchTerms {
			tc, ok := queryCounts[strings.ToLower(t)]
			if !ok {
				continue
			}
			if bestCount < 0 || tc.count < bestCount {
				best, bestCount = tc.term, tc.count
			}
		}
		if best == "" {
			continue
		}
		assigned[p.ID] = true
		r.Assignments = append(r.Assignments, Assignment{PaperID: p.ID, Query: p.SourceQuery, Term: best})
	}
	return r
}

type termCount struct {
	term  string
	count int
}

// termCounts maps query -> lower-cased term -> canonical term and paper count.
func termCounts(c *catalog.Catalog) map[string]map[string]termCount {
	out := make(map[string]map[string]termCount)
	for _, p := range c.AllPapers() {
		m := out[p.SourceQuery]
		if m == nil {
			m = make(map[string]termCount)
			out[p.SourceQuery] = m
		}
		for _, t := range paper.DedupeTerms(p.BranchTerms) {
			key := strings.ToLower(t)
			tc, ok := m[key]
			if !ok {
				tc.term = t
			}
			tc.count++
			m[key] = tc
		}
	}
	return out
}

// matcher finds the first catalog paper sharing a normalized title or DOI
// with a curated record.
type matcher struct {
	papers  []paper.Paper
	byTitle map[string]int
	byDOI   map[string]int
}

func newMatcher(c *catalog.Catalog) *matcher {
	papers := c.AllPapers()
	m := &matcher{
		papers:  papers,
		byTitle: make(map[string]int, len(papers)),
		byDOI:   make(map[string]int, len(papers)),
	}
	for i := range papers {
		if t := paper.NormalizeTitle(papers[i].Title); t != "" {
			if _, ok := m.byTitle[t]; !ok {
				m.byTitle[t] = i
			}
		}
		if d := paper.NormalizeDOI(papers[i].DOI); d != "" {
			if _, ok := m.byDOI[d]; !ok {
				m.byDOI[d] = i
			}
		}
	}
	return m
}

func (m *matcher) match(rec *paper.Paper) *paper.Paper {
	idx := -1
	if t := paper.NormalizeTitle(rec.Title); t != "" {
		if i, ok := m.byTitle[t]; ok {
			idx = i
		}
	}
	if d := paper.NormalizeDOI(rec.DOI); d != "" {
		if i, ok := m.byDOI[d]; ok && (idx < 0 || i < idx) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	return &m.papers[idx]
}

// Set holds the curated lists of one dataset. Either list may be nil when
// its file is absent.
type Set struct {
	MostCited    *Ranking `json:"most_cited,omitempty"`
	MostRelevant *Ranking `json:"most_relevant,omitempty"`
}

// HighlightName names the per-term most-cited aggregate.
func HighlightName(query, term string) string {
	return string(MostCited) + "/" + query + "/" + term
}

// DatabaseName names a per-database aggregate of kind k.
func DatabaseName(k Kind, database string) string {
	return string(k) + "/" + database
}

// Aggregates converts the set into aggregate inputs, in this order:
//   - per (query, term) most-cited highlights, queries in config order and
//     terms sorted, anchored to the term;
//   - per database, sorted: the most-cited aggregate (every highlight of the
//     database's queries followed by its uncategorized papers) and the
//     most-relevant aggregate (its assigned most-relevant papers).
//
// Empty groups are omitted.
func (s *Set) Aggregates(c *catalog.Catalog) []overlap.AggregateInput {
	var out []overlap.AggregateInput

	highlights := byQueryTerm(s.MostCited)
	relevant := byQueryTerm(s.MostRelevant)

	for _, q := range c.QueryIDs() {
		terms := highlights[q]
		for _, t := range sortedKeys(terms) {
			out = append(out, overlap.AggregateInput{
				Name:     HighlightName(q, t),
				Label:    MostCitedLabel,
				Query:    q,
				Term:     t,
				PaperIDs: terms[t],
			})
		}
	}

	for _, db := range c.Databases() {
		var cited, rel []string
		for _, q := range c.Queries() {
			if q.Database != db {
				continue
			}
			for _, t := range sortedKeys(highlights[q.ID]) {
				cited = append(cited, highlights[q.ID][t]...)
			}
			for _, p := range c.Uncategorized(q.ID) {
				cited = append(cited, p.ID)
			}
			for _, t := range sortedKeys(relevant[q.ID]) {
				rel = append(rel, relevant[q.ID][t]...)
			}
		}
		if len(cited) > 0 {
			out = append(out, overlap.AggregateInput{
				Name:     DatabaseName(MostCited, db),
				Label:    MostCitedLabel,
				PaperIDs: cited,
			})
		}
		if len(rel) > 0 {
			out = append(out, overlap.AggregateInput{
				Name:     DatabaseName(MostRelevant, db),
				Label:    MostRelevantLabel,
				PaperIDs: rel,
			})
		}
	}
	return out
}

// byQueryTerm groups assignments as query -> term -> paper ids, keeping list
// order within each term.
func byQueryTerm(r *Ranking) map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	if r == nil {
		return out
	}
	for _, a := range r.Assignments {
		m := out[a.Query]
		if m == nil {
			m = make(map[string][]string)
			out[a.Query] = m
		}
		m[a.Term] = append(m[a.Term], a.PaperID)
	}
	return out
}
