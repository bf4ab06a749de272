// Package catalog holds the parsed papers of a literature review, organized
// by the search query each one came from.
package catalog

import (
	"sort"

	"github.com/matsen/litmap/internal/paper"
)

// Query describes one common search query.
type Query struct {
	ID       string `json:"id"`               // Query name from the config
	Search   string `json:"search,omitempty"` // The literal search string
	Database string `json:"database"`         // Database the export came from (pubmed, arxiv, ...)
	Source   string `json:"source,omitempty"` // Resolved RIS file
}

// Catalog is a read-only view over a loaded dataset.
// It is built once per load and never mutated afterwards.
type Catalog struct {
	queries []Query
	papers  []paper.Paper
	byQuery map[string][]int
	byID    map[string]int
}

// New builds a catalog. Papers keep their input order. A paper whose
// SourceQuery is not among queries is still listed by AllPapers; the overlap
// engine reports it as an unknown query reference.
func New(queries []Query, papers []paper.Paper) *Catalog {
	c := &Catalog{
		queries: append([]Query(nil), queries...),
		papers:  append([]paper.Paper(nil), papers...),
		byQuery: make(map[string][]int, len(queries)),
		byID:    make(map[string]int, len(papers)),
	}
	for i := range c.papers {
		p := &c.papers[i]
		c.byQuery[p.SourceQuery] = append(c.byQuery[p.SourceQuery], i)
		// First occurrence wins; duplicates are the engine's to report.
		if _, ok := c.byID[p.ID]; !ok {
			c.byID[p.ID] = i
		}
	}
	return c
}

// AllPapers returns every paper in load order.
func (c *Catalog) AllPapers() []paper.Paper {
	return c.papers
}

// PapersForQuery returns the papers whose RIS source belongs to query.
func (c *Catalog) PapersForQuery(query string) []paper.Paper {
	idx := c.byQuery[query]
	out := make([]paper.Paper, len(idx))
	for i, j := range idx {
		out[i] = c.papers[j]
	}
	return out
}

// Uncategorized returns the papers of query that carry no branch terms.
func (c *Catalog) Uncategorized(query string) []paper.Paper {
	var out []paper.Paper
	for _, j := range c.byQuery[query] {
		if c.papers[j].IsUncategorized() {
			out = append(out, c.papers[j])
		}
	}
	return out
}

// Queries returns the configured queries in config order.
func (c *Catalog) Queries() []Query {
	return c.queries
}

// QueryIDs returns the configured query ids in config order.
func (c *Catalog) QueryIDs() []string {
	ids := make([]string, len(c.queries))
	for i, q := range c.queries {
		ids[i] = q.ID
	}
	return ids
}

// Query returns the configured query with the given id.
func (c *Catalog) Query(id string) (Query, bool) {
	for _, q := range c.queries {
		if q.ID == id {
			return q, true
		}
	}
	return Query{}, false
}

// Databases returns the distinct databases of the configured queries, sorted.
func (c *Catalog) Databases() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range c.queries {
		if !seen[q.Database] {
			seen[q.Database] = true
			out = append(out, q.Database)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the paper with the given id.
func (c *Catalog) Lookup(id string) (*paper.Paper, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.papers[i], true
}

// Len returns the number of papers.
func (c *Catalog) Len() int {
	return len(c.papers)
}
