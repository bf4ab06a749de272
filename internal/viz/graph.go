package viz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/paper"
	"github.com/matsen/litmap/internal/ranking"
	"github.com/matsen/litmap/internal/snapshot"
)

// BuildGraph lays out a snapshot as database -> query -> branch term, with
// overlap, highlight and cross-query nodes hanging off the branch terms and
// the per-database uncategorized and aggregate nodes below them.
func BuildGraph(snap *snapshot.Snapshot) (*GraphData, error) {
	if snap == nil || snap.Catalog == nil || snap.Result == nil {
		return nil, errors.New("no dataset loaded")
	}

	b := &builder{
		cat:   snap.Catalog,
		res:   snap.Result,
		graph: &GraphData{Nodes: []Node{}, Edges: []Edge{}},
		seen:  make(map[string]bool),
	}
	for _, db := range b.cat.Databases() {
		b.addDatabase(db)
	}
	b.addCrossGroups()

	return b.graph, nil
}

type builder struct {
	cat   *catalog.Catalog
	res   *overlap.Result
	graph *GraphData
	seen  map[string]bool
}

func (b *builder) addNode(n Node) {
	if b.seen[n.ID] {
		return
	}
	b.seen[n.ID] = true
	b.graph.Nodes = append(b.graph.Nodes, n)
}

func (b *builder) addEdge(source, target, relType, summary string) {
	b.graph.Edges = append(b.graph.Edges, Edge{
		Source:           source,
		Target:           target,
		RelationshipType: relType,
		Summary:          summary,
	})
}

func databaseID(db string) string      { return "database:" + db }
func queryID(q string) string          { return "query:" + q }
func branchID(q, term string) string   { return "branch:" + q + ":" + term }
func aggregateID(name string) string   { return "aggregate:" + name }
func uncategorizedID(db string) string { return "uncategorized:" + db }

func overlapID(q string, sig []string) string {
	return "overlap:" + q + ":" + strings.Join(sig, "|")
}

// BranchLabel renders a branch term the way the search was written:
// "AND <term>", without doubling an "AND " the export already kept.
func BranchLabel(term string) string {
	return "AND " + paper.CleanTermLabel(term)
}

func (b *builder) addDatabase(db string) {
	dbNode := databaseID(db)
	b.addNode(Node{ID: dbNode, Type: NodeTypeDatabase, Label: strings.ToUpper(db), Database: db})

	var highlightNodes, uncategorized, uncategorizedQueries []string
	for _, q := range b.cat.Queries() {
		if q.Database != db {
			continue
		}
		highlightNodes = append(highlightNodes, b.addQuery(dbNode, q)...)

		if u := b.res.Uncategorized[q.ID]; u.Count > 0 {
			uncategorized = append(uncategorized, u.PaperIDs...)
			uncategorizedQueries = append(uncategorizedQueries, q.ID)
		}
	}

	var uncatNode string
	if len(uncategorized) > 0 {
		uncatNode = uncategorizedID(db)
		b.addNode(Node{
			ID:       uncatNode,
			Type:     NodeTypeUncategorized,
			Label:    overlap.UncategorizedLabel,
			Database: db,
			Count:    len(uncategorized),
			Papers:   b.papers(uncategorized),
		})
		for _, q := range uncategorizedQueries {
			b.addEdge(queryID(q), uncatNode, EdgeContains, "no branch terms")
		}
	}

	citedNode := ""
	if g, ok := b.res.Aggregate(ranking.DatabaseName(ranking.MostCited, db)); ok {
		citedNode = aggregateID(g.Name)
		b.addNode(b.aggregateNode(citedNode, NodeTypeMostCitedAggregate, g, db))
		for _, h := range highlightNodes {
			b.addEdge(h, citedNode, EdgeAggregate, "")
		}
		if uncatNode != "" {
			b.addEdge(uncatNode, citedNode, EdgeAggregate, "")
		}
	}

	if g, ok := b.res.Aggregate(ranking.DatabaseName(ranking.MostRelevant, db)); ok {
		id := aggregateID(g.Name)
		b.addNode(b.aggregateNode(id, NodeTypeMostRelevantAggregate, g, db))
		parent := citedNode
		if parent == "" {
			parent = dbNode
		}
		b.addEdge(parent, id, EdgeAggregate, "")
	}
}

// addQuery adds a query with its branch terms, overlap groups and
// highlights, and returns the highlight node ids.
func (b *builder) addQuery(dbNode string, q catalog.Query) []string {
	qNode := queryID(q.ID)
	b.addNode(Node{
		ID:       qNode,
		Type:     NodeTypeQuery,
		Label:    q.ID,
		Database: q.Database,
		Query:    q.ID,
		Search:   q.Search,
		Count:    len(b.cat.PapersForQuery(q.ID)),
	})
	b.addEdge(dbNode, qNode, EdgeContains, "")

	terms := append([]overlap.TermCount(nil), b.res.BranchTerms[q.ID]...)
	sort.SliceStable(terms, func(i, j int) bool {
		return strings.ToLower(terms[i].Term) < strings.ToLower(terms[j].Term)
	})
	for _, tc := range terms {
		b.addNode(Node{
			ID:       branchID(q.ID, tc.Term),
			Type:     NodeTypeBranch,
			Label:    BranchLabel(tc.Term),
			Database: q.Database,
			Query:    q.ID,
			Term:     tc.Term,
			Count:    tc.Count,
			Papers:   b.papers(b.termPapers(q.ID, tc.Term)),
		})
		b.addEdge(qNode, branchID(q.ID, tc.Term), EdgeContains, "")
	}

	for _, g := range b.res.WithinQueryGroups[q.ID] {
		if !g.IsOverlap() {
			continue
		}
		id := overlapID(q.ID, g.Signature)
		labels := make([]string, len(g.Signature))
		for i, t := range g.Signature {
			labels[i] = paper.CleanTermLabel(t)
		}
		b.addNode(Node{
			ID:       id,
			Type:     NodeTypeOverlap,
			Label:    overlap.SignatureLabel(labels),
			Database: q.Database,
			Query:    q.ID,
			Count:    g.Count,
			Papers:   b.papers(g.PaperIDs),
		})
		for _, t := range g.Signature {
			b.addEdge(branchID(q.ID, t), id, EdgeOverlap, "")
		}
	}

	var highlights []string
	for i := range b.res.AggregateGroups {
		g := &b.res.AggregateGroups[i]
		if !g.IsAnchored() || g.Query != q.ID {
			continue
		}
		id := aggregateID(g.Name)
		b.addNode(b.aggregateNode(id, NodeTypeHighlight, g, q.Database))
		b.addEdge(branchID(q.ID, g.Term), id, EdgeHighlight, "")
		highlights = append(highlights, id)
	}
	return highlights
}

func (b *builder) addCrossGroups() {
	for _, g := range b.res.CrossQueryGroups {
		id := fmt.Sprintf("cross:%s:%s|%s:%s", g.QueryA, g.TermA, g.QueryB, g.TermB)
		b.addNode(Node{
			ID:     id,
			Type:   NodeTypeCross,
			Label:  overlap.SignatureLabel([]string{paper.CleanTermLabel(g.TermA), paper.CleanTermLabel(g.TermB)}),
			Query:  g.QueryA + " / " + g.QueryB,
			Count:  g.Count,
			Papers: b.papers(g.PaperIDs),
		})
		b.addEdge(branchID(g.QueryA, g.TermA), id, EdgeCross, g.QueryB)
		b.addEdge(branchID(g.QueryB, g.TermB), id, EdgeCross, g.QueryA)
	}
}

func (b *builder) aggregateNode(id, typ string, g *overlap.AggregateGroup, db string) Node {
	return Node{
		ID:       id,
		Type:     typ,
		Label:    g.Label,
		Database: db,
		Query:    g.Query,
		Term:     g.Term,
		Count:    g.Count,
		Papers:   b.papers(g.PaperIDs),
	}
}

// termPapers returns the sorted ids of the papers of query carrying term.
func (b *builder) termPapers(query, term string) []string {
	var ids []string
	for _, g := range b.res.WithinQueryGroups[query] {
		for _, t := range g.Signature {
			if t == term {
				ids = append(ids, g.PaperIDs...)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func (b *builder) papers(ids []string) []PaperInfo {
	out := make([]PaperInfo, 0, len(ids))
	for _, id := range ids {
		p, ok := b.cat.Lookup(id)
		if !ok {
			continue
		}
		info := PaperInfo{ID: p.ID, Title: p.Title, Authors: p.AuthorsString(), PDF: p.HasPDF()}
		if p.HasYear() {
			info.Year = *p.Year
		}
		out = append(out, info)
	}
	return out
}
