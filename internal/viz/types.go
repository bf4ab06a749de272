// Package viz renders a loaded dataset as an interactive review map: databases,
// queries, branch terms and the groups computed over them.
package viz

// Node types.
const (
	NodeTypeDatabase              = "database"
	NodeTypeQuery                 = "query"
	NodeTypeBranch                = "branch"
	NodeTypeOverlap               = "overlap"
	NodeTypeCross                 = "cross"
	NodeTypeHighlight             = "mostCited"
	NodeTypeUncategorized         = "uncategorized"
	NodeTypeMostCitedAggregate    = "mostCitedAggregate"
	NodeTypeMostRelevantAggregate = "mostRelevantAggregate"
)

// Edge relationship types.
const (
	EdgeContains  = "contains"
	EdgeOverlap   = "overlap"
	EdgeCross     = "cross"
	EdgeHighlight = "highlight"
	EdgeAggregate = "aggregate"
)

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one box on the map.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`

	// Context (for tooltips)
	Database string `json:"database,omitempty"`
	Query    string `json:"query,omitempty"`
	Search   string `json:"search,omitempty"` // Literal search string of a query node
	Term     string `json:"term,omitempty"`

	// Group membership
	Count  int         `json:"count"`
	Papers []PaperInfo `json:"papers,omitempty"`
}

// PaperInfo is the tooltip view of a paper.
type PaperInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Authors string `json:"authors,omitempty"` // Formatted "First Last, First Last"
	Year    int    `json:"year,omitempty"`
	PDF     bool   `json:"pdf,omitempty"`
}

// Edge connects a parent node to a child node.
type Edge struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationshipType"`
	Summary          string `json:"summary"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// NodesOfType returns the nodes with the given type, in graph order.
func (g *GraphData) NodesOfType(typ string) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}
