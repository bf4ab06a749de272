package viz

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CytoscapeElements is the elements object handed to cytoscape().
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode wraps a node; Classes repeats the node type for selectors.
type CytoscapeNode struct {
	Data    Node   `json:"data"`
	Classes string `json:"classes,omitempty"`
}

// CytoscapeEdge wraps an edge with its element id.
type CytoscapeEdge struct {
	Data    CytoscapeEdgeData `json:"data"`
	Classes string            `json:"classes,omitempty"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID string `json:"id"`
	Edge
}

// ToCytoscapeJSON converts the graph to Cytoscape.js elements JSON.
// Edge ids are derived from the endpoints and relationship, so rebuilding
// the same snapshot yields the same ids.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	elements := CytoscapeElements{
		Nodes: make([]CytoscapeNode, len(g.Nodes)),
		Edges: make([]CytoscapeEdge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		elements.Nodes[i] = CytoscapeNode{Data: n, Classes: n.Type}
	}

	seen := make(map[string]int, len(g.Edges))
	for i, e := range g.Edges {
		elements.Edges[i] = CytoscapeEdge{
			Data:    CytoscapeEdgeData{ID: edgeID(e, seen), Edge: e},
			Classes: e.RelationshipType,
		}
	}

	data, err := json.Marshal(elements)
	if err != nil {
		return "", fmt.Errorf("encoding cytoscape elements: %w", err)
	}
	return string(data), nil
}

// edgeID names an edge "source->target:type", numbering repeats.
func edgeID(e Edge, seen map[string]int) string {
	id := e.Source + "->" + e.Target + ":" + e.RelationshipType
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "#" + strconv.Itoa(n+1)
}
