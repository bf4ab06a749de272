package viz

import (
	"bytes"
	"fmt"
	"html/template"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "breadthfirst", "force", "circle", or "grid"
	Title  string // Page title; defaults to "Literature Review Map"
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout: "breadthfirst",
		Title:  defaultTitle,
	}
}

const defaultTitle = "Literature Review Map"

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"breadthfirst", "force", "circle", "grid"}

// cytoscapeScript loads Cytoscape.js from the CDN.
const cytoscapeScript = `<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>`

// GenerateHTML generates a self-contained HTML file for the graph visualization.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if err := ValidateLayout(opts.Layout); err != nil {
		return "", err
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(), nil
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	data := templateData{
		Title:     title,
		ScriptTag: template.HTML(cytoscapeScript),
		GraphJSON: template.JS(graphJSON),
		Layout:    layoutToCytoscape(opts.Layout),
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}

	return buf.String(), nil
}

// ValidateLayout checks if the layout option is valid. Empty selects the default.
func ValidateLayout(layout string) error {
	switch layout {
	case "", "breadthfirst", "force", "circle", "grid":
		return nil
	default:
		return fmt.Errorf("invalid layout %q: must be breadthfirst, force, circle, or grid", layout)
	}
}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	ScriptTag template.HTML
	GraphJSON template.JS
	Layout    string
}

// layoutToCytoscape converts user-friendly layout names to Cytoscape.js layout algorithm names.
func layoutToCytoscape(layout string) string {
	switch layout {
	case "force":
		return "cose"
	case "circle":
		return "circle"
	case "grid":
		return "grid"
	default:
		return "breadthfirst"
	}
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Literature Review Map - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state p {
      margin: 0.5em 0;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No papers loaded</h2>
    <p>None of the configured queries has a RIS export yet.</p>
    <p>Add exports to the RIS source folder named in <code>litmap.yml</code></p>
    <p>Check what was found with <code>litmap check</code></p>
  </div>
</body>
</html>`
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  {{.ScriptTag}}
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 360px;
      max-height: 60vh;
      overflow: hidden;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .type {
      font-size: 10px;
      text-transform: uppercase;
      color: #888;
      margin-bottom: 4px;
    }
    #tooltip .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #tooltip .detail {
      color: #555;
      margin: 2px 0;
    }
    #tooltip .paper {
      margin: 4px 0 0 0;
      padding-left: 6px;
      border-left: 2px solid #ddd;
    }
    #tooltip .more {
      font-style: italic;
      color: #666;
      margin-top: 4px;
    }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";
      const maxPapers = 8;

      function boxStyle(color, shape) {
        return {
          'background-color': color,
          'shape': shape,
          'label': 'data(label)',
          'color': '#222',
          'font-size': '11px',
          'text-valign': 'center',
          'text-halign': 'center',
          'text-wrap': 'wrap',
          'text-max-width': '140px',
          'width': '150px',
          'height': '48px',
          'border-width': 1,
          'border-color': '#555'
        };
      }

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          { selector: 'node[type="database"]', style: Object.assign(boxStyle('#B0B0B0', 'round-rectangle'), { 'font-weight': 'bold' }) },
          { selector: 'node[type="query"]', style: boxStyle('#F2D95C', 'round-rectangle') },
          { selector: 'node[type="branch"]', style: boxStyle('#7FB3E6', 'round-rectangle') },
          { selector: 'node[type="overlap"]', style: boxStyle('#B58BD9', 'ellipse') },
          { selector: 'node[type="cross"]', style: boxStyle('#E6A0C4', 'diamond') },
          { selector: 'node[type="mostCited"]', style: boxStyle('#8CD98C', 'round-rectangle') },
          { selector: 'node[type="uncategorized"]', style: boxStyle('#DDDDDD', 'round-rectangle') },
          { selector: 'node[type="mostCitedAggregate"]', style: boxStyle('#F5A65B', 'round-rectangle') },
          { selector: 'node[type="mostRelevantAggregate"]', style: boxStyle('#E06666', 'round-rectangle') },
          {
            selector: 'edge',
            style: {
              'line-color': '#95A5A6',
              'target-arrow-color': '#95A5A6',
              'target-arrow-shape': 'triangle',
              'curve-style': 'bezier',
              'width': 2
            }
          },
          {
            selector: 'edge[relationshipType="overlap"]',
            style: { 'line-color': '#9B59B6', 'target-arrow-color': '#9B59B6' }
          },
          {
            selector: 'edge[relationshipType="cross"]',
            style: { 'line-color': '#C0397E', 'target-arrow-color': '#C0397E', 'line-style': 'dashed' }
          },
          {
            selector: 'edge[relationshipType="highlight"]',
            style: { 'line-color': '#5CB85C', 'target-arrow-color': '#5CB85C' }
          },
          {
            selector: 'edge[relationshipType="aggregate"]',
            style: { 'line-color': '#E8923A', 'target-arrow-color': '#E8923A' }
          },
          {
            selector: 'node.highlighted',
            style: {
              'border-width': 3,
              'border-color': '#ff6b6b'
            }
          },
          {
            selector: 'node.dimmed',
            style: {
              'opacity': 0.3
            }
          },
          {
            selector: 'edge.dimmed',
            style: {
              'opacity': 0.2
            }
          }
        ],
        layout: {
          name: layout,
          animate: false,
          directed: true,
          spacingFactor: 1.2,
          // cose-specific options
          nodeRepulsion: 8000,
          idealEdgeLength: 120,
          edgeElasticity: 100
        }
      });

      const tooltip = document.getElementById('tooltip');

      function showTooltip(evt, content) {
        tooltip.innerHTML = content;
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      }

      function hideTooltip() {
        tooltip.style.display = 'none';
      }

      function paperHtml(p) {
        let html = '<div class="paper">' + escapeHtml(p.title);
        const meta = [];
        if (p.authors) meta.push(escapeHtml(p.authors));
        if (p.year) meta.push(p.year);
        if (p.pdf) meta.push('PDF');
        if (meta.length > 0) html += '<div class="detail">' + meta.join(' · ') + '</div>';
        return html + '</div>';
      }

      function getNodeTooltip(node) {
        const data = node.data();
        let html = '<div class="type">' + data.type + '</div>';
        html += '<div class="label">' + escapeHtml(data.label) + '</div>';

        if (data.search) html += '<div class="detail">' + escapeHtml(data.search) + '</div>';
        if (data.query && data.type !== 'query') html += '<div class="detail">Query: ' + escapeHtml(data.query) + '</div>';
        if (data.type !== 'database') html += '<div class="detail">Papers: ' + data.count + '</div>';

        const papers = data.papers || [];
        papers.slice(0, maxPapers).forEach(function(p) { html += paperHtml(p); });
        if (papers.length > maxPapers) {
          html += '<div class="more">and ' + (papers.length - maxPapers) + ' more</div>';
        }
        return html;
      }

      function getEdgeTooltip(edge) {
        const data = edge.data();
        let html = '<div class="type">' + data.relationshipType + '</div>';
        if (data.summary) html += '<div class="detail">' + escapeHtml(data.summary) + '</div>';
        return html;
      }

      function escapeHtml(str) {
        if (!str) return '';
        return String(str).replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      cy.on('mouseover', 'node', function(evt) {
        showTooltip(evt, getNodeTooltip(evt.target));
      });

      cy.on('mouseout', 'node', function() {
        hideTooltip();
      });

      cy.on('mouseover', 'edge', function(evt) {
        showTooltip(evt, getEdgeTooltip(evt.target));
      });

      cy.on('mouseout', 'edge', function() {
        hideTooltip();
      });

      // Click highlighting
      cy.on('tap', 'node', function(evt) {
        const node = evt.target;
        cy.elements().removeClass('highlighted dimmed');

        const neighborhood = node.neighborhood().add(node);
        neighborhood.addClass('highlighted');
        cy.elements().not(neighborhood).addClass('dimmed');
      });

      // Click on empty space to reset
      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.elements().removeClass('highlighted dimmed');
        }
      });
    })();
  </script>
</body>
</html>`
