package render

import (
	"github.com/statichive/statichive-core/internal/core/domain"
)

// renderTitle renders a sequence of decorated text runs, one inline
// node per run.
func renderTitle(runs []domain.DecoratedText) []*Node {
	nodes := make([]*Node, 0, len(runs))
	for _, run := range runs {
		nodes = append(nodes, renderRun(run))
	}
	return nodes
}

// renderRun folds a run's marker stack over its text, innermost first:
// the first marker wraps the raw text, the last marker becomes the
// outermost element. A plain run renders as a span.
func renderRun(run domain.DecoratedText) *Node {
	if len(run.Markers) == 0 {
		return Element("span", Text(run.Text))
	}

	node := Text(run.Text)
	for _, marker := range run.Markers {
		node = wrapMarker(marker, node)
	}
	return node
}

// wrapMarker maps a style marker to its element. Marker arguments
// attach to the marker's own element only, never to descendants.
// Unrecognized tags pass through as elements of that literal name
// with no attributes; no marker can introduce active content.
func wrapMarker(marker domain.Marker, child *Node) *Node {
	switch marker.Tag {
	case "c":
		return Element("code", child)
	case "_":
		return Element("u", child)
	case "a":
		node := Element("a", child)
		if len(marker.Args) > 0 {
			node.WithAttr("href", marker.Args[0])
		}
		return node
	case "h":
		node := Element("span", child)
		if len(marker.Args) > 0 {
			node.WithAttr("class", "highlight-"+marker.Args[0])
		}
		return node
	default:
		return Element(marker.Tag, child)
	}
}
