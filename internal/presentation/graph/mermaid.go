package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/automat/pkg/automaton"
)

// GenerateMermaid produces a Mermaid flowchart of the automaton.
// The initial state is drawn as a circle, every other state as a rectangle;
// edges are labelled "input / outputs".
func GenerateMermaid(a *automaton.Automaton, overlay *Overlay) string {
	nodes, edges := layout(a)

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, n := range nodes {
		opener, closer := "[", "]"
		if n.initial {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", n.id, opener, n.label, closer)
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", e.from, e.label, e.to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, n := range nodes {
			visited, current := overlay.classes(n)
			switch {
			case current:
				fmt.Fprintf(&sb, "    class %s current;\n", n.id)
			case visited:
				fmt.Fprintf(&sb, "    class %s visited;\n", n.id)
			}
		}
	}
	return sb.String()
}
