package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/automat/pkg/automaton"
)

// GenerateDOT produces a Graphviz digraph of the automaton. The initial state
// is a double circle; the overlay fills visited and current states.
func GenerateDOT(name string, a *automaton.Automaton, overlay *Overlay) string {
	nodes, edges := layout(a)

	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", name)
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n")
	for _, n := range nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.label)}
		if n.initial {
			attrs = append(attrs, "shape=doublecircle")
		}
		visited, current := overlay.classes(n)
		switch {
		case current:
			attrs = append(attrs, `style="rounded,filled"`, `fillcolor="#ffeb3b"`)
		case visited:
			attrs = append(attrs, `style="rounded,filled"`, `fillcolor="#e1f5fe"`)
		}
		fmt.Fprintf(&sb, "    %s [%s];\n", n.id, strings.Join(attrs, ", "))
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "    %s -> %s [label=%q];\n", e.from, e.to, e.label)
	}
	sb.WriteString("}\n")
	return sb.String()
}
