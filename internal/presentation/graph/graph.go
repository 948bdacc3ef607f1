package graph

import (
	"strconv"
	"strings"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
)

// Overlay contains instance data to highlight on the graph.
type Overlay struct {
	Current domain.State
	Visited []domain.State
}

// node is a state with a renderer-safe identifier.
type node struct {
	id      string
	label   string
	initial bool
	state   domain.State
}

type edge struct {
	from, to string
	label    string
}

// layout assigns stable identifiers (s0, s1, ...) in the automaton's state order.
func layout(a *automaton.Automaton) ([]node, []edge) {
	states := a.States()
	ids := make(map[string]string, len(states))
	nodes := make([]node, 0, len(states))
	for i, s := range states {
		id := "s" + strconv.Itoa(i)
		ids[s.Key()] = id
		nodes = append(nodes, node{
			id:      id,
			label:   escape(s.String()),
			initial: s.Equal(a.Initial()),
			state:   s,
		})
	}

	transitions := a.Transitions()
	edges := make([]edge, 0, len(transitions))
	for _, t := range transitions {
		edges = append(edges, edge{
			from:  ids[t.From.Key()],
			to:    ids[t.To.Key()],
			label: escape(EdgeLabel(t)),
		})
	}
	return nodes, edges
}

// EdgeLabel renders a transition as "input / out1, out2".
func EdgeLabel(t domain.Transition) string {
	if len(t.Outputs) == 0 {
		return t.Input.Name()
	}
	return t.Input.Name() + " / " + strings.Join(t.OutputNames(), ", ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}

func (o *Overlay) classes(n node) (visited, current bool) {
	if o == nil {
		return false, false
	}
	for _, v := range o.Visited {
		if v.Equal(n.state) {
			visited = true
			break
		}
	}
	return visited, !o.Current.IsZero() && o.Current.Equal(n.state)
}
