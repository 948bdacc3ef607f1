package domain

import "strings"

// SymbolKind tells inputs and outputs apart.
type SymbolKind string

const (
	KindInput  SymbolKind = "input"
	KindOutput SymbolKind = "output"
)

// Symbol identifies an input or an output.
//
// Symbols compare by identity: two declarations with the same name are
// different symbols. Always pass them around as *Symbol.
type Symbol struct {
	kind   SymbolKind
	name   string
	params []string
}

// NewSymbol declares a new symbol. params is the call-signature shape
// (ordered parameter names) used when matching inputs against outputs.
func NewSymbol(kind SymbolKind, name string, params ...string) *Symbol {
	p := make([]string, len(params))
	copy(p, params)
	return &Symbol{kind: kind, name: name, params: p}
}

// Kind returns whether the symbol is an input or an output.
func (s *Symbol) Kind() SymbolKind { return s.kind }

// Name returns the declared name.
func (s *Symbol) Name() string { return s.name }

// Params returns a copy of the declared parameter names.
func (s *Symbol) Params() []string {
	out := make([]string, len(s.params))
	copy(out, s.params)
	return out
}

// SameSignature reports whether both symbols declare the same parameters in the same order.
func (s *Symbol) SameSignature(other *Symbol) bool {
	if len(s.params) != len(other.params) {
		return false
	}
	for i := range s.params {
		if s.params[i] != other.params[i] {
			return false
		}
	}
	return true
}

// Signature renders the parameter list, e.g. "(count, label)".
func (s *Symbol) Signature() string {
	return "(" + strings.Join(s.params, ", ") + ")"
}

func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// Transition is one declared edge of an automaton.
type Transition struct {
	From    State
	Input   *Symbol
	To      State
	Outputs []*Symbol
}

// OutputNames lists the names of the transition outputs in order.
func (t Transition) OutputNames() []string {
	names := make([]string, len(t.Outputs))
	for i, o := range t.Outputs {
		names[i] = o.Name()
	}
	return names
}
