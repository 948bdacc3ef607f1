package cluster

import (
	"fmt"

	"github.com/aretw0/automat/pkg/domain"
)

type source int

const (
	sourceAuto source = iota
	sourceArg
	sourceCore
	sourceSibling
	sourceSelf
	sourceDefault
)

func (s source) String() string {
	switch s {
	case sourceArg:
		return "argument"
	case sourceCore:
		return "core"
	case sourceSibling:
		return "sibling"
	case sourceSelf:
		return "self"
	case sourceDefault:
		return "default"
	}
	return "auto"
}

// Param declares one constructor parameter of a state factory and where its
// value comes from.
type Param struct {
	name       string
	source     source
	ref        string
	wholeCore  bool
	def        any
	hasDefault bool
}

// Arg takes the value from the argument of the same name of the input that
// caused the state to be entered.
func Arg(name string) Param {
	return Param{name: name, source: sourceArg, ref: name}
}

// CoreValue reads a registered core attribute. The attribute defaults to the
// parameter name; an explicit empty attribute injects the core itself.
func CoreValue(name string, attr ...string) Param {
	p := Param{name: name, source: sourceCore, ref: name}
	if len(attr) > 0 {
		p.ref = attr[0]
		p.wholeCore = attr[0] == ""
	}
	return p
}

// Sibling injects the live object of another resident state.
func Sibling(name, state string) Param {
	return Param{name: name, source: sourceSibling, ref: state}
}

// Self injects the Manager that owns the state, so handlers can feed further
// inputs to the same machine.
func Self(name string) Param {
	return Param{name: name, source: sourceSelf}
}

// Auto picks the source at build time: an input argument of the same name,
// then a core attribute, then a declared state of that name.
func Auto(name string) Param {
	return Param{name: name, source: sourceAuto, ref: name}
}

// Default supplies the value used when no source resolves the parameter.
func (p Param) Default(v any) Param {
	p.def = v
	p.hasDefault = true
	return p
}

// Name returns the parameter name.
func (p Param) Name() string { return p.name }

// Values are the resolved constructor parameters handed to a factory.
type Values struct {
	m map[string]any
}

// Value returns the raw value of a parameter.
func (v Values) Value(name string) (any, bool) {
	val, ok := v.m[name]
	return val, ok
}

// Get returns the parameter converted to V. The second result is false when
// the parameter is missing or holds another type.
func Get[V any](v Values, name string) (V, bool) {
	val, ok := v.m[name].(V)
	return val, ok
}

// binding is a Param with its source fixed for one edge.
type binding[C any] struct {
	param    Param
	kind     source
	argIndex int
	attr     func(C) any
	missing  string
}

// plan is the construction recipe of a state when entered through one input.
type plan[C any] struct {
	state    string
	bindings []binding[C]
}

func (p *plan[C]) err() error {
	for _, b := range p.bindings {
		if b.missing != "" {
			return domain.Configf("construct state", "state %q: %s", p.state, b.missing)
		}
	}
	return nil
}

// compilePlan fixes the source of every parameter of state when it is entered
// through input. input is nil for construction outside a transition (the
// initial and error states). states is the state table being built. Structural
// mistakes fail immediately; a missing argument is recorded on the binding and
// reported if construction happens.
func (b *Builder[C]) compilePlan(states map[string]*stateEntry, state *stateEntry, input *domain.Symbol) (*plan[C], error) {
	p := &plan[C]{state: state.name, bindings: make([]binding[C], 0, len(state.params))}
	for _, prm := range state.params {
		bd := binding[C]{param: prm, kind: prm.source, argIndex: -1}
		switch prm.source {
		case sourceArg:
			bd.argIndex = argIndex(input, prm.ref)
			if bd.argIndex < 0 {
				bd = b.fallback(bd, "parameter %q is not an argument of input %s", prm.name, input)
			}
		case sourceCore:
			if !prm.wholeCore {
				attr, ok := b.attrs[prm.ref]
				if !ok {
					if !prm.hasDefault {
						return nil, domain.Configf("build", "state %q: core attribute %q is not registered", state.name, prm.ref)
					}
					bd.kind = sourceDefault
				}
				bd.attr = attr
			}
		case sourceSibling:
			if _, ok := states[prm.ref]; !ok {
				return nil, domain.Configf("build", "state %q: parameter %q refers to undeclared state %q", state.name, prm.name, prm.ref)
			}
		case sourceSelf:
		case sourceAuto:
			if i := argIndex(input, prm.ref); i >= 0 {
				bd.kind, bd.argIndex = sourceArg, i
			} else if attr, ok := b.attrs[prm.ref]; ok {
				bd.kind, bd.attr = sourceCore, attr
			} else if _, ok := states[prm.ref]; ok {
				bd.kind = sourceSibling
			} else {
				bd = b.fallback(bd, "parameter %q cannot be resolved when entered through %s", prm.name, input)
			}
		}
		p.bindings = append(p.bindings, bd)
	}
	return p, nil
}

func (b *Builder[C]) fallback(bd binding[C], format string, args ...any) binding[C] {
	if bd.param.hasDefault {
		bd.kind = sourceDefault
		return bd
	}
	bd.missing = fmt.Sprintf(format, args...)
	return bd
}

func argIndex(input *domain.Symbol, name string) int {
	if input == nil {
		return -1
	}
	for i, p := range input.Params() {
		if p == name {
			return i
		}
	}
	return -1
}
