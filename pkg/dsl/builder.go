package dsl

import (
	"context"
	"maps"
	"slices"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/flags"
)

// OutputFunc implements an output. It receives the arguments the triggering
// input was called with.
type OutputFunc func(ctx context.Context, args ...any) (any, error)

type model int

const (
	modelUnset model = iota
	modelAtomic
	modelComposite
)

type collectorEntry struct {
	from    domain.State
	input   *domain.Symbol
	collect Collector
}

// Builder declares a machine: its vocabulary first, then its transitions.
// Call Build once to obtain an immutable Definition.
type Builder struct {
	name  string
	model model

	flagDecls []flags.Flag
	space     *flags.Space

	states     map[string]*StateBuilder
	stateOrder []string

	inputs  map[string]*domain.Symbol
	outputs map[*domain.Symbol]OutputFunc
	outByN  map[string]*domain.Symbol

	table      *automaton.Builder
	collectors []collectorEntry
	built      bool
}

// New creates a builder for a machine called name.
func New(name string) *Builder {
	return &Builder{
		name:    name,
		states:  make(map[string]*StateBuilder),
		inputs:  make(map[string]*domain.Symbol),
		outputs: make(map[*domain.Symbol]OutputFunc),
		outByN:  make(map[string]*domain.Symbol),
		table:   automaton.NewBuilder(),
	}
}

// DeclareFlag adds a flag to the composite state model.
// Flags must be declared before the first transition.
func (b *Builder) DeclareFlag(f flags.Flag) error {
	if err := b.sealed("declare flag"); err != nil {
		return err
	}
	if b.model == modelAtomic {
		return domain.Configf("declare flag", "machine %q already uses atomic states", b.name)
	}
	if b.space != nil {
		return domain.Configf("declare flag", "flag %q declared after the first transition", f.Name)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	for _, existing := range b.flagDecls {
		if existing.Name == f.Name {
			return domain.Configf("declare flag", "flag %q declared twice", f.Name)
		}
	}
	b.model = modelComposite
	b.flagDecls = append(b.flagDecls, f)
	return nil
}

// StateBuilder configures an atomic state.
type StateBuilder struct {
	name       string
	initial    bool
	serialized string
}

// Initial marks the state as the machine's initial state.
func (s *StateBuilder) Initial() *StateBuilder {
	s.initial = true
	return s
}

// Serialized sets the external name of the state.
func (s *StateBuilder) Serialized(alias string) *StateBuilder {
	s.serialized = alias
	return s
}

func (s *StateBuilder) serializedName() string {
	if s.serialized != "" {
		return s.serialized
	}
	return s.name
}

// DeclareState adds an atomic state. Declaring the same name again returns
// the existing declaration. It returns nil if the machine uses flags or is
// already built.
func (b *Builder) DeclareState(name string) *StateBuilder {
	if b.model == modelComposite || b.built {
		return nil
	}
	if sb, ok := b.states[name]; ok {
		return sb
	}
	b.model = modelAtomic
	sb := &StateBuilder{name: name}
	b.states[name] = sb
	b.stateOrder = append(b.stateOrder, name)
	return sb
}

// DeclareInput declares an input symbol with the given parameter names.
func (b *Builder) DeclareInput(name string, params ...string) (*domain.Symbol, error) {
	if err := b.sealed("declare input"); err != nil {
		return nil, err
	}
	if _, dup := b.inputs[name]; dup {
		return nil, domain.Configf("declare input", "input %q declared twice", name)
	}
	in := domain.NewSymbol(domain.KindInput, name, params...)
	b.inputs[name] = in
	return in, nil
}

// DeclareOutput declares an output symbol implemented by fn.
func (b *Builder) DeclareOutput(name string, fn OutputFunc, params ...string) (*domain.Symbol, error) {
	if err := b.sealed("declare output"); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, domain.Configf("declare output", "output %q has no implementation", name)
	}
	if _, dup := b.outByN[name]; dup {
		return nil, domain.Configf("declare output", "output %q declared twice", name)
	}
	out := domain.NewSymbol(domain.KindOutput, name, params...)
	b.outputs[out] = fn
	b.outByN[name] = out
	return out, nil
}

// TransitionOption configures a declared transition.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	collect Collector
}

// WithCollector reduces the outputs' results to the value returned by Input.
func WithCollector(c Collector) TransitionOption {
	return func(tc *transitionConfig) {
		tc.collect = c
	}
}

// DeclareTransition declares that input, received in from, moves the machine
// to to and runs outputs in order. With flags, from and to may be partial
// assignments over the same flags; the transition then applies to every full
// state containing from.
func (b *Builder) DeclareTransition(from domain.State, input *domain.Symbol, to domain.State, outputs []*domain.Symbol, opts ...TransitionOption) error {
	if err := b.sealed("declare transition"); err != nil {
		return err
	}
	if input == nil || b.inputs[input.Name()] != input {
		return domain.Configf("declare transition", "input %s is not declared on machine %q", input, b.name)
	}
	for _, out := range outputs {
		if out == nil || b.outByN[out.Name()] != out {
			return domain.Configf("declare transition", "output %s is not declared on machine %q", out, b.name)
		}
		if !out.SameSignature(input) {
			return domain.Configf("declare transition",
				"input %s%s does not match output %s%s",
				input, input.Signature(), out, out.Signature())
		}
	}

	cfg := transitionConfig{collect: CollectList}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch b.model {
	case modelAtomic:
		if err := b.checkAtom(from); err != nil {
			return err
		}
		if err := b.checkAtom(to); err != nil {
			return err
		}
		if err := b.table.AddTransition(from, input, to, outputs...); err != nil {
			return err
		}
	case modelComposite:
		if b.space == nil {
			space, err := flags.NewSpace(b.flagDecls...)
			if err != nil {
				return err
			}
			b.space = space
		}
		if _, err := b.space.Expand(b.table, from, to, input, outputs...); err != nil {
			return err
		}
	default:
		return domain.Configf("declare transition", "machine %q declares neither states nor flags", b.name)
	}

	b.collectors = append(b.collectors, collectorEntry{from: from, input: input, collect: cfg.collect})
	return nil
}

func (b *Builder) sealed(op string) error {
	if b.built {
		return domain.Configf(op, "machine %q is already built", b.name)
	}
	return nil
}

func (b *Builder) checkAtom(s domain.State) error {
	if !s.IsAtom() {
		return domain.Configf("declare transition", "state %s is not an atomic state", s)
	}
	if _, ok := b.states[s.Name()]; !ok {
		return domain.Configf("declare transition", "state %q is not declared on machine %q", s.Name(), b.name)
	}
	return nil
}

// Build seals the declarations. A builder can only be built once.
func (b *Builder) Build() (*Definition, error) {
	if b.built {
		return nil, domain.Configf("build", "you can only build machine %q once", b.name)
	}

	def := &Definition{
		name:       b.name,
		inputs:     maps.Clone(b.inputs),
		outputs:    maps.Clone(b.outputs),
		collectors: slices.Clone(b.collectors),
	}

	switch b.model {
	case modelAtomic:
		var initial *StateBuilder
		def.atoms = make(map[string]string, len(b.states))
		def.atomsBySer = make(map[string]string, len(b.states))
		for _, name := range b.stateOrder {
			sb := b.states[name]
			if sb.initial {
				if initial != nil {
					return nil, domain.Configf("build", "states %q and %q are both initial", initial.name, sb.name)
				}
				initial = sb
			}
			if other, dup := def.atomsBySer[sb.serializedName()]; dup {
				return nil, domain.Configf("build", "states %q and %q share serialized name %q", other, sb.name, sb.serializedName())
			}
			def.atoms[sb.name] = sb.serializedName()
			def.atomsBySer[sb.serializedName()] = sb.name
		}
		if initial == nil {
			return nil, domain.Configf("build", "machine %q has no initial state", b.name)
		}
		b.table.SetInitial(domain.Atom(initial.name))
	case modelComposite:
		if b.space == nil {
			space, err := flags.NewSpace(b.flagDecls...)
			if err != nil {
				return nil, err
			}
			b.space = space
		}
		def.space = b.space
		b.table.SetInitial(b.space.Initial())
	default:
		return nil, domain.Configf("build", "machine %q declares neither states nor flags", b.name)
	}

	a, err := b.table.Build()
	if err != nil {
		return nil, err
	}
	def.automaton = a
	b.built = true
	return def, nil
}
