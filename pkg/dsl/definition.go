package dsl

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/flags"
)

// StateKey is the snapshot key holding the state of an atomic machine.
const StateKey = "state"

var (
	ErrUnknownInput = domain.ErrUnknownInput
	ErrBadArguments = domain.ErrBadArguments
)

// Definition is an immutable, built machine. Create any number of
// independent instances from it.
type Definition struct {
	name       string
	automaton  *automaton.Automaton
	space      *flags.Space
	atoms      map[string]string // state name -> serialized name
	atomsBySer map[string]string
	inputs     map[string]*domain.Symbol
	outputs    map[*domain.Symbol]OutputFunc
	collectors []collectorEntry
}

// Name returns the machine name.
func (d *Definition) Name() string { return d.name }

// Automaton exposes the transition table, for rendering and introspection.
func (d *Definition) Automaton() *automaton.Automaton { return d.automaton }

// Space returns the flag space, or nil for atomic machines.
func (d *Definition) Space() *flags.Space { return d.space }

// Input looks up a declared input by name.
func (d *Definition) Input(name string) (*domain.Symbol, bool) {
	in, ok := d.inputs[name]
	return in, ok
}

// Inputs lists every declared input, sorted by name.
func (d *Definition) Inputs() []*domain.Symbol {
	out := make([]*domain.Symbol, 0, len(d.inputs))
	for _, in := range d.inputs {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// NewInstance creates an instance in the initial state.
func (d *Definition) NewInstance(opts ...automaton.TransitionerOption) *Instance {
	return &Instance{def: d, transitioner: automaton.NewTransitioner(d.automaton, opts...)}
}

// Serialize renders a state through the serialization bridge.
func (d *Definition) Serialize(state domain.State) (map[string]string, error) {
	if d.space != nil {
		return d.space.Serialize(state)
	}
	alias, ok := d.atoms[state.Name()]
	if !state.IsAtom() || !ok {
		return nil, fmt.Errorf("serialize: %s is not a state of machine %q", state, d.name)
	}
	return map[string]string{StateKey: alias}, nil
}

// Unserialize is the inverse of Serialize.
func (d *Definition) Unserialize(data map[string]string) (domain.State, error) {
	if d.space != nil {
		return d.space.Unserialize(data)
	}
	name, ok := d.atomsBySer[data[StateKey]]
	if !ok {
		return domain.State{}, domain.Configf("unserialize", "unknown state %q for machine %q", data[StateKey], d.name)
	}
	return domain.Atom(name), nil
}

// Restore creates an instance positioned at a serialized state.
func (d *Definition) Restore(data map[string]string, opts ...automaton.TransitionerOption) (*Instance, error) {
	state, err := d.Unserialize(data)
	if err != nil {
		return nil, err
	}
	opts = append(opts, automaton.WithInitialState(state))
	return d.NewInstance(opts...), nil
}

func (d *Definition) collectorFor(state domain.State, input *domain.Symbol) Collector {
	for _, c := range d.collectors {
		if c.input == input && c.from.SubsetOf(state) {
			return c.collect
		}
	}
	return CollectList
}

// Instance is one running machine. It is not safe for concurrent use.
type Instance struct {
	def          *Definition
	transitioner *automaton.Transitioner
}

// Definition returns the definition the instance was created from.
func (i *Instance) Definition() *Definition { return i.def }

// State returns the current state.
func (i *Instance) State() domain.State { return i.transitioner.State() }

// SetTrace replaces the tracer; nil disables tracing.
func (i *Instance) SetTrace(tracer automaton.Tracer) { i.transitioner.SetTrace(tracer) }

// Snapshot serializes the current state.
func (i *Instance) Snapshot() (map[string]string, error) {
	return i.def.Serialize(i.transitioner.State())
}

// InputByName resolves name to a declared input and calls Input.
func (i *Instance) InputByName(ctx context.Context, name string, args ...any) (any, error) {
	in, ok := i.def.inputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on machine %q", ErrUnknownInput, name, i.def.name)
	}
	return i.Input(ctx, in, args...)
}

// Input feeds one input to the machine. The state advances before any output
// runs; if an output fails, its error is returned unchanged and the machine
// stays in the new state. The outputs' results are reduced by the
// transition's collector.
func (i *Instance) Input(ctx context.Context, input *domain.Symbol, args ...any) (any, error) {
	if input == nil || i.def.inputs[input.Name()] != input {
		return nil, fmt.Errorf("%w: %s on machine %q", ErrUnknownInput, input, i.def.name)
	}
	if want := len(input.Params()); want != len(args) {
		return nil, fmt.Errorf("%w: %s%s takes %d arguments, got %d",
			ErrBadArguments, input, input.Signature(), want, len(args))
	}

	old := i.transitioner.State()
	outputs, outTracer, err := i.transitioner.Transition(input)
	if err != nil {
		return nil, err
	}

	results := make([]any, 0, len(outputs))
	for _, out := range outputs {
		if outTracer != nil {
			outTracer(out)
		}
		res, err := i.def.outputs[out](ctx, args...)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return i.def.collectorFor(old, input)(results), nil
}
