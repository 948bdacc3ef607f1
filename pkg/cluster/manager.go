package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
)

// Args are the arguments an input was called with.
type Args struct {
	input  *domain.Symbol
	values []any
}

// Input returns the input being handled.
func (a Args) Input() *domain.Symbol { return a.input }

// Len returns the number of arguments.
func (a Args) Len() int { return len(a.values) }

// At returns the i-th positional argument.
func (a Args) At(i int) any { return a.values[i] }

// Get returns the argument bound to the input parameter called name.
func (a Args) Get(name string) (any, bool) {
	if i := argIndex(a.input, name); i >= 0 {
		return a.values[i], true
	}
	return nil, false
}

// Definition is a built cluster machine. It is immutable and can create any
// number of instances.
type Definition[C any] struct {
	name       string
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	automaton  *automaton.Automaton
	inputs     map[string]*domain.Symbol
	states     map[string]*stateEntry
	order      []string
	common     map[*domain.Symbol]commonEntry[C]
	errorState string
	handlers   map[*domain.Symbol]*handlerEntry
	plans      map[planKey]*plan[C]
}

// Name returns the machine name.
func (d *Definition[C]) Name() string { return d.name }

// Automaton exposes the transition table, for rendering and introspection.
func (d *Definition[C]) Automaton() *automaton.Automaton { return d.automaton }

// InitialState returns the name of the initial state.
func (d *Definition[C]) InitialState() string { return d.automaton.Initial().Name() }

// ErrorState returns the name of the state entered on unhandled input.
func (d *Definition[C]) ErrorState() string { return d.errorState }

// States lists the defined states in declaration order.
func (d *Definition[C]) States() []string {
	return append([]string(nil), d.order...)
}

// Ephemeral reports whether objects of state are discarded on exit.
func (d *Definition[C]) Ephemeral(state string) bool {
	st, ok := d.states[state]
	return ok && st.ephemeral
}

// Input looks up a declared input by name.
func (d *Definition[C]) Input(name string) (*domain.Symbol, bool) {
	in, ok := d.inputs[name]
	return in, ok
}

// Inputs lists the declared inputs, sorted by name.
func (d *Definition[C]) Inputs() []*domain.Symbol {
	out := make([]*domain.Symbol, 0, len(d.inputs))
	for _, in := range d.inputs {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// New creates an instance around core and builds the initial state's object.
func (d *Definition[C]) New(ctx context.Context, core C) (*Manager[C], error) {
	m := &Manager[C]{
		def:          d,
		core:         core,
		transitioner: automaton.NewTransitioner(d.automaton),
		resident:     make(map[string]any),
	}
	initial := d.InitialState()
	if err := m.construct(ctx, initial, planKey{state: initial}, Args{}); err != nil {
		return nil, err
	}
	return m, nil
}

// Manager runs one instance: it keeps the transitioner and the objects of the
// resident states in step. It is not safe for concurrent use; handlers may
// call back into the Manager from the same goroutine.
type Manager[C any] struct {
	def          *Definition[C]
	core         C
	transitioner *automaton.Transitioner
	tracer       automaton.Tracer
	resident     map[string]any
}

// Definition returns the definition the instance was created from.
func (m *Manager[C]) Definition() *Definition[C] { return m.def }

// Core returns the shared core.
func (m *Manager[C]) Core() C { return m.core }

// State returns the name of the current state.
func (m *Manager[C]) State() string { return m.transitioner.State().Name() }

// Resident returns the live object of a state, if any.
func (m *Manager[C]) Resident(state string) (any, bool) {
	obj, ok := m.resident[state]
	return obj, ok
}

// ResidentStates lists the states that currently hold an object, sorted.
func (m *Manager[C]) ResidentStates() []string {
	out := make([]string, 0, len(m.resident))
	for name := range m.resident {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetTrace replaces the tracer; nil disables tracing. Transitions are traced
// once the target state's object exists, so a failed construction is never
// reported.
func (m *Manager[C]) SetTrace(tracer automaton.Tracer) { m.tracer = tracer }

// HandleInputByName resolves name to a declared input and calls HandleInput.
func (m *Manager[C]) HandleInputByName(ctx context.Context, name string, args ...any) (any, error) {
	in, ok := m.def.inputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on machine %q", domain.ErrUnknownInput, name, m.def.name)
	}
	return m.HandleInput(ctx, in, args...)
}

// HandleInput feeds one input to the instance.
//
// The handler runs on the object of the state that received the input, after
// the transitioner has advanced and the target state's object exists, so
// handlers that call back into the Manager observe the new state. An input
// with no transition moves the instance to its error state and returns an
// UnhandledInputError. Handler errors are returned unchanged; the state has
// advanced regardless.
func (m *Manager[C]) HandleInput(ctx context.Context, input *domain.Symbol, args ...any) (any, error) {
	if input == nil || m.def.inputs[input.Name()] != input {
		return nil, fmt.Errorf("%w: %s on machine %q", domain.ErrUnknownInput, input, m.def.name)
	}
	if want := len(input.Params()); want != len(args) {
		return nil, fmt.Errorf("%w: %s%s takes %d arguments, got %d",
			domain.ErrBadArguments, input, input.Signature(), want, len(args))
	}
	call := Args{input: input, values: args}

	if c, ok := m.def.common[input]; ok {
		return c.fn(ctx, m, m.core, call)
	}

	old := m.transitioner.State()
	outputs, _, err := m.transitioner.Transition(input)
	if err != nil {
		if errors.Is(err, domain.ErrNoTransition) {
			return nil, m.unhandled(ctx, old, input, err)
		}
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, m.unhandled(ctx, old, input, nil)
	}
	selected := outputs[0]
	handler := m.def.handlers[selected]

	oldName, newName := old.Name(), m.transitioner.State().Name()
	if _, ok := m.resident[newName]; !ok {
		if err := m.construct(ctx, newName, planKey{input: input, state: newName}, call); err != nil {
			m.transitioner.SetState(old)
			return nil, err
		}
	}

	m.def.logger.Debug("Transition", "machine", m.def.name, "from", oldName, "input", input.Name(), "to", newName)
	if h := m.def.hooks.OnTransition; h != nil {
		h(ctx, &domain.TransitionEvent{
			EventBase: domain.NewBase(domain.EventTransition, m.def.name),
			From:      oldName,
			Input:     input.Name(),
			To:        newName,
		})
	}

	if m.tracer != nil {
		if outTracer := m.tracer(old, input, m.transitioner.State()); outTracer != nil {
			for _, out := range outputs {
				outTracer(out)
			}
		}
	}

	obj, ok := m.resident[oldName]
	if !ok {
		return nil, fmt.Errorf("state %q has no resident object", oldName)
	}
	result, err := handler.invoke(ctx, obj, call)

	// A re-entrant call may have brought the instance back to the old state.
	if oldName != newName && m.State() != oldName && m.def.Ephemeral(oldName) {
		m.evict(ctx, oldName)
	}
	return result, err
}

func (m *Manager[C]) unhandled(ctx context.Context, old domain.State, input *domain.Symbol, cause error) error {
	oldName, errName := old.Name(), m.def.errorState
	m.transitioner.SetState(domain.Atom(errName))

	m.def.logger.Warn("Unhandled input", "machine", m.def.name, "state", oldName, "input", input.Name())
	if h := m.def.hooks.OnUnhandled; h != nil {
		h(ctx, &domain.TransitionEvent{
			EventBase: domain.NewBase(domain.EventUnhandled, m.def.name),
			From:      oldName,
			Input:     input.Name(),
			To:        errName,
		})
	}

	if _, ok := m.resident[errName]; !ok {
		if err := m.construct(ctx, errName, planKey{state: errName}, Args{}); err != nil {
			return errors.Join(&domain.UnhandledInputError{State: oldName, Input: input.Name(), Cause: cause}, err)
		}
	}
	if oldName != errName && m.def.Ephemeral(oldName) {
		m.evict(ctx, oldName)
	}
	return &domain.UnhandledInputError{State: oldName, Input: input.Name(), Cause: cause}
}

// construct builds the object of state following the plan compiled for key.
func (m *Manager[C]) construct(ctx context.Context, state string, key planKey, call Args) error {
	p, ok := m.def.plans[key]
	if !ok {
		return domain.Configf("construct state", "state %q cannot be entered through %s", state, key.input)
	}
	if err := p.err(); err != nil {
		return err
	}

	values := Values{m: make(map[string]any, len(p.bindings))}
	for _, b := range p.bindings {
		v, err := m.resolve(state, b, call)
		if err != nil {
			return err
		}
		values.m[b.param.name] = v
	}

	obj, err := m.def.states[state].build(values)
	if err != nil {
		return fmt.Errorf("construct state %q: %w", state, err)
	}
	m.resident[state] = obj

	m.def.logger.Debug("State built", "machine", m.def.name, "state", state)
	if h := m.def.hooks.OnStateBuilt; h != nil {
		h(ctx, &domain.StateEvent{EventBase: domain.NewBase(domain.EventStateBuilt, m.def.name), State: state})
	}
	return nil
}

func (m *Manager[C]) resolve(state string, b binding[C], call Args) (any, error) {
	switch b.kind {
	case sourceArg:
		return call.values[b.argIndex], nil
	case sourceCore:
		if b.param.wholeCore {
			return m.core, nil
		}
		return b.attr(m.core), nil
	case sourceSibling:
		if obj, ok := m.resident[b.param.ref]; ok {
			return obj, nil
		}
		if b.param.hasDefault {
			return b.param.def, nil
		}
		return nil, domain.Configf("construct state", "state %q: sibling %q of parameter %q is not resident", state, b.param.ref, b.param.name)
	case sourceSelf:
		return m, nil
	case sourceDefault:
		return b.param.def, nil
	}
	return nil, domain.Configf("construct state", "state %q: parameter %q has unresolved %s source", state, b.param.name, b.kind)
}

func (m *Manager[C]) evict(ctx context.Context, state string) {
	delete(m.resident, state)
	m.def.logger.Debug("State evicted", "machine", m.def.name, "state", state)
	if h := m.def.hooks.OnStateEvicted; h != nil {
		h(ctx, &domain.StateEvent{EventBase: domain.NewBase(domain.EventStateEvict, m.def.name), State: state})
	}
}
