package cluster

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/aretw0/automat/internal/logging"
	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
)

// DefaultErrorState is the name of the state entered on unhandled input when
// no error state is declared.
const DefaultErrorState = "Error"

// Factory builds the object of a state from its resolved parameters.
type Factory[T any] func(params Values) (T, error)

// Handler implements an input on the object of the state that receives it.
type Handler[T any] func(ctx context.Context, self T, args Args) (any, error)

// CommonFunc implements an input the same way in every state. It never
// changes the state.
type CommonFunc[C any] func(ctx context.Context, m *Manager[C], core C, args Args) (any, error)

// Option configures a Builder.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithName names the machine in logs and events.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the structured logger used by every instance.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// StateOption configures a state declaration.
type StateOption func(*stateEntry)

// Ephemeral discards the state's object whenever the machine leaves the state.
// Objects of other states live as long as the instance.
func Ephemeral() StateOption {
	return func(s *stateEntry) {
		s.ephemeral = true
	}
}

// Params declares the factory's constructor parameters.
func Params(params ...Param) StateOption {
	return func(s *stateEntry) {
		s.params = append(s.params, params...)
	}
}

// HandleOption configures a handler.
type HandleOption func(*handlerEntry)

// Enter sets the state the machine moves to after the handler is selected.
// Handlers stay in their own state by default.
func Enter(state string) HandleOption {
	return func(h *handlerEntry) {
		h.enter = state
	}
}

type stateEntry struct {
	name      string
	ephemeral bool
	params    []Param
	build     func(Values) (any, error)
	handlers  []*handlerEntry
}

type handlerEntry struct {
	input  *domain.Symbol
	enter  string
	invoke func(ctx context.Context, obj any, args Args) (any, error)
}

type commonEntry[C any] struct {
	input *domain.Symbol
	fn    CommonFunc[C]
}

// Builder declares a cluster machine over a shared core of type C.
// Declaration mistakes are collected and reported by Build.
type Builder[C any] struct {
	opts options

	inputs     map[string]*domain.Symbol
	attrs      map[string]func(C) any
	states     map[string]*stateEntry
	order      []string
	common     map[*domain.Symbol]commonEntry[C]
	initial    string
	errorState string

	errs  []error
	built bool
}

// NewBuilder creates an empty builder.
func NewBuilder[C any](opts ...Option) *Builder[C] {
	o := options{name: "machine"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return &Builder[C]{
		opts:   o,
		inputs: make(map[string]*domain.Symbol),
		attrs:  make(map[string]func(C) any),
		states: make(map[string]*stateEntry),
		common: make(map[*domain.Symbol]commonEntry[C]),
	}
}

// DeclareInput declares an input with the given parameter names.
func (b *Builder[C]) DeclareInput(name string, params ...string) (*domain.Symbol, error) {
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

// CoreAttr registers a readable attribute of the core for parameter resolution.
func (b *Builder[C]) CoreAttr(name string, get func(C) any) *Builder[C] {
	if err := b.sealed("core attribute"); err != nil {
		b.fail(err)
		return b
	}
	if get == nil {
		b.fail(domain.Configf("core attribute", "attribute %q has no getter", name))
		return b
	}
	b.attrs[name] = get
	return b
}

// Initial sets the initial state. The first defined state is used otherwise.
func (b *Builder[C]) Initial(state string) *Builder[C] {
	b.initial = state
	return b
}

// ErrorState names the state entered on unhandled input. Its handlers act as
// recovery transitions. Without it, a state named DefaultErrorState is used
// if defined, or an ephemeral one that handles nothing is added.
func (b *Builder[C]) ErrorState(state string) *Builder[C] {
	b.errorState = state
	return b
}

// Common handles input identically in every state.
func (b *Builder[C]) Common(input *domain.Symbol, fn CommonFunc[C]) *Builder[C] {
	switch {
	case b.built:
		b.fail(b.sealed("common input"))
	case !b.declared(input):
		b.fail(domain.Configf("common input", "input %s is not declared", input))
	case fn == nil:
		b.fail(domain.Configf("common input", "input %s has no implementation", input))
	default:
		if _, dup := b.common[input]; dup {
			b.fail(domain.Configf("common input", "input %s is already common", input))
			break
		}
		b.common[input] = commonEntry[C]{input: input, fn: fn}
	}
	return b
}

// StateDef is a declared state whose objects have type T.
type StateDef[C, T any] struct {
	b     *Builder[C]
	entry *stateEntry
}

// DefineState declares a state built by factory.
func DefineState[C, T any](b *Builder[C], name string, factory Factory[T], opts ...StateOption) *StateDef[C, T] {
	entry := &stateEntry{name: name}
	for _, opt := range opts {
		opt(entry)
	}
	def := &StateDef[C, T]{b: b, entry: entry}

	if err := b.sealed("define state"); err != nil {
		b.fail(err)
		return def
	}
	if factory == nil {
		b.fail(domain.Configf("define state", "state %q has no factory", name))
		return def
	}
	if _, dup := b.states[name]; dup {
		b.fail(domain.Configf("define state", "state %q defined twice", name))
		return def
	}
	seen := make(map[string]bool, len(entry.params))
	for _, p := range entry.params {
		if seen[p.name] {
			b.fail(domain.Configf("define state", "state %q declares parameter %q twice", name, p.name))
			return def
		}
		seen[p.name] = true
	}

	entry.build = func(v Values) (any, error) {
		return factory(v)
	}
	b.states[name] = entry
	b.order = append(b.order, name)
	return def
}

// Name returns the state name.
func (s *StateDef[C, T]) Name() string { return s.entry.name }

// Handle implements input in this state.
func (s *StateDef[C, T]) Handle(input *domain.Symbol, fn Handler[T], opts ...HandleOption) *StateDef[C, T] {
	if err := s.b.sealed("handle"); err != nil {
		s.b.fail(err)
		return s
	}
	if !s.b.declared(input) {
		s.b.fail(domain.Configf("handle", "state %q handles undeclared input %s", s.entry.name, input))
		return s
	}
	if fn == nil {
		s.b.fail(domain.Configf("handle", "state %q has no handler for %s", s.entry.name, input))
		return s
	}
	for _, h := range s.entry.handlers {
		if h.input == input {
			s.b.fail(domain.Configf("handle", "state %q handles %s twice", s.entry.name, input))
			return s
		}
	}

	h := &handlerEntry{
		input: input,
		enter: s.entry.name,
		invoke: func(ctx context.Context, obj any, args Args) (any, error) {
			return fn(ctx, obj.(T), args)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	s.entry.handlers = append(s.entry.handlers, h)
	return s
}

func (b *Builder[C]) declared(input *domain.Symbol) bool {
	return input != nil && b.inputs[input.Name()] == input
}

func (b *Builder[C]) fail(err error) {
	b.errs = append(b.errs, err)
}

// Err reports the declaration mistakes recorded so far, including those made
// after Build. Build returns the first of them.
func (b *Builder[C]) Err() error {
	return errors.Join(b.errs...)
}

// sealed rejects declarations made after Build.
func (b *Builder[C]) sealed(op string) error {
	if b.built {
		return domain.Configf(op, "machine %q is already built", b.opts.name)
	}
	return nil
}

type planKey struct {
	input *domain.Symbol
	state string
}

// Build validates the declarations, compiles the parameter plans and seals
// the transition table. A builder can only be built once.
func (b *Builder[C]) Build() (*Definition[C], error) {
	if b.built {
		return nil, domain.Configf("build", "you can only build machine %q once", b.opts.name)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.order) == 0 {
		return nil, domain.Configf("build", "machine %q defines no states", b.opts.name)
	}

	initial := b.initial
	if initial == "" {
		initial = b.order[0]
	}
	states := maps.Clone(b.states)
	order := slices.Clone(b.order)
	if _, ok := states[initial]; !ok {
		return nil, domain.Configf("build", "initial state %q is not defined", initial)
	}

	errorState := b.errorState
	if errorState == "" {
		errorState = DefaultErrorState
		if _, ok := states[errorState]; !ok {
			states[errorState] = &stateEntry{
				name:      errorState,
				ephemeral: true,
				build:     func(Values) (any, error) { return struct{}{}, nil },
			}
			order = append(order, errorState)
		}
	} else if _, ok := states[errorState]; !ok {
		return nil, domain.Configf("build", "error state %q is not defined", errorState)
	}

	def := &Definition[C]{
		name:       b.opts.name,
		logger:     b.opts.logger,
		hooks:      b.opts.hooks,
		inputs:     maps.Clone(b.inputs),
		states:     states,
		order:      order,
		common:     maps.Clone(b.common),
		errorState: errorState,
		handlers:   make(map[*domain.Symbol]*handlerEntry),
		plans:      make(map[planKey]*plan[C]),
	}

	table := automaton.NewBuilder()
	table.SetInitial(domain.Atom(initial))
	entered := make(map[string][]*plan[C])

	for _, name := range order {
		st := states[name]
		for _, h := range st.handlers {
			if _, ok := b.common[h.input]; ok {
				return nil, domain.Configf("build", "state %q handles common input %s", name, h.input)
			}
			target, ok := states[h.enter]
			if !ok {
				return nil, domain.Configf("build", "state %q enters undefined state %q on %s", name, h.enter, h.input)
			}
			out := domain.NewSymbol(domain.KindOutput, name+"."+h.input.Name(), h.input.Params()...)
			if err := table.AddTransition(domain.Atom(name), h.input, domain.Atom(h.enter), out); err != nil {
				return nil, err
			}
			def.handlers[out] = h

			// A state never builds itself on a self transition.
			if h.enter == name {
				continue
			}
			key := planKey{input: h.input, state: h.enter}
			if _, done := def.plans[key]; done {
				continue
			}
			p, err := b.compilePlan(states, target, h.input)
			if err != nil {
				return nil, err
			}
			def.plans[key] = p
			entered[h.enter] = append(entered[h.enter], p)
		}
	}

	for _, name := range []string{initial, errorState} {
		p, err := b.compilePlan(states, states[name], nil)
		if err != nil {
			return nil, err
		}
		if err := p.err(); err != nil {
			return nil, err
		}
		def.plans[planKey{state: name}] = p
		entered[name] = append(entered[name], p)
	}

	// A state that no edge can construct is a build error; otherwise a
	// missing argument is reported on the edge that needs it.
	for _, name := range order {
		plans, ok := entered[name]
		if !ok {
			continue
		}
		var firstErr error
		buildable := false
		for _, p := range plans {
			if err := p.err(); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			buildable = true
		}
		if !buildable {
			return nil, firstErr
		}
	}

	a, err := table.Build()
	if err != nil {
		return nil, err
	}
	def.automaton = a
	b.built = true
	return def, nil
}
