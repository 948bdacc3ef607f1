package automaton

import "github.com/aretw0/automat/pkg/domain"

// OutputTracer is called once per output, right before the output runs.
type OutputTracer func(output *domain.Symbol)

// Tracer observes every transition. It may return an OutputTracer to also
// observe the outputs fired by that transition, or nil to observe inputs only.
type Tracer func(old domain.State, input *domain.Symbol, new domain.State) OutputTracer

// Transitioner pairs an Automaton with a current state.
// It is not safe for concurrent use; callers serialize access per instance.
type Transitioner struct {
	automaton *Automaton
	state     domain.State
	tracer    Tracer
}

// TransitionerOption configures a Transitioner.
type TransitionerOption func(*Transitioner)

// WithInitialState starts the cursor somewhere other than the automaton's initial state.
func WithInitialState(s domain.State) TransitionerOption {
	return func(t *Transitioner) {
		t.state = s
	}
}

// WithTracer installs a tracer from the start.
func WithTracer(tracer Tracer) TransitionerOption {
	return func(t *Transitioner) {
		t.tracer = tracer
	}
}

// NewTransitioner creates a cursor positioned at the automaton's initial state.
func NewTransitioner(a *Automaton, opts ...TransitionerOption) *Transitioner {
	t := &Transitioner{
		automaton: a,
		state:     a.Initial(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Automaton returns the table this cursor evaluates against.
func (t *Transitioner) Automaton() *Automaton { return t.automaton }

// State returns the current state.
func (t *Transitioner) State() domain.State { return t.state }

// SetState moves the cursor without evaluating any transition.
// Used to enter an error state and to restore snapshots.
func (t *Transitioner) SetState(s domain.State) { t.state = s }

// SetTrace replaces the tracer; nil disables tracing.
func (t *Transitioner) SetTrace(tracer Tracer) { t.tracer = tracer }

// Transition evaluates one input. On success the current state advances and
// the output symbols are returned for the caller to run, together with the
// per-output tracer (nil when not tracing). A *domain.NoTransitionError is
// returned unchanged and leaves the state where it was.
func (t *Transitioner) Transition(input *domain.Symbol) ([]*domain.Symbol, OutputTracer, error) {
	outState, outputs, err := t.automaton.OutputForInput(t.state, input)
	if err != nil {
		return nil, nil, err
	}
	old := t.state
	t.state = outState

	var outTracer OutputTracer
	if t.tracer != nil {
		outTracer = t.tracer(old, input, outState)
	}
	return outputs, outTracer, nil
}
