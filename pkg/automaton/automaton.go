package automaton

import (
	"sort"

	"github.com/aretw0/automat/pkg/domain"
)

// Builder collects transitions during the declaration phase.
// Every insertion is checked for ambiguity against what is already declared.
type Builder struct {
	transitions []domain.Transition
	initial     domain.State
	hasInitial  bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetInitial declares the initial state of the automaton.
func (b *Builder) SetInitial(s domain.State) {
	b.initial = s
	b.hasInitial = true
}

// AddTransition inserts one transition.
// It fails if a transition for the same input already matches from a state
// overlapping inState (one of them a subset of the other).
func (b *Builder) AddTransition(inState domain.State, input *domain.Symbol, outState domain.State, outputs ...*domain.Symbol) error {
	return b.AddTransitions(domain.Transition{From: inState, Input: input, To: outState, Outputs: outputs})
}

// AddTransitions inserts a batch atomically: either every transition is
// accepted or none is. The batch is also checked against itself.
func (b *Builder) AddTransitions(batch ...domain.Transition) error {
	for i, t := range batch {
		if t.Input == nil {
			return domain.Configf("add transition", "transition from %s has no input symbol", t.From)
		}
		if err := conflict(b.transitions, t); err != nil {
			return err
		}
		if err := conflict(batch[:i], t); err != nil {
			return err
		}
	}
	for _, t := range batch {
		outputs := make([]*domain.Symbol, len(t.Outputs))
		copy(outputs, t.Outputs)
		t.Outputs = outputs
		b.transitions = append(b.transitions, t)
	}
	return nil
}

func conflict(existing []domain.Transition, t domain.Transition) error {
	for _, e := range existing {
		if e.Input == t.Input && e.From.Overlaps(t.From) {
			return domain.Configf("add transition",
				"ambiguous transition for input %s: %s overlaps already declared %s",
				t.Input, t.From, e.From)
		}
	}
	return nil
}

// Len returns the number of declared transitions.
func (b *Builder) Len() int { return len(b.transitions) }

// Build seals the declared transitions into an immutable Automaton.
// The builder stays usable; later additions do not affect built automata.
func (b *Builder) Build() (*Automaton, error) {
	if !b.hasInitial {
		return nil, domain.Configf("build automaton", "no initial state declared")
	}
	ts := make([]domain.Transition, len(b.transitions))
	copy(ts, b.transitions)
	return &Automaton{transitions: ts, initial: b.initial}, nil
}

// Automaton is an immutable transition table.
//
// Lookups are a linear scan over the declared transitions. Machines are
// expected to hold tens of transitions, so the scan keeps declaration simple
// and lookups easy to audit.
type Automaton struct {
	transitions []domain.Transition
	initial     domain.State
}

// Initial returns the declared initial state.
func (a *Automaton) Initial() domain.State { return a.initial }

// OutputForInput finds the transition whose from-state is a subset of state
// and whose input is input. It returns a *domain.NoTransitionError if none does.
func (a *Automaton) OutputForInput(state domain.State, input *domain.Symbol) (domain.State, []*domain.Symbol, error) {
	for _, t := range a.transitions {
		if t.Input == input && t.From.SubsetOf(state) {
			outputs := make([]*domain.Symbol, len(t.Outputs))
			copy(outputs, t.Outputs)
			return t.To, outputs, nil
		}
	}
	return domain.State{}, nil, &domain.NoTransitionError{State: state, Input: input}
}

// Transitions returns a copy of every declared transition, in declaration order.
func (a *Automaton) Transitions() []domain.Transition {
	out := make([]domain.Transition, len(a.transitions))
	copy(out, a.transitions)
	return out
}

// States returns every state mentioned by a transition plus the initial state,
// sorted by rendering.
func (a *Automaton) States() []domain.State {
	seen := map[string]domain.State{a.initial.Key(): a.initial}
	for _, t := range a.transitions {
		seen[t.From.Key()] = t.From
		seen[t.To.Key()] = t.To
	}
	states := make([]domain.State, 0, len(seen))
	for _, s := range seen {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].String() < states[j].String() })
	return states
}

// InputAlphabet returns every input symbol accepted by some transition.
func (a *Automaton) InputAlphabet() []*domain.Symbol {
	var symbols []*domain.Symbol
	for _, t := range a.transitions {
		symbols = append(symbols, t.Input)
	}
	return uniqueSymbols(symbols)
}

// OutputAlphabet returns every output symbol some transition can produce.
func (a *Automaton) OutputAlphabet() []*domain.Symbol {
	var symbols []*domain.Symbol
	for _, t := range a.transitions {
		symbols = append(symbols, t.Outputs...)
	}
	return uniqueSymbols(symbols)
}

// uniqueSymbols dedupes by identity and orders by name, then first appearance.
func uniqueSymbols(symbols []*domain.Symbol) []*domain.Symbol {
	seen := make(map[*domain.Symbol]bool, len(symbols))
	out := make([]*domain.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
