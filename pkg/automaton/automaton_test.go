package automaton_test

import (
	"testing"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type turnstile struct {
	farePaid, armTurned *domain.Symbol
	engage, disengage   *domain.Symbol
	locked, unlocked    domain.State
}

func newTurnstile(t *testing.T) (*turnstile, *automaton.Automaton) {
	t.Helper()
	ts := &turnstile{
		farePaid:  domain.NewSymbol(domain.KindInput, "fare_paid"),
		armTurned: domain.NewSymbol(domain.KindInput, "arm_turned"),
		engage:    domain.NewSymbol(domain.KindOutput, "engage"),
		disengage: domain.NewSymbol(domain.KindOutput, "disengage"),
		locked:    domain.Atom("Locked"),
		unlocked:  domain.Atom("Unlocked"),
	}

	b := automaton.NewBuilder()
	b.SetInitial(ts.locked)
	require.NoError(t, b.AddTransition(ts.locked, ts.farePaid, ts.unlocked, ts.disengage))
	require.NoError(t, b.AddTransition(ts.unlocked, ts.armTurned, ts.locked, ts.engage))
	require.NoError(t, b.AddTransition(ts.locked, ts.armTurned, ts.locked))

	a, err := b.Build()
	require.NoError(t, err)
	return ts, a
}

func TestAutomaton_OutputForInput(t *testing.T) {
	ts, a := newTurnstile(t)

	to, outputs, err := a.OutputForInput(ts.locked, ts.farePaid)
	require.NoError(t, err)
	assert.True(t, to.Equal(ts.unlocked))
	assert.Equal(t, []*domain.Symbol{ts.disengage}, outputs)

	// Determinism: repeated lookups give the same answer.
	for i := 0; i < 5; i++ {
		again, outs, err := a.OutputForInput(ts.locked, ts.farePaid)
		require.NoError(t, err)
		assert.True(t, again.Equal(to))
		assert.Equal(t, outputs, outs)
	}

	// Mutating the returned slice does not leak into the table.
	outputs[0] = nil
	_, outs, _ := a.OutputForInput(ts.locked, ts.farePaid)
	assert.Same(t, ts.disengage, outs[0])
}

func TestAutomaton_NoTransition(t *testing.T) {
	ts, a := newTurnstile(t)

	_, _, err := a.OutputForInput(ts.unlocked, ts.farePaid)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTransition)

	var nt *domain.NoTransitionError
	require.ErrorAs(t, err, &nt)
	assert.Same(t, ts.farePaid, nt.Input)
	assert.True(t, nt.State.Equal(ts.unlocked))
}

func TestAutomaton_SymbolIdentity(t *testing.T) {
	ts, a := newTurnstile(t)

	lookalike := domain.NewSymbol(domain.KindInput, "fare_paid")
	_, _, err := a.OutputForInput(ts.locked, lookalike)
	assert.ErrorIs(t, err, domain.ErrNoTransition)
}

func TestBuilder_RejectsAmbiguity(t *testing.T) {
	in := domain.NewSymbol(domain.KindInput, "go")
	other := domain.NewSymbol(domain.KindInput, "stop")

	full := domain.Compose(map[string]string{"power": "on", "color": "red"})
	partial := domain.Compose(map[string]string{"power": "on"})
	disjoint := domain.Compose(map[string]string{"power": "off"})

	tests := []struct {
		name    string
		first   domain.Transition
		second  domain.Transition
		wantErr bool
	}{
		{"identical", domain.Transition{From: full, Input: in, To: full}, domain.Transition{From: full, Input: in, To: full}, true},
		{"subset after superset", domain.Transition{From: full, Input: in, To: full}, domain.Transition{From: partial, Input: in, To: partial}, true},
		{"superset after subset", domain.Transition{From: partial, Input: in, To: partial}, domain.Transition{From: full, Input: in, To: full}, true},
		{"disjoint states", domain.Transition{From: partial, Input: in, To: partial}, domain.Transition{From: disjoint, Input: in, To: disjoint}, false},
		{"different inputs", domain.Transition{From: full, Input: in, To: full}, domain.Transition{From: full, Input: other, To: full}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := automaton.NewBuilder()
			require.NoError(t, b.AddTransitions(tt.first))
			err := b.AddTransitions(tt.second)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrConfiguration)
				assert.Equal(t, 1, b.Len())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 2, b.Len())
			}
		})
	}
}

func TestBuilder_BatchIsAtomic(t *testing.T) {
	in := domain.NewSymbol(domain.KindInput, "go")
	a, b := domain.Atom("A"), domain.Atom("B")

	builder := automaton.NewBuilder()
	require.NoError(t, builder.AddTransition(b, in, a))

	err := builder.AddTransitions(
		domain.Transition{From: a, Input: in, To: b},
		domain.Transition{From: b, Input: in, To: a}, // collides with the existing one
	)
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 1, builder.Len(), "no transition of a failed batch is kept")

	err = builder.AddTransitions(
		domain.Transition{From: a, Input: in, To: b},
		domain.Transition{From: a, Input: in, To: a}, // collides within the batch
	)
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 1, builder.Len())
}

func TestBuilder_RequiresInitial(t *testing.T) {
	_, err := automaton.NewBuilder().Build()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuilder_BuildIsIsolated(t *testing.T) {
	in := domain.NewSymbol(domain.KindInput, "go")
	b := automaton.NewBuilder()
	b.SetInitial(domain.Atom("A"))
	require.NoError(t, b.AddTransition(domain.Atom("A"), in, domain.Atom("B")))

	a, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, b.AddTransition(domain.Atom("B"), in, domain.Atom("A")))

	assert.Len(t, a.Transitions(), 1)
	_, _, err = a.OutputForInput(domain.Atom("B"), in)
	assert.ErrorIs(t, err, domain.ErrNoTransition)
}

func TestAutomaton_Alphabets(t *testing.T) {
	ts, a := newTurnstile(t)

	assert.Equal(t, []*domain.Symbol{ts.armTurned, ts.farePaid}, a.InputAlphabet())
	assert.Equal(t, []*domain.Symbol{ts.disengage, ts.engage}, a.OutputAlphabet())

	states := a.States()
	require.Len(t, states, 2)
	assert.Equal(t, "Locked", states[0].String())
	assert.Equal(t, "Unlocked", states[1].String())
	assert.True(t, a.Initial().Equal(ts.locked))
}
