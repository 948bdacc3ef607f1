/*
Package automaton implements the transition table and the cursor that walks it.

A Builder collects transitions and rejects ambiguous ones eagerly: two
transitions for the same input may not start from overlapping states. Build
seals the table into an immutable Automaton, which answers OutputForInput
with a linear scan.

A Transitioner holds one current state per machine instance. Transition
advances it and returns the output symbols to run; it never runs them, and it
never decides what happens when no transition matches. That policy belongs to
the layer above (see package cluster).

	b := automaton.NewBuilder()
	b.SetInitial(domain.Atom("Locked"))
	_ = b.AddTransition(domain.Atom("Locked"), farePaid, domain.Atom("Unlocked"), disengage)
	_ = b.AddTransition(domain.Atom("Unlocked"), armTurned, domain.Atom("Locked"), engage)
	a, _ := b.Build()

	t := automaton.NewTransitioner(a)
	outputs, _, err := t.Transition(farePaid)
*/
package automaton
