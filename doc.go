/*
Package automat builds deterministic finite state machines from declarations.

A machine is declared once and sealed into an immutable definition. Any number
of instances can then run from it, each holding only its current state:

  - pkg/automaton is the transition table and the Transitioner cursor;
  - pkg/flags models composite states as the product of independent flags;
  - pkg/dsl declares machines (flags or named states, inputs, outputs,
    transitions) and runs their instances;
  - pkg/cluster runs machines whose states carry live objects built on entry;
  - pkg/session persists instances through a ports.SnapshotStore.

Machines can also be written in YAML and loaded with Load or Parse:

	name: lightswitch
	flags:
	  - name: power
	    values: [off, on]
	    initial: off
	inputs:
	  - name: flip
	outputs:
	  - name: announce
	transitions:
	  - from: {power: off}
	    input: flip
	    to: {power: on}
	    outputs: [announce]

Outputs are bound by name from a registry:

	reg := registry.NewRegistry()
	reg.Register("announce", func(ctx context.Context, args ...any) (any, error) {
		return "lights on", nil
	})
	def, err := automat.Load("lightswitch.yaml", automat.WithRegistry(reg))
	if err != nil {
		log.Fatal(err)
	}
	light := def.NewInstance()
	res, err := light.InputByName(ctx, "flip")

The automat command renders, validates, describes, runs and serves definition
files.
*/
package automat
