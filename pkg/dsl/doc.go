/*
Package dsl provides an explicit builder for declaring state machines in Go.

Vocabulary comes first (flags or atomic states, inputs, outputs), then
transitions. Every declaration is checked as it is made: ambiguous
transitions, invalid states, flag key mismatches and input/output signature
mismatches are reported by the Declare call itself. Build seals the machine
into an immutable Definition.

Example usage:

	b := dsl.New("lightswitch")
	_ = b.DeclareFlag(flags.Flag{Name: "power", Domain: []string{"off", "on"}, Initial: "off"})

	flip, _ := b.DeclareInput("flip")
	announce, _ := b.DeclareOutput("announce", func(ctx context.Context, args ...any) (any, error) {
		return "click", nil
	})

	off := domain.Compose(map[string]string{"power": "off"})
	on := domain.Compose(map[string]string{"power": "on"})
	_ = b.DeclareTransition(off, flip, on, []*domain.Symbol{announce}, dsl.WithCollector(dsl.CollectLast))
	_ = b.DeclareTransition(on, flip, off, nil)

	def, _ := b.Build()
	light := def.NewInstance()
	sound, err := light.Input(ctx, flip) // "click"
*/
package dsl
