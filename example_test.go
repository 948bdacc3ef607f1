package automat_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/automat"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/registry"
)

// ExampleParse compiles a YAML definition whose output is bound from a registry.
func ExampleParse() {
	reg := registry.NewRegistry()
	reg.Register("announce", func(ctx context.Context, args ...any) (any, error) {
		return "lights on", nil
	})

	def, err := automat.Parse([]byte(`
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
    collect: last
  - from: {power: on}
    input: flip
    to: {power: off}
`), automat.WithRegistry(reg))
	if err != nil {
		log.Fatal(err)
	}

	light := def.NewInstance()
	res, err := light.InputByName(context.Background(), "flip")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res, light.State())

	_, _ = light.InputByName(context.Background(), "flip")
	fmt.Println(light.State())
	// Output:
	// lights on {power:on}
	// {power:off}
}

// Example_builder declares a turnstile with named states and restores an
// instance from its snapshot.
func Example_builder() {
	b := dsl.New("turnstile")
	b.DeclareState("Locked").Initial().Serialized("locked")
	b.DeclareState("Unlocked").Serialized("unlocked")

	coin, _ := b.DeclareInput("coin")
	push, _ := b.DeclareInput("push")
	unlock, _ := b.DeclareOutput("unlock", func(ctx context.Context, args ...any) (any, error) {
		return "clunk", nil
	})

	locked, unlocked := domain.Atom("Locked"), domain.Atom("Unlocked")
	_ = b.DeclareTransition(locked, coin, unlocked, []*domain.Symbol{unlock}, dsl.WithCollector(dsl.CollectFirst))
	_ = b.DeclareTransition(unlocked, push, locked, nil)

	def, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	gate := def.NewInstance()
	res, _ := gate.Input(context.Background(), coin)
	snap, _ := gate.Snapshot()
	fmt.Println(res, snap)

	again, _ := def.Restore(snap)
	_, err = again.Input(context.Background(), coin)
	fmt.Println(again.State(), err)
	// Output:
	// clunk map[state:unlocked]
	// Unlocked no transition for coin in Unlocked
}
