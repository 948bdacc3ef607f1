package compiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/automat/internal/compiler"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightswitch = `
name: lightswitch
flags:
  - name: power
    values: [off, on]
    initial: off
    serialized: p
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
`

const turnstile = `
name: turnstile
states:
  - name: Locked
    initial: true
    serialized: locked
  - name: Unlocked
inputs:
  - name: coin
    params: [amount]
  - name: push
outputs:
  - name: count
    params: [amount]
transitions:
  - from: {state: Locked}
    input: coin
    to: {state: Unlocked}
    outputs: [count]
  - from: {state: Unlocked}
    input: push
    to: {state: Locked}
`

func TestCompile_Composite(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("announce", func(ctx context.Context, args ...any) (any, error) {
		return "lights on", nil
	})
	c := compiler.New(compiler.WithRegistry(reg))

	def, err := c.CompileBytes([]byte(lightswitch))
	require.NoError(t, err)
	assert.Equal(t, "lightswitch", def.Name())

	inst := def.NewInstance()
	res, err := inst.InputByName(context.Background(), "flip")
	require.NoError(t, err)
	assert.Equal(t, "lights on", res)

	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p": "on"}, snap)

	// The second transition uses the default collector.
	res, err = inst.InputByName(context.Background(), "flip")
	require.NoError(t, err)
	assert.Equal(t, []any{}, res)
}

func TestCompile_Atomic(t *testing.T) {
	var seen []any
	reg := registry.NewRegistry()
	reg.Register("count", func(ctx context.Context, args ...any) (any, error) {
		seen = append(seen, args...)
		return len(seen), nil
	})
	def, err := compiler.New(compiler.WithRegistry(reg)).CompileBytes([]byte(turnstile))
	require.NoError(t, err)

	inst := def.NewInstance()
	_, err = inst.InputByName(context.Background(), "coin", 25)
	require.NoError(t, err)
	assert.Equal(t, "Unlocked", inst.State().Name())
	assert.Equal(t, []any{25}, seen)

	_, err = inst.InputByName(context.Background(), "push")
	require.NoError(t, err)
	snap, err := inst.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "locked", snap["state"])
}

func TestCompile_WeakTyping(t *testing.T) {
	src := `
name: dial
flags:
  - name: level
    values: [1, 2]
    initial: 1
inputs:
  - name: turn
transitions:
  - from: {level: 1}
    input: turn
    to: {level: 2}
`
	def, err := compiler.New().CompileBytes([]byte(src))
	require.NoError(t, err)

	inst := def.NewInstance()
	_, err = inst.InputByName(context.Background(), "turn")
	require.NoError(t, err)
	v, ok := inst.State().Get("level")
	require.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestCompile_Fallback(t *testing.T) {
	echo := func(name string) registry.Func {
		return func(ctx context.Context, args ...any) (any, error) { return name, nil }
	}
	def, err := compiler.New(compiler.WithFallback(echo)).CompileBytes([]byte(lightswitch))
	require.NoError(t, err)

	res, err := def.NewInstance().InputByName(context.Background(), "flip")
	require.NoError(t, err)
	assert.Equal(t, "announce", res)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "Unbound output",
			src:     lightswitch,
			wantErr: `output "announce" is not registered`,
		},
		{
			name: "Flag with a single value",
			src: `
name: broken
flags:
  - name: power
    values: [off]
    initial: off
transitions:
  - {from: {power: off}, input: flip, to: {power: off}}
`,
			wantErr: "flags[0].values fails min=2",
		},
		{
			name:    "Missing transitions",
			src:     "name: empty\n",
			wantErr: "transitions fails required",
		},
		{
			name: "Unknown key",
			src: `
name: typo
transitons: []
`,
			wantErr: "transitons",
		},
		{
			name: "Unknown collector",
			src: `
name: bad
states: [{name: A, initial: true}]
inputs: [{name: go}]
transitions:
  - {from: {state: A}, input: go, to: {state: A}, collect: sum}
`,
			wantErr: "collect fails oneof",
		},
		{
			name: "Undeclared input",
			src: `
name: bad
states: [{name: A, initial: true}]
transitions:
  - {from: {state: A}, input: go, to: {state: A}}
`,
			wantErr: `input "go" is not declared`,
		},
		{
			name: "Flags and states",
			src: `
name: both
flags: [{name: power, values: [off, on], initial: off}]
states: [{name: A, initial: true}]
inputs: [{name: go}]
transitions:
  - {from: {state: A}, input: go, to: {state: A}}
`,
			wantErr: "declares both flags and states",
		},
		{
			name: "Atomic state without state key",
			src: `
name: bad
states: [{name: A, initial: true}]
inputs: [{name: go}]
transitions:
  - {from: {name: A}, input: go, to: {state: A}}
`,
			wantErr: "transitions[0].from",
		},
		{
			name: "Undeclared atomic state",
			src: `
name: bad
states: [{name: A, initial: true}]
inputs: [{name: go}]
transitions:
  - {from: {state: A}, input: go, to: {state: B}}
`,
			wantErr: `state "B" is not declared`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.New().CompileBytes([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := compiler.New().Parse([]byte("name: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse definition")
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(turnstile), 0644))

	echo := func(name string) registry.Func {
		return func(ctx context.Context, args ...any) (any, error) { return name, nil }
	}
	def, err := compiler.New(compiler.WithFallback(echo)).CompileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "turnstile", def.Name())

	_, err = compiler.New().CompileFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
