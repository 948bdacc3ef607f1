package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/automat/internal/cli"
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
inputs:
  - name: flip
  - name: dim
    params: [level]
outputs:
  - name: announce
  - name: level
    params: [level]
transitions:
  - from: {power: off}
    input: flip
    to: {power: on}
    outputs: [announce]
    collect: last
  - from: {power: on}
    input: flip
    to: {power: off}
  - from: {power: on}
    input: dim
    to: {power: on}
    outputs: [level]
    collect: last
`

var hexKey = strings.Repeat("ab", 32)

func writeDefinition(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lightswitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lightswitch), 0644))
	return path
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		args    []any
		wantErr bool
	}{
		{in: "flip", name: "flip"},
		{in: "  flip  ", name: "flip"},
		{in: "dim()", name: "dim", args: []any{}},
		{in: "dim(3)", name: "dim", args: []any{3}},
		{in: "set(3, high, true)", name: "set", args: []any{3, "high", true}},
		{in: "", wantErr: true},
		{in: "dim(3", wantErr: true},
		{in: "(3)", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, args, err := cli.ParseInput(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestRun_Scripted(t *testing.T) {
	var out bytes.Buffer
	err := cli.Run(context.Background(), cli.RunOptions{
		File:   writeDefinition(t),
		Inputs: []string{"flip", "dim(7)", "flip"},
	}, nil, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "{power:off} --flip--> {power:on}\n    ! announce\n= announce()\n")
	assert.Contains(t, got, "= level(7)\n")
	assert.Contains(t, got, "{power:on} --flip--> {power:off}\n")
	assert.True(t, strings.HasSuffix(got, ">>> Finished at {power:off}.\n"), got)
}

func TestRun_ScriptedStopsOnError(t *testing.T) {
	var out bytes.Buffer
	err := cli.Run(context.Background(), cli.RunOptions{
		File:   writeDefinition(t),
		Inputs: []string{"dim(1)", "flip"},
	}, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input "dim(1)"`)
	assert.NotContains(t, out.String(), "--flip-->")
}

func TestRun_Interactive(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("flip\n\nbogus\nflip\nquit\nflip\n")
	err := cli.Run(context.Background(), cli.RunOptions{
		File:   writeDefinition(t),
		Prompt: true,
	}, in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "> ")
	assert.Contains(t, got, "error: unknown input")
	assert.Equal(t, 2, strings.Count(got, "--flip-->"), "input after quit must not run")
	assert.Contains(t, got, ">>> Finished at {power:off}.")
}

func TestRun_CustomRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("announce", func(ctx context.Context, args ...any) (any, error) { return "lights on", nil })

	var out bytes.Buffer
	err := cli.Run(context.Background(), cli.RunOptions{
		File:     writeDefinition(t),
		Inputs:   []string{"flip"},
		Registry: reg,
	}, nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "= lights on\n")
}

func TestRun_Session(t *testing.T) {
	path := writeDefinition(t)
	store := cli.StoreOptions{Kind: "file", Dir: t.TempDir()}

	var first bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), cli.RunOptions{
		File: path, Inputs: []string{"flip"}, SessionID: "desk", Store: store,
	}, nil, &first))
	assert.Contains(t, first.String(), ">>> Session 'desk' at {power:off}.")

	var second bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), cli.RunOptions{
		File: path, Inputs: []string{"dim(2)"}, SessionID: "desk", Store: store,
	}, nil, &second))
	assert.Contains(t, second.String(), ">>> Session 'desk' at {power:on}.")
	assert.Contains(t, second.String(), "= level(2)")
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name       string
		opts       cli.StoreOptions
		wantLocker bool
		wantErr    string
	}{
		{name: "Default", opts: cli.StoreOptions{}},
		{name: "Memory", opts: cli.StoreOptions{Kind: "memory"}},
		{name: "File", opts: cli.StoreOptions{Kind: "file", Dir: t.TempDir()}},
		{name: "Redis", opts: cli.StoreOptions{Kind: "redis", RedisAddr: mr.Addr()}, wantLocker: true},
		{name: "Redis without address", opts: cli.StoreOptions{Kind: "redis"}, wantErr: "--redis-addr"},
		{name: "Unknown", opts: cli.StoreOptions{Kind: "etcd"}, wantErr: `unknown store "etcd"`},
		{name: "Encrypted", opts: cli.StoreOptions{Kind: "memory", EncryptionKey: hexKey}},
		{name: "Bad key", opts: cli.StoreOptions{EncryptionKey: "secret"}, wantErr: "encryption key"},
		{name: "Bad fallback", opts: cli.StoreOptions{EncryptionKey: hexKey, FallbackKeys: []string{"old"}}, wantErr: "fallback key 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := cli.OpenStore(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer p.Close()
			assert.NotNil(t, p.Store)
			assert.Equal(t, tt.wantLocker, p.Locker != nil)

			ids, err := p.Store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestParseKey(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, 32)

	key, err := cli.ParseKey(hexKey)
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	key, err = cli.ParseKey(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	_, err = cli.ParseKey("abab")
	assert.Error(t, err)
}

func TestRun_EncryptedSession(t *testing.T) {
	path := writeDefinition(t)
	dir := t.TempDir()
	store := cli.StoreOptions{Kind: "file", Dir: dir, EncryptionKey: hexKey}

	var out bytes.Buffer
	require.NoError(t, cli.Run(context.Background(), cli.RunOptions{
		File: path, Inputs: []string{"flip"}, SessionID: "vault", Store: store,
	}, nil, &out))

	raw, err := os.ReadFile(filepath.Join(dir, "vault.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "__encrypted__")
	assert.NotContains(t, string(raw), "power")

	out.Reset()
	require.NoError(t, cli.Run(context.Background(), cli.RunOptions{
		File: path, SessionID: "vault", Store: store,
	}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), ">>> Session 'vault' at {power:on}.")
}

func TestEchoOutput(t *testing.T) {
	res, err := cli.EchoOutput("announce")(context.Background(), 1, "x")
	require.NoError(t, err)
	assert.Equal(t, "announce(1, x)", res)
}
