package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/automat/internal/presentation/tui"
	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceWriter(t *testing.T) {
	var buf bytes.Buffer
	coin := domain.NewSymbol(domain.KindInput, "coin")
	unlock := domain.NewSymbol(domain.KindOutput, "unlock")

	tracer := tui.TraceWriter(&buf)
	outTracer := tracer(domain.Atom("Locked"), coin, domain.Atom("Unlocked"))
	require.NotNil(t, outTracer)
	outTracer(unlock)

	// A buffer is not a terminal, so no escape sequences are written.
	assert.Equal(t, "Locked --coin--> Unlocked\n    ! unlock\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), `| (_| | |_| |`)
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestDescribe(t *testing.T) {
	space, err := flags.NewSpace(flags.Flag{Name: "power", Domain: []string{"off", "on"}, Initial: "off", Serialized: "pwr"})
	require.NoError(t, err)

	flip := domain.NewSymbol(domain.KindInput, "flip", "force")
	click := domain.NewSymbol(domain.KindOutput, "click", "force")
	off := domain.Compose(map[string]string{"power": "off"})
	on := domain.Compose(map[string]string{"power": "on"})

	b := automaton.NewBuilder()
	b.SetInitial(off)
	require.NoError(t, b.AddTransition(off, flip, on, click))
	require.NoError(t, b.AddTransition(on, flip, off))
	a, err := b.Build()
	require.NoError(t, err)

	md := tui.Describe("light", a, space, []*domain.Symbol{flip})
	assert.Contains(t, md, "# light")
	assert.Contains(t, md, "Initial state: `{power:off}`")
	assert.Contains(t, md, "| power | off, on | off | pwr |")
	assert.Contains(t, md, "- `flip(force)`")
	assert.Contains(t, md, "| {power:off} | flip | {power:on} | click |")
	assert.Contains(t, md, "| {power:on} | flip | {power:off} | - |")
}

func TestStyle(t *testing.T) {
	assert.Contains(t, tui.Style("# Title\n\nbody", 0), "Title")
	assert.Contains(t, tui.Style("| From | To |\n|---|---|\n| a | b |", 40), "From")
}
