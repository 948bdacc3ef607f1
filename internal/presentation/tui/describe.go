package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/flags"
)

// Describe renders a machine as markdown: its flags (if any), its inputs and
// its transition table.
func Describe(name string, a *automaton.Automaton, space *flags.Space, inputs []*domain.Symbol) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	fmt.Fprintf(&sb, "Initial state: `%s`\n\n", a.Initial())

	if space != nil {
		sb.WriteString("## Flags\n\n| Flag | Values | Initial | Serialized as |\n|---|---|---|---|\n")
		for _, f := range space.Flags() {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", f.Name, strings.Join(f.Domain, ", "), f.Initial, f.SerializedName())
		}
		sb.WriteString("\n")
	}

	if len(inputs) > 0 {
		sb.WriteString("## Inputs\n\n")
		for _, in := range inputs {
			fmt.Fprintf(&sb, "- `%s%s`\n", in.Name(), in.Signature())
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Transitions\n\n| From | Input | To | Outputs |\n|---|---|---|---|\n")
	for _, t := range a.Transitions() {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			cell(t.From.String()), cell(t.Input.Name()), cell(t.To.String()), cell(strings.Join(t.OutputNames(), ", ")))
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
