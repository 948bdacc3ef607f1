package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/muesli/termenv"
)

// TraceWriter returns a tracer that prints each transition and the outputs it
// fires to w.
//
//	{power:off} --flip--> {power:on}
//	    ! notify
func TraceWriter(w io.Writer) automaton.Tracer {
	out := termenv.NewOutput(w)
	state := func(s domain.State) termenv.Style {
		return out.String(s.String()).Bold()
	}
	return func(old domain.State, input *domain.Symbol, next domain.State) automaton.OutputTracer {
		fmt.Fprintf(w, "%s %s %s\n",
			state(old),
			out.String("--"+input.Name()+"-->").Foreground(out.Color("#a78bfa")),
			state(next))
		return func(output *domain.Symbol) {
			fmt.Fprintf(w, "    %s\n", out.String("! "+output.Name()).Foreground(out.Color("#f472b6")))
		}
	}
}
