package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/aretw0/automat/internal/logging"
	"github.com/aretw0/automat/internal/presentation/tui"
	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/observability"
	"github.com/aretw0/automat/pkg/registry"
	"github.com/aretw0/automat/pkg/session"
)

// RunOptions configures Run.
type RunOptions struct {
	File string
	// Inputs are fed in order; Run stops at the first failure. Without them,
	// Run reads one input per line until EOF, "exit" or "quit".
	Inputs []string
	// SessionID persists the instance in Store across runs.
	SessionID string
	Store     StoreOptions
	Registry  *registry.Registry
	Logger    *slog.Logger
	// Prompt prints "> " before reading each line.
	Prompt bool
}

type stepFunc func(ctx context.Context, name string, args []any) (result any, state string, err error)

// Run drives one instance of the machine in opts.File, tracing every
// transition to out.
func Run(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	def, err := LoadDefinition(opts.File, opts.Registry)
	if err != nil {
		return err
	}
	tracer := observability.ChainTracers(tui.TraceWriter(out), observability.LogTracer(logger, def.Name()))

	var (
		step  stepFunc
		state string
	)
	if opts.SessionID == "" {
		inst := def.NewInstance(automaton.WithTracer(tracer))
		state = inst.State().String()
		step = func(ctx context.Context, name string, args []any) (any, string, error) {
			res, err := inst.InputByName(ctx, name, args...)
			return res, inst.State().String(), err
		}
	} else {
		p, err := OpenStore(opts.Store)
		if err != nil {
			return err
		}
		defer p.Close()

		sopts := []session.Option{session.WithTracer(tracer), session.WithLogger(logger)}
		if p.Locker != nil {
			sopts = append(sopts, session.WithLocker(p.Locker))
		}
		mgr := session.NewManager(def, p.Store, sopts...)
		snap, err := mgr.Start(ctx, opts.SessionID)
		if err != nil {
			return err
		}
		state = render(def, snap.State)
		printSystemMessage(out, "Session '%s' at %s.", opts.SessionID, state)

		step = func(ctx context.Context, name string, args []any) (any, string, error) {
			res, snap, err := mgr.Input(ctx, opts.SessionID, name, args...)
			if snap == nil {
				return res, state, err
			}
			return res, render(def, snap.State), err
		}
	}

	scripted := len(opts.Inputs) > 0
	lines := opts.Inputs
	var scanner *bufio.Scanner
	if !scripted {
		scanner = bufio.NewScanner(in)
	}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		var line string
		if scripted {
			if i >= len(lines) {
				break
			}
			line = lines[i]
		} else {
			if opts.Prompt {
				fmt.Fprint(out, "> ")
			}
			if !scanner.Scan() {
				break
			}
			line = strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}
		}

		name, args, err := ParseInput(line)
		if err == nil {
			var res any
			res, state, err = step(ctx, name, args)
			if err == nil {
				if s, ok := showResult(res); ok {
					fmt.Fprintf(out, "= %s\n", s)
				}
				continue
			}
		}
		if scripted {
			return fmt.Errorf("input %q: %w", line, err)
		}
		fmt.Fprintf(out, "error: %v\n", err)
	}
	if scanner != nil && scanner.Err() != nil {
		return scanner.Err()
	}

	printSystemMessage(out, "Finished at %s.", state)
	return nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, ">>> %s\n", fmt.Sprintf(format, args...))
}

func render(def *dsl.Definition, snapshot map[string]string) string {
	s, err := def.Unserialize(snapshot)
	if err != nil {
		return fmt.Sprint(snapshot)
	}
	return s.String()
}

// showResult hides the empty results of transitions without outputs.
func showResult(res any) (string, bool) {
	if res == nil {
		return "", false
	}
	if v := reflect.ValueOf(res); v.Kind() == reflect.Slice && v.Len() == 0 {
		return "", false
	}
	return fmt.Sprint(res), true
}
