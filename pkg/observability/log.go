package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
)

// LogTracer logs transitions at Info and fired outputs at Debug.
func LogTracer(logger *slog.Logger, machine string) automaton.Tracer {
	return func(old domain.State, input *domain.Symbol, new domain.State) automaton.OutputTracer {
		logger.Info("transition",
			"machine", machine,
			"from", old.String(),
			"input", input.Name(),
			"to", new.String(),
		)
		return func(out *domain.Symbol) {
			logger.Debug("output", "machine", machine, "output", out.Name())
		}
	}
}

// LogHooks logs cluster lifecycle events.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, string(e.Type), "machine", e.Machine, "from", e.From, "input", e.Input, "to", e.To)
		},
		OnUnhandled: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.WarnContext(ctx, string(e.Type), "machine", e.Machine, "state", e.From, "input", e.Input)
		},
		OnStateBuilt: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, string(e.Type), "machine", e.Machine, "state", e.State)
		},
		OnStateEvicted: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, string(e.Type), "machine", e.Machine, "state", e.State)
		},
	}
}

// ChainTracers calls every non-nil tracer in order.
func ChainTracers(tracers ...automaton.Tracer) automaton.Tracer {
	var active []automaton.Tracer
	for _, t := range tracers {
		if t != nil {
			active = append(active, t)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(old domain.State, input *domain.Symbol, new domain.State) automaton.OutputTracer {
		var outs []automaton.OutputTracer
		for _, t := range active {
			if ot := t(old, input, new); ot != nil {
				outs = append(outs, ot)
			}
		}
		if len(outs) == 0 {
			return nil
		}
		return func(out *domain.Symbol) {
			for _, ot := range outs {
				ot(out)
			}
		}
	}
}

// MergeHooks calls the callbacks of every hook set in order.
func MergeHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks
	for _, h := range sets {
		merged.OnTransition = chain(merged.OnTransition, h.OnTransition)
		merged.OnUnhandled = chain(merged.OnUnhandled, h.OnUnhandled)
		merged.OnStateBuilt = chain(merged.OnStateBuilt, h.OnStateBuilt)
		merged.OnStateEvicted = chain(merged.OnStateEvicted, h.OnStateEvicted)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
