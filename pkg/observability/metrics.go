package observability

import (
	"context"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the runtime.
type Metrics struct {
	transitions *prometheus.CounterVec
	outputs     *prometheus.CounterVec
	unhandled   *prometheus.CounterVec
	built       *prometheus.CounterVec
	evicted     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automat",
			Name:      "transitions_total",
			Help:      "Transitions taken.",
		}, []string{"machine", "from", "input", "to"}),
		outputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automat",
			Name:      "outputs_fired_total",
			Help:      "Outputs fired by transitions.",
		}, []string{"machine", "output"}),
		unhandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automat",
			Name:      "unhandled_inputs_total",
			Help:      "Inputs that sent an instance to its error state.",
		}, []string{"machine", "state", "input"}),
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automat",
			Name:      "state_objects_built_total",
			Help:      "State objects constructed.",
		}, []string{"machine", "state"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "automat",
			Name:      "state_objects_evicted_total",
			Help:      "Ephemeral state objects discarded.",
		}, []string{"machine", "state"}),
	}

	for _, c := range []prometheus.Collector{m.transitions, m.outputs, m.unhandled, m.built, m.evicted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Tracer counts the transitions and outputs of machine.
func (m *Metrics) Tracer(machine string) automaton.Tracer {
	return func(old domain.State, input *domain.Symbol, new domain.State) automaton.OutputTracer {
		m.transitions.WithLabelValues(machine, old.String(), input.Name(), new.String()).Inc()
		return func(out *domain.Symbol) {
			m.outputs.WithLabelValues(machine, out.Name()).Inc()
		}
	}
}

// Hooks counts unhandled inputs and state object lifecycles.
// Transitions are counted by Tracer, not here.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnUnhandled: func(ctx context.Context, e *domain.TransitionEvent) {
			m.unhandled.WithLabelValues(e.Machine, e.From, e.Input).Inc()
		},
		OnStateBuilt: func(ctx context.Context, e *domain.StateEvent) {
			m.built.WithLabelValues(e.Machine, e.State).Inc()
		},
		OnStateEvicted: func(ctx context.Context, e *domain.StateEvent) {
			m.evicted.WithLabelValues(e.Machine, e.State).Inc()
		},
	}
}
