/*
Package observability watches running machines.

Tracers plug into a Transitioner (automaton.Tracer) and see every transition
and every output fired. Lifecycle hooks plug into a cluster definition and
see state objects being built and evicted. Both can be fed to slog or to
Prometheus collectors.
*/
package observability
