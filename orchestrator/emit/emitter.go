// Package emit provides event emission and observability for orchestrator
// execution: publications, timer triggers, and reconfigurations.
package emit

import "context"

// Emitter receives and processes observability events from the orchestrator.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog.
//   - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
//   - Metrics: Prometheus, StatsD.
//
// Implementations should be:
//   - Non-blocking: never slow down the scheduler's hot path.
//   - Thread-safe: the orchestrator runs on a single executor today but
//     nothing prevents an Emitter from fanning out to a background worker.
//   - Resilient: handle backend failures gracefully without panicking.
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Implementations should not block the scheduler. If the backend is
	// unavailable or slow, events should be buffered, dropped with internal
	// logging, or sent asynchronously.
	//
	// Emit should not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation. Useful when a
	// caller has accumulated several events (e.g. a batch of publications
	// from one Process pass) and wants to amortize backend round-trips.
	//
	// Implementations should process events in order and handle partial
	// failures without panicking; returning an error is reserved for
	// catastrophic, backend-wide failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are sent to the backend. Call before
	// shutdown to avoid losing the last batch of recorded activity.
	//
	// Implementations should block until delivery or timeout, respect ctx,
	// and be safe to call more than once.
	Flush(ctx context.Context) error
}
