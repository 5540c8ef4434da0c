package emit

// Event represents an observability event emitted while the orchestrator runs.
//
// The orchestrator's own components emit events for:
//   - Offers and grants (offer_input, offer_time, grant_input, grant_time)
//   - Releases of actions (rx_publish, timer_trigger)
//   - Observed completions (topic_complete, status_complete)
//   - Model-set swaps (reconfigured)
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Store in time-series databases
//   - Trigger alerts
type Event struct {
	// RunID identifies the run that emitted this event. The orchestrator's
	// own components leave it empty.
	RunID string

	// Step is an optional sequence number set by the caller of Emit. The
	// orchestrator's own components leave it zero.
	Step int

	// NodeID identifies the node the event concerns.
	// Empty string for events not tied to one node (offers, grants,
	// reconfigurations, topic completions).
	NodeID string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "topic": Canonical topic name involved in the event
	//   - "intercepted_topic": Fan-out topic name actually published to
	//   - "timestamp": Simulator time the event occurred at
	//   - "error": Error details
	Meta map[string]interface{}
}
