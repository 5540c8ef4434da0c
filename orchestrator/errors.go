package orchestrator

import "fmt"

// ContractViolationError is returned when a caller breaks the single-offer or
// ordering contract of the admission gate or the reconfiguration gate: a second
// offer arrives while one is pending, data is offered before the first timestep
// is set, or reconfigure is attempted while the graph is not quiescent. It is
// always fatal to the calling run.
type ContractViolationError struct {
	Reason string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s", e.Reason)
}

// StepTooLargeError is returned by addPendingTimersUntil when advancing the
// clock would skip over more than one firing of some node's timer within a
// single step. The caller's contract is to step at sub-period granularity.
type StepTooLargeError struct {
	Node     string
	PeriodNs int64
	FromNs   int64
	ToNs     int64
}

func (e *StepTooLargeError) Error() string {
	return fmt.Sprintf(
		"step too large: node %q timer period %dns cannot advance from %dns to %dns without firing more than once",
		e.Node, e.PeriodNs, e.FromNs, e.ToNs,
	)
}

// ActionNotFoundError is returned when a publish or status signal arrives that
// matches no RUNNING action, and (for topic publishes) the topic is not in the
// configured external-input set. A node publishing a topic absent from its
// declared effects manifests as this error too: no RUNNING action will ever
// match an undeclared output, since the graph never scheduled one for it.
type ActionNotFoundError struct {
	Topic  string
	Node   string
	Reason string
}

func (e *ActionNotFoundError) Error() string {
	switch {
	case e.Topic != "":
		return fmt.Sprintf("action not found: no running action publishes topic %q (%s)", e.Topic, e.Reason)
	case e.Node != "":
		return fmt.Sprintf("action not found: no running action at node %q publishes status (%s)", e.Node, e.Reason)
	default:
		return fmt.Sprintf("action not found: %s", e.Reason)
	}
}

// ConfigError is returned for configuration problems detected before or during
// reconfiguration: duplicate node names, an unknown mode, or a malformed
// node-model description.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Sentinel contract violations reused across the admission and reconfiguration
// gates; wrap with fmt.Errorf("...: %w", ErrOfferPending) style contexts where a
// specific field would help a caller more than a shared message would.
var (
	ErrOfferPending          = &ContractViolationError{Reason: "an offer is already pending"}
	ErrSimulatorTimeNotSet   = &ContractViolationError{Reason: "data input offered before the first timestep was set"}
	ErrNotQuiescent          = &ContractViolationError{Reason: "reconfigure requires an empty graph and no pending offer"}
	ErrReconfigureInProgress = &ContractViolationError{Reason: "a reconfiguration is already in progress"}
)
