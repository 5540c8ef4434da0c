package orchestrator

import "fmt"

// ActionID identifies an Action within a ConstraintGraph. Actions are compared
// by identity (their ActionID), never by value: two actions at the same node for
// the same topic can coexist across timesteps.
type ActionID uint64

// ActionState is the lifecycle stage of an Action.
type ActionState int

const (
	// Waiting actions have no buffered payload yet. Only Rx actions are born
	// Waiting; timers are born Ready since they need no external payload.
	Waiting ActionState = iota
	// Ready actions have everything they need to run, but may still have
	// ordering constraints (non-zero out-degree) blocking execution.
	Ready
	// Running actions have been published (Rx) or handed to the node's own
	// timer machinery (Timer) and are awaiting a completion signal.
	Running
)

func (s ActionState) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ActionKind distinguishes the two Cause variants an Action can wrap. The
// source's dynamic dispatch over action variants maps to this tagged sum with
// an exhaustive switch at the dispatch site (Scheduler.Process).
type ActionKind int

const (
	KindRx ActionKind = iota
	KindTimer
)

// Action is a scheduled occurrence of one input's callback at one node: a
// buffered subscription delivery, or a timer firing. It carries its own
// lifecycle state, the logical timestamp it belongs to, and (for Rx actions)
// the buffered payload to be delivered once it is allowed to run.
type Action struct {
	id        ActionID
	Node      string
	Cause     Cause
	Timestamp int64
	State     ActionState
	// Payload is the buffered message for an Rx action. It is nil until the
	// Completion Tracker buffers data for this action, and always nil for
	// Timer actions.
	Payload []byte
}

// ID returns the action's identity handle.
func (a *Action) ID() ActionID { return a.id }

// Kind reports whether this action is a topic receive or a timer firing.
func (a *Action) Kind() ActionKind {
	switch a.Cause.(type) {
	case TopicInput:
		return KindRx
	case TimerInput:
		return KindTimer
	default:
		panic(fmt.Sprintf("orchestrator: action %d has unrecognized cause %T", a.id, a.Cause))
	}
}

// Topic returns the subscribed topic for an Rx action. It panics if called on
// a Timer action; callers should check Kind first.
func (a *Action) Topic() string {
	ti, ok := a.Cause.(TopicInput)
	if !ok {
		panic("orchestrator: Topic() called on a non-Rx action")
	}
	return ti.Topic
}

func (a *Action) String() string {
	return fmt.Sprintf("Action#%d{node=%s cause=%v ts=%d state=%s}", a.id, a.Node, a.Cause, a.Timestamp, a.State)
}
