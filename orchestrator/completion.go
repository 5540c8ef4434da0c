package orchestrator

import (
	"context"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

// CompletionTracker observes each intercepted output and the status channel,
// identifies which RUNNING action each message completes, buffers the
// payload for whichever WAITING actions it feeds, and drives the scheduler
// and admission gate forward.
type CompletionTracker struct {
	graph               *ConstraintGraph
	models              *ModelSet
	gate                *AdmissionGate
	externalInputTopics map[string]bool
	emitter             emit.Emitter
}

// NewCompletionTracker builds a tracker over graph, observing messages on the
// topics in externalInputTopics as data-source-originated rather than
// produced by a running action.
func NewCompletionTracker(graph *ConstraintGraph, models *ModelSet, gate *AdmissionGate, externalInputTopics []string, emitter emit.Emitter) *CompletionTracker {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	set := make(map[string]bool, len(externalInputTopics))
	for _, t := range externalInputTopics {
		set[t] = true
	}
	return &CompletionTracker{graph: graph, models: models, gate: gate, externalInputTopics: set, emitter: emitter}
}

// SetExternalInputTopics replaces the external-input topic set, used when
// Reconfigure swaps in a new configuration alongside new node models.
func (c *CompletionTracker) SetExternalInputTopics(topics []string) {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	c.externalInputTopics = set
}

// OnTopicMessage handles a message observed on the canonical name of topic,
// whether produced by a running action in the graph or by the data source.
// It finds the action the message completes (if any), buffers the payload
// for every WAITING Rx action the message feeds, removes the completed
// action, and drives the scheduler and admission gate forward.
func (c *CompletionTracker) OnTopicMessage(ctx context.Context, topic string, payload []byte) error {
	cause, hasCause := c.graph.FindRunningPublisher(topic)

	var inputTimestep int64
	if !hasCause {
		if !c.externalInputTopics[topic] {
			return &ActionNotFoundError{Topic: topic, Reason: "no running publisher and topic is not externally provided"}
		}
		ts, ok := c.graph.EarliestTimestepOnTopic(topic)
		if !ok {
			return &ActionNotFoundError{Topic: topic, Reason: "no waiting subscriber for this external input"}
		}
		inputTimestep = ts
	}

	buffered := 0
	for _, r := range c.graph.WaitingRxOnTopic(topic) {
		if hasCause {
			if !c.graph.DependsOnCausality(r.ID(), cause.ID()) {
				continue
			}
		} else if r.Timestamp != inputTimestep {
			continue
		}
		r.Payload = payload
		r.State = Ready
		buffered++
	}

	c.emitter.Emit(emit.Event{
		Msg:  "topic_complete",
		Meta: map[string]interface{}{"topic": topic, "buffered": buffered, "had_cause": hasCause},
	})

	if hasCause {
		c.graph.Remove(cause.ID())
	}

	return c.gate.Pump(ctx)
}

// OnStatusMessage handles a status signal from node, terminating its running
// callback when that callback produces no topic output.
func (c *CompletionTracker) OnStatusMessage(ctx context.Context, node string) error {
	a, found := c.graph.FindRunningStatus(node)
	if !found {
		return &ActionNotFoundError{Node: node, Reason: "no running action with a declared status effect"}
	}
	c.emitter.Emit(emit.Event{Msg: "status_complete", NodeID: node})
	c.graph.Remove(a.ID())
	return c.gate.Pump(ctx)
}
