package orchestrator

import (
	"context"

	"github.com/ottojo/ros2-def/orchestrator/emit"
	"github.com/ottojo/ros2-def/orchestrator/store"
)

// Publisher delivers a buffered Rx payload to its subscriber's dedicated
// fan-out topic. It is the sole side effect the Scheduler performs; the
// concrete implementation (transport binding) is an external collaborator.
type Publisher interface {
	PublishIntercepted(ctx context.Context, topic string, payload []byte) error
}

// TimerTrigger kicks off a node's own timer callback once its TimerAction
// becomes RUNNING. Triggering and awaiting completion of a timer callback is
// left to external integration: the orchestrator only knows the action must
// run, not how the node's runtime executes it. Completion still flows back
// through OnStatusMessage or OnTopicMessage like any other action.
type TimerTrigger interface {
	TriggerTimer(ctx context.Context, node string, cause TimerInput, timestamp int64)
}

// Scheduler advances the constraint graph: it repeatedly finds actions that
// are READY with no remaining out-edges and runs them, publishing Rx payloads
// and invoking the timer hook, until a full pass makes no further progress.
type Scheduler struct {
	graph     *ConstraintGraph
	publisher Publisher
	timers    TimerTrigger
	emitter   emit.Emitter
	metrics   *Metrics

	// log and runID are optional: when log is nil, publications are simply
	// not recorded. simTime reads the admission gate's current logical time
	// for the record; it is wired in after construction (see orchestrator.go)
	// since the gate itself is built from this Scheduler.
	log     store.Log
	runID   string
	simTime func() (int64, bool)
}

// NewScheduler builds a Scheduler over graph. timers may be nil, in which
// case TimerActions are marked RUNNING but never triggered; a caller relying
// on timers must supply a TimerTrigger.
func NewScheduler(graph *ConstraintGraph, publisher Publisher, timers TimerTrigger, emitter emit.Emitter) *Scheduler {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	return &Scheduler{graph: graph, publisher: publisher, timers: timers, emitter: emitter}
}

// Process runs the loop described for the scheduler: repeatedly scan the
// graph for READY actions with out-degree zero, transition them to RUNNING,
// and perform their one side effect (publish for Rx, trigger for Timer),
// until a pass over the whole graph makes no further progress. The scheduler
// never removes actions; removal is solely the completion tracker's job.
func (s *Scheduler) Process(ctx context.Context) error {
	for {
		progress := false
		for _, action := range s.graph.ReadyNoConstraints() {
			action.State = Running
			progress = true
			switch action.Kind() {
			case KindRx:
				if s.metrics != nil {
					s.metrics.IncrementScheduled("rx")
				}
				topic := InterceptedTopic(action.Node, action.Topic())
				s.emitter.Emit(emit.Event{
					Msg:    "rx_publish",
					NodeID: action.Node,
					Meta:   map[string]interface{}{"topic": action.Topic(), "intercepted_topic": topic},
				})
				if s.log != nil {
					simTime := int64(-1)
					if s.simTime != nil {
						if t, ok := s.simTime(); ok {
							simTime = t
						}
					}
					if err := s.log.AppendPublication(ctx, s.runID, store.PublicationRecord{
						Node:             action.Node,
						Topic:            action.Topic(),
						InterceptedTopic: topic,
						SimulatorTime:    simTime,
						Payload:          action.Payload,
					}); err != nil {
						return err
					}
				}
				if err := s.publisher.PublishIntercepted(ctx, topic, action.Payload); err != nil {
					return err
				}
			case KindTimer:
				if s.metrics != nil {
					s.metrics.IncrementScheduled("timer")
				}
				s.emitter.Emit(emit.Event{Msg: "timer_trigger", NodeID: action.Node, Meta: map[string]interface{}{"timestamp": action.Timestamp}})
				if s.timers != nil {
					ti, _ := action.Cause.(TimerInput)
					s.timers.TriggerTimer(ctx, action.Node, ti, action.Timestamp)
				}
			}
		}
		if !progress {
			return nil
		}
	}
}
