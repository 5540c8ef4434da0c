package orchestrator

import (
	"context"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

// Config is the external collaborator-supplied configuration needed to bring
// up an Orchestrator: the node models, which topics originate outside the
// modeled graph, and which topics are observed for completion but buffered
// nowhere.
type Config struct {
	Models              *ModelSet
	ExternalInputTopics []string
	OutputTopics        []string
}

// Orchestrator wires together the constraint graph, scheduler, admission
// gate, completion tracker and reconfigurer into the single entry point a
// data source and a middleware binding integrate against. It is the
// equivalent of the source's Orchestrator class, minus the middleware
// binding itself (subscriptions, publishers, service calls), which remains
// an external collaborator reachable only through Publisher and TimerTrigger.
type Orchestrator struct {
	graph   *ConstraintGraph
	sched   *Scheduler
	gate    *AdmissionGate
	track   *CompletionTracker
	reconf  *Reconfigurer
	emitter emit.Emitter
	metrics *Metrics
}

// New builds an Orchestrator. publisher delivers intercepted Rx payloads.
// emitter may be nil, in which case events are discarded. Use WithTimerTrigger
// and WithMetrics to opt into timer dispatch and Prometheus metrics.
func New(cfg Config, publisher Publisher, emitter emit.Emitter, opts ...Option) *Orchestrator {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	var occ orchestratorConfig
	for _, opt := range opts {
		opt(&occ)
	}

	graph := NewConstraintGraph(cfg.Models)
	sched := NewScheduler(graph, publisher, occ.timers, emitter)
	sched.metrics = occ.metrics
	sched.log = occ.log
	sched.runID = occ.runID
	gate := NewAdmissionGate(graph, cfg.Models, sched, emitter)
	sched.simTime = gate.SimulatorTime
	track := NewCompletionTracker(graph, cfg.Models, gate, cfg.ExternalInputTopics, emitter)
	reconf := NewReconfigurer(graph, gate, track, emitter)
	reconf.log = occ.log
	reconf.runID = occ.runID

	return &Orchestrator{
		graph:   graph,
		sched:   sched,
		gate:    gate,
		track:   track,
		reconf:  reconf,
		emitter: emitter,
		metrics: occ.metrics,
	}
}

// recordGraphActions refreshes the graph_actions gauge from current state,
// when a Metrics collector is attached.
func (o *Orchestrator) recordGraphActions() {
	if o.metrics == nil {
		return
	}
	counts := map[ActionState]int{}
	for _, a := range o.graph.Actions() {
		counts[a.State]++
	}
	o.metrics.SetGraphActions("waiting", counts[Waiting])
	o.metrics.SetGraphActions("ready", counts[Ready])
	o.metrics.SetGraphActions("running", counts[Running])
}

// recordError increments the counter matching err's concrete type, a no-op
// when no Metrics collector is attached or err is nil.
func (o *Orchestrator) recordError(err error) {
	if o.metrics == nil || err == nil {
		return
	}
	switch err.(type) {
	case *StepTooLargeError:
		o.metrics.IncrementStepTooLarge()
	case *ActionNotFoundError:
		o.metrics.IncrementActionNotFound()
	}
}

// OfferInput announces that the data source has data for topic at the
// current simulator time. The caller must await the returned Future (while
// draining the same executor) before actually publishing on the canonical
// topic name.
func (o *Orchestrator) OfferInput(ctx context.Context, topic string) (*Future, error) {
	f, err := o.gate.OfferInput(ctx, topic)
	o.reconf.CheckQuiescence()
	o.recordGraphActions()
	o.recordError(err)
	return f, err
}

// OfferTime announces that the data source intends to advance the clock to
// t. The caller must await the returned Future before publishing the clock
// tick.
func (o *Orchestrator) OfferTime(ctx context.Context, t int64) (*Future, error) {
	f, err := o.gate.OfferTime(ctx, t)
	o.reconf.CheckQuiescence()
	o.recordGraphActions()
	o.recordError(err)
	return f, err
}

// OnTopicMessage reports a message the orchestrator's subscription observed
// on the canonical name of topic. The caller is the middleware binding
// forwarding every intercepted-or-tracked topic's canonical subscription.
func (o *Orchestrator) OnTopicMessage(ctx context.Context, topic string, payload []byte) error {
	err := o.track.OnTopicMessage(ctx, topic, payload)
	o.reconf.CheckQuiescence()
	o.recordGraphActions()
	o.recordError(err)
	return err
}

// OnStatusMessage reports a status signal from node on the shared status
// channel.
func (o *Orchestrator) OnStatusMessage(ctx context.Context, node string) error {
	err := o.track.OnStatusMessage(ctx, node)
	o.reconf.CheckQuiescence()
	o.recordGraphActions()
	o.recordError(err)
	return err
}

// WaitUntilReconfigurationAllowed returns a Future that completes once the
// graph is quiescent: no WAITING or RUNNING action, and no offer pending.
func (o *Orchestrator) WaitUntilReconfigurationAllowed() *Future {
	return o.reconf.WaitUntilAllowed()
}

// Reconfigure atomically swaps in a new node-model set and the external
// input topics that accompany it. Valid only at quiescence; see
// WaitUntilReconfigurationAllowed.
func (o *Orchestrator) Reconfigure(ctx context.Context, newModels *ModelSet, externalInputTopics []string) error {
	err := o.reconf.Reconfigure(ctx, newModels, externalInputTopics)
	if err == nil && o.metrics != nil {
		o.metrics.IncrementReconfigurations()
	}
	return err
}

// SimulatorTime returns the current logical time and whether it has been set.
func (o *Orchestrator) SimulatorTime() (int64, bool) {
	return o.gate.SimulatorTime()
}

// IsQuiescent reports whether the graph is currently empty and no offer is
// pending, the precondition Reconfigure requires.
func (o *Orchestrator) IsQuiescent() bool {
	return o.graph.IsEmpty() && !o.gate.HasPendingOffer()
}
