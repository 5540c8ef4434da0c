package orchestrator

import (
	"context"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

type offerKind int

const (
	offerKindInput offerKind = iota
	offerKindTimestep
)

// pendingOffer is the single admission slot the gate can hold at once: an
// announcement by the data source that it intends to publish on topic, or
// advance the clock to time, as soon as the gate grants it.
type pendingOffer struct {
	kind   offerKind
	topic  string
	time   int64
	future *Future
}

// AdmissionGate accepts offers of the next data input or next clock tick and
// decides when to grant them, gating the logical simulator clock so that time
// only advances once every callback for the previous instant has observably
// completed. At most one offer may be pending at a time.
type AdmissionGate struct {
	graph     *ConstraintGraph
	models    *ModelSet
	scheduler *Scheduler
	emitter   emit.Emitter

	pending       *pendingOffer
	simulatorTime *int64
}

// NewAdmissionGate builds a gate over graph and models, driving scheduler
// after every grant.
func NewAdmissionGate(graph *ConstraintGraph, models *ModelSet, scheduler *Scheduler, emitter emit.Emitter) *AdmissionGate {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	return &AdmissionGate{graph: graph, models: models, scheduler: scheduler, emitter: emitter}
}

// SetModels swaps in a new model set, used by Reconfigure once the gate has
// confirmed quiescence.
func (g *AdmissionGate) SetModels(models *ModelSet) {
	g.models = models
}

// HasPendingOffer reports whether an offer is currently registered.
func (g *AdmissionGate) HasPendingOffer() bool {
	return g.pending != nil
}

// SimulatorTime returns the current logical time and whether it has been set
// yet (it is unset before the first granted OfferTime).
func (g *AdmissionGate) SimulatorTime() (int64, bool) {
	if g.simulatorTime == nil {
		return 0, false
	}
	return *g.simulatorTime, true
}

// OfferInput registers an offer of data on topic for the current simulator
// time. It fails with ErrOfferPending if a previous offer is still pending,
// or ErrSimulatorTimeNotSet if no OfferTime has ever been granted. If the
// graph is idle (no WAITING or RUNNING action), the offer is granted
// immediately; otherwise it is granted once the graph quiesces enough for
// the topic (see readyForNextInput).
func (g *AdmissionGate) OfferInput(ctx context.Context, topic string) (*Future, error) {
	if g.pending != nil {
		return nil, ErrOfferPending
	}
	if g.simulatorTime == nil {
		return nil, ErrSimulatorTimeNotSet
	}
	g.emitter.Emit(emit.Event{Msg: "offer_input", Meta: map[string]interface{}{"topic": topic, "simulator_time": *g.simulatorTime}})
	f := newFuture()
	g.pending = &pendingOffer{kind: offerKindInput, topic: topic, future: f}
	if !g.graph.IsBusy() {
		if err := g.grant(ctx); err != nil {
			return f, err
		}
	}
	return f, nil
}

// OfferTime registers an offer to advance the clock to t. It fails with
// ErrOfferPending if a previous offer is still pending. If the graph is idle,
// the offer is granted immediately.
func (g *AdmissionGate) OfferTime(ctx context.Context, t int64) (*Future, error) {
	if g.pending != nil {
		return nil, ErrOfferPending
	}
	g.emitter.Emit(emit.Event{Msg: "offer_time", Meta: map[string]interface{}{"time": t}})
	f := newFuture()
	g.pending = &pendingOffer{kind: offerKindTimestep, time: t, future: f}
	if !g.graph.IsBusy() {
		if err := g.grant(ctx); err != nil {
			return f, err
		}
	}
	return f, nil
}

// Pump runs the scheduler and, if a pending offer has become grantable,
// grants it. It is invoked after every graph mutation: an admission grant
// that inserted ready actions, or a completion that readied or removed one.
func (g *AdmissionGate) Pump(ctx context.Context) error {
	if err := g.scheduler.Process(ctx); err != nil {
		return err
	}
	if g.pending == nil {
		return nil
	}
	if !g.readyForNextInput() {
		return nil
	}
	return g.grant(ctx)
}

// grant fulfills the pending offer: it mutates the graph (inserting an
// external Rx action, or expanding pending timers and advancing simulator
// time), completes the offer's future, then drives the scheduler once more
// since granting an OfferTime may itself insert newly-READY timer actions.
func (g *AdmissionGate) grant(ctx context.Context) error {
	offer := g.pending
	g.pending = nil

	switch offer.kind {
	case offerKindInput:
		t := *g.simulatorTime
		g.emitter.Emit(emit.Event{Msg: "grant_input", Meta: map[string]interface{}{"topic": offer.topic, "time": t}})
		g.graph.AddExternalRx(t, offer.topic)
		offer.future.complete(nil)
	case offerKindTimestep:
		if err := g.addPendingTimersUntil(offer.time); err != nil {
			offer.future.complete(err)
			return err
		}
		t := offer.time
		g.simulatorTime = &t
		g.emitter.Emit(emit.Event{Msg: "grant_time", Meta: map[string]interface{}{"time": t}})
		offer.future.complete(nil)
	}

	return g.scheduler.Process(ctx)
}

// readyForNextInput implements the post-process granting policy: an
// OfferTime is always ready (timer coalescing across empty steps is
// accepted), while an OfferInput{topic} is ready only once no WAITING or
// READY Rx action remains for that topic, since such an action means the
// topic's previous message has not finished flowing through the graph.
func (g *AdmissionGate) readyForNextInput() bool {
	switch g.pending.kind {
	case offerKindTimestep:
		return true
	case offerKindInput:
		for _, a := range g.graph.Actions() {
			if a.State != Waiting && a.State != Ready {
				continue
			}
			if a.Kind() == KindRx && a.Topic() == g.pending.topic {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// addPendingTimersUntil expands every declared timer across every node model
// up to (and including) t, mirroring add_pending_timers_until: for a timer
// with period P, next_fire = ceil((last+1)/P)*P; if next_fire <= t, exactly
// one TimerAction is scheduled at timestamp t. Stepping over more than one
// firing of any single timer within one advance is rejected as user error.
func (g *AdmissionGate) addPendingTimersUntil(t int64) error {
	last := int64(0)
	if g.simulatorTime != nil {
		last = *g.simulatorTime
	}

	for _, timer := range g.models.Timers() {
		period := timer.Cause.PeriodNs
		dt := t - last
		if dt > period {
			return &StepTooLargeError{Node: timer.Node, PeriodNs: period, FromNs: last, ToNs: t}
		}
		nextFire := ceilDiv(last+1, period) * period
		if nextFire <= t {
			g.graph.AddTimerAction(timer.Node, timer.Cause, t)
		}
	}
	return nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
