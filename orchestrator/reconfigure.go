package orchestrator

import (
	"context"

	"github.com/ottojo/ros2-def/orchestrator/emit"
	"github.com/ottojo/ros2-def/orchestrator/store"
)

// Reconfigurer performs the atomic swap of the active node-model set. A swap
// is only valid while the graph is empty and no offer is pending; callers
// that need to wait for that moment use WaitUntilAllowed rather than polling.
type Reconfigurer struct {
	graph   *ConstraintGraph
	gate    *AdmissionGate
	tracker *CompletionTracker
	emitter emit.Emitter

	// log and runID are optional: when log is nil, reconfigurations are
	// simply not recorded.
	log   store.Log
	runID string

	inProgress bool
	waiters    []*Future
}

// NewReconfigurer builds a Reconfigurer over the given graph, gate and
// completion tracker, all of which must share the same ModelSet instance.
func NewReconfigurer(graph *ConstraintGraph, gate *AdmissionGate, tracker *CompletionTracker, emitter emit.Emitter) *Reconfigurer {
	if emitter == nil {
		emitter = emit.NullEmitter{}
	}
	return &Reconfigurer{graph: graph, gate: gate, tracker: tracker, emitter: emitter}
}

// WaitUntilAllowed returns a Future that completes once the graph is empty
// and no offer is pending. If the orchestrator is already quiescent, the
// returned Future is already complete.
func (r *Reconfigurer) WaitUntilAllowed() *Future {
	f := newFuture()
	r.waiters = append(r.waiters, f)
	r.checkQuiescence()
	return f
}

// CheckQuiescence re-evaluates pending WaitUntilAllowed futures. Callers
// invoke this after every graph mutation (admission grant, completion), the
// same points where the source could have reached quiescence.
func (r *Reconfigurer) CheckQuiescence() {
	r.checkQuiescence()
}

func (r *Reconfigurer) checkQuiescence() {
	if len(r.waiters) == 0 {
		return
	}
	if !r.isQuiescent() {
		return
	}
	for _, f := range r.waiters {
		f.complete(nil)
	}
	r.waiters = nil
}

func (r *Reconfigurer) isQuiescent() bool {
	return r.graph.IsEmpty() && !r.gate.HasPendingOffer()
}

// Reconfigure atomically swaps in newModels and the external-input topic set
// that accompanies them. It fails with ErrNotQuiescent unless the graph is
// empty and no offer is pending, and with ErrReconfigureInProgress if a
// reconfiguration is already underway (the source forbids concurrent
// invocation; here that manifests as a simple re-entrancy guard since the
// whole orchestrator runs on one executor).
func (r *Reconfigurer) Reconfigure(ctx context.Context, newModels *ModelSet, externalInputTopics []string) error {
	if r.inProgress {
		return ErrReconfigureInProgress
	}
	if !r.isQuiescent() {
		return ErrNotQuiescent
	}
	r.inProgress = true
	defer func() { r.inProgress = false }()

	r.graph.SetModels(newModels)
	r.gate.SetModels(newModels)
	r.tracker.SetExternalInputTopics(externalInputTopics)

	if r.log != nil {
		if err := r.log.AppendReconfiguration(ctx, r.runID, store.ReconfigurationRecord{
			NodeCount:           len(newModels.Models()),
			ExternalInputTopics: externalInputTopics,
		}); err != nil {
			return err
		}
	}

	r.emitter.Emit(emit.Event{Msg: "reconfigured", Meta: map[string]interface{}{"node_count": len(newModels.Models())}})
	return nil
}
