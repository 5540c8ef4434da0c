// Package orchestrator implements a deterministic callback orchestrator for a
// publish/subscribe robotics middleware graph. It intercepts inter-node topics,
// derives per-action ordering constraints from static node models, and gates a
// logical simulator clock so that time only advances once every callback for the
// previous instant has observably completed.
package orchestrator

import "fmt"

// Cause is a declared input of a node: either a topic subscription or a timer.
// Causes are compared by value, so two Causes describing the same topic or the
// same timer period are considered equal regardless of allocation.
type Cause interface {
	causeKey() string
}

// TopicInput is a Cause fired when a message arrives on Topic.
type TopicInput struct {
	Topic string
}

func (t TopicInput) causeKey() string { return "topic:" + t.Topic }

func (t TopicInput) String() string { return fmt.Sprintf("topic(%s)", t.Topic) }

// TimerInput is a Cause fired every PeriodNs nanoseconds of simulator time.
type TimerInput struct {
	PeriodNs int64
}

func (t TimerInput) causeKey() string { return fmt.Sprintf("timer:%d", t.PeriodNs) }

func (t TimerInput) String() string { return fmt.Sprintf("timer(%dns)", t.PeriodNs) }

// Effect is a declared output produced by a node in response to one Cause.
type Effect interface {
	effectKey() string
}

// TopicPublish is an Effect declaring that the node publishes Topic.
type TopicPublish struct {
	Topic string
}

func (e TopicPublish) effectKey() string { return "pub:" + e.Topic }

func (e TopicPublish) String() string { return fmt.Sprintf("publish(%s)", e.Topic) }

// StatusPublish is an Effect declaring that the node signals completion on the
// shared status channel without publishing any data topic.
type StatusPublish struct{}

func (e StatusPublish) effectKey() string { return "status" }

func (e StatusPublish) String() string { return "status" }

// ServiceCall is an Effect declaring that the node invokes an external service.
// The orchestrator does not track service-call completion; it is recorded only
// so that UndeclaredEffect checks stay exhaustive over a node's outputs.
type ServiceCall struct {
	Service string
}

func (e ServiceCall) effectKey() string { return "svc:" + e.Service }

func (e ServiceCall) String() string { return fmt.Sprintf("call(%s)", e.Service) }

// NodeModel is the static, immutable description of one processing node: its
// declared inputs and, for each input, the ordered set of effects it produces.
// Effects are deterministic given the cause alone, never the buffered payload.
type NodeModel interface {
	// Name returns the node's unique identifier within a ModelSet.
	Name() string

	// PossibleInputs returns every Cause this node declares a callback for.
	PossibleInputs() []Cause

	// EffectsFor returns the effects produced when cause fires. Callers should
	// only invoke this with a Cause returned by PossibleInputs.
	EffectsFor(cause Cause) []Effect
}

// StaticNodeModel is a plain-data NodeModel, typically produced by the config
// loader or constructed directly by a test.
type StaticNodeModel struct {
	NodeName string
	Inputs   []Cause
	Effects  map[string][]Effect // keyed by Cause.causeKey()
}

// NewStaticNodeModel builds a StaticNodeModel from a list of (cause, effects)
// pairs, in declaration order.
func NewStaticNodeModel(name string, causes []Cause, effectsByCause map[Cause][]Effect) *StaticNodeModel {
	m := &StaticNodeModel{
		NodeName: name,
		Inputs:   append([]Cause(nil), causes...),
		Effects:  make(map[string][]Effect, len(causes)),
	}
	for _, c := range causes {
		m.Effects[c.causeKey()] = effectsByCause[c]
	}
	return m
}

func (m *StaticNodeModel) Name() string { return m.NodeName }

func (m *StaticNodeModel) PossibleInputs() []Cause { return m.Inputs }

func (m *StaticNodeModel) EffectsFor(cause Cause) []Effect {
	return m.Effects[cause.causeKey()]
}

// declaresInput reports whether model declares cause as one of its inputs.
func declaresInput(model NodeModel, cause Cause) bool {
	for _, c := range model.PossibleInputs() {
		if c.causeKey() == cause.causeKey() {
			return true
		}
	}
	return false
}

// ModelSet is the active, immutable collection of node models consulted during
// edge derivation and timer expansion. A new ModelSet is swapped in wholesale by
// Reconfigure; it is never mutated after construction.
type ModelSet struct {
	byName map[string]NodeModel
	order  []NodeModel
}

// NewModelSet validates and indexes a set of node models. It fails ConfigError
// if two models share a name.
func NewModelSet(models []NodeModel) (*ModelSet, error) {
	s := &ModelSet{
		byName: make(map[string]NodeModel, len(models)),
		order:  append([]NodeModel(nil), models...),
	}
	for _, m := range models {
		if _, dup := s.byName[m.Name()]; dup {
			return nil, &ConfigError{Reason: fmt.Sprintf("duplicate node model %q", m.Name())}
		}
		s.byName[m.Name()] = m
	}
	return s, nil
}

// Models returns the node models in declaration order.
func (s *ModelSet) Models() []NodeModel { return s.order }

// ByName looks up a node model by name.
func (s *ModelSet) ByName(name string) (NodeModel, bool) {
	m, ok := s.byName[name]
	return m, ok
}

// NodesSubscribedTo returns the names of every node declaring TopicInput(topic)
// as a possible input, in ModelSet declaration order.
func (s *ModelSet) NodesSubscribedTo(topic string) []string {
	var out []string
	want := TopicInput{Topic: topic}.causeKey()
	for _, m := range s.order {
		for _, c := range m.PossibleInputs() {
			if c.causeKey() == want {
				out = append(out, m.Name())
				break
			}
		}
	}
	return out
}

// Timers returns every (node, TimerInput) pair declared across the model set,
// in declaration order. Unlike a naive single-timer accumulator, this collects
// every timer of every node: a model set with several timers of possibly
// different periods on several nodes must all be expanded together.
func (s *ModelSet) Timers() []NodeTimer {
	var out []NodeTimer
	for _, m := range s.order {
		for _, c := range m.PossibleInputs() {
			if ti, ok := c.(TimerInput); ok {
				out = append(out, NodeTimer{Node: m.Name(), Cause: ti})
			}
		}
	}
	return out
}

// NodeTimer pairs a timer Cause with the node that declared it.
type NodeTimer struct {
	Node  string
	Cause TimerInput
}
