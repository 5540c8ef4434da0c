package orchestrator

import "sort"

// EdgeType tags why one Action depends on another. Every edge in a
// ConstraintGraph points from the dependent action to the action it must wait
// for; an action may run only once its out-degree reaches zero.
type EdgeType int

const (
	// SameNode orders actions at one node: a node processes its callbacks one
	// at a time, in the order they were added to the graph.
	SameNode EdgeType = iota
	// SameTopic orders a new publish after every Rx action already in the
	// graph for the topic it publishes, so two publishes to the same topic
	// never race to deliver their messages out of order.
	SameTopic
	// Causality orders an Rx action after the publishing action that
	// produces the message it will receive.
	Causality
)

func (e EdgeType) String() string {
	switch e {
	case SameNode:
		return "SAME_NODE"
	case SameTopic:
		return "SAME_TOPIC"
	case Causality:
		return "CAUSALITY"
	default:
		return "UNKNOWN"
	}
}

// ConstraintGraph is the live set of scheduled Actions and the ordering edges
// derived from their node models. It is not safe for concurrent use; callers
// serialize access the same way the source serializes on a single ROS
// executor thread (see Orchestrator).
type ConstraintGraph struct {
	models *ModelSet

	actions map[ActionID]*Action
	// dependsOn[x][y] records that x must wait for y, tagged with why.
	dependsOn map[ActionID]map[ActionID]EdgeType
	// dependents is the reverse index of dependsOn, used to patch edges away
	// when y is removed without a full scan.
	dependents map[ActionID]map[ActionID]bool

	order  []ActionID // insertion order, for deterministic iteration
	nextID ActionID
}

// NewConstraintGraph creates an empty graph that derives edges from models.
func NewConstraintGraph(models *ModelSet) *ConstraintGraph {
	return &ConstraintGraph{
		models:     models,
		actions:    make(map[ActionID]*Action),
		dependsOn:  make(map[ActionID]map[ActionID]EdgeType),
		dependents: make(map[ActionID]map[ActionID]bool),
	}
}

// SetModels swaps in a new model set for future edge derivation. Callers must
// only do this while the graph IsEmpty; mid-flight actions were derived
// against the old models and their effects would otherwise be inconsistent.
func (g *ConstraintGraph) SetModels(models *ModelSet) {
	g.models = models
}

// IsEmpty reports whether the graph holds no actions at all.
func (g *ConstraintGraph) IsEmpty() bool {
	return len(g.actions) == 0
}

// IsBusy reports whether any action is WAITING or RUNNING, mirroring
// __graph_is_busy: a graph with only READY actions left (blocked solely on
// ordering, not on missing data) is not considered busy for admission
// purposes, since Process will drain it without further external input.
func (g *ConstraintGraph) IsBusy() bool {
	for _, id := range g.order {
		switch g.actions[id].State {
		case Waiting, Running:
			return true
		}
	}
	return false
}

// Get returns the action for id.
func (g *ConstraintGraph) Get(id ActionID) (*Action, bool) {
	a, ok := g.actions[id]
	return a, ok
}

// Actions returns a snapshot of every action currently in the graph, in
// insertion order.
func (g *ConstraintGraph) Actions() []*Action {
	out := make([]*Action, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.actions[id])
	}
	return out
}

// OutDegree returns the number of unresolved dependencies of id.
func (g *ConstraintGraph) OutDegree(id ActionID) int {
	return len(g.dependsOn[id])
}

// DependsOnCausality reports whether dependent has a CAUSALITY edge to on.
func (g *ConstraintGraph) DependsOnCausality(dependent, on ActionID) bool {
	edges, ok := g.dependsOn[dependent]
	if !ok {
		return false
	}
	t, ok := edges[on]
	return ok && t == Causality
}

// AddExternalRx schedules a WAITING Rx action at every node subscribed to
// topic, for the given timestep, with no causing parent. It mirrors
// __add_topic_input for data offered by an external source rather than
// produced by another action in the graph.
func (g *ConstraintGraph) AddExternalRx(t int64, topic string) []ActionID {
	var added []ActionID
	for _, name := range g.models.NodesSubscribedTo(topic) {
		id := g.addActionAndEffects(&Action{
			Node:      name,
			Cause:     TopicInput{Topic: topic},
			Timestamp: t,
			State:     Waiting,
		}, 0, false)
		added = append(added, id)
	}
	return added
}

// AddTimerAction schedules a READY timer action for node at timestep t, per
// the (node, cause) pair produced by ModelSet.Timers combined with timer
// expansion (see AdmissionGate.addPendingTimersUntil). Timers need no buffered
// payload, so they are born READY rather than WAITING.
func (g *ConstraintGraph) AddTimerAction(node string, cause TimerInput, t int64) ActionID {
	return g.addActionAndEffects(&Action{
		Node:      node,
		Cause:     cause,
		Timestamp: t,
		State:     Ready,
	}, 0, false)
}

// addActionAndEffects inserts action, wires SAME_NODE edges to every other
// action already at the same node, a CAUSALITY edge to parent if hasParent,
// and then recursively expands the action's declared effects (SAME_TOPIC
// edges plus newly WAITING downstream Rx actions), mirroring
// __add_action_and_effects / __add_all_effects_for_cause.
func (g *ConstraintGraph) addActionAndEffects(action *Action, parent ActionID, hasParent bool) ActionID {
	id := g.nextID
	g.nextID++
	action.id = id
	g.actions[id] = action
	g.order = append(g.order, id)
	g.dependsOn[id] = make(map[ActionID]EdgeType)

	for _, other := range g.order {
		if other == id {
			continue
		}
		if g.actions[other].Node == action.Node {
			g.addEdge(id, other, SameNode)
		}
	}

	if hasParent {
		g.addEdge(id, parent, Causality)
	}

	model, ok := g.models.ByName(action.Node)
	if !ok {
		return id
	}
	effects := model.EffectsFor(action.Cause)

	for _, effect := range effects {
		pub, ok := effect.(TopicPublish)
		if !ok {
			continue
		}
		for _, other := range g.order {
			if other == id {
				continue
			}
			oa := g.actions[other]
			if oa.Kind() == KindRx && oa.Topic() == pub.Topic {
				g.addEdge(id, other, SameTopic)
			}
		}
	}

	for _, effect := range effects {
		pub, ok := effect.(TopicPublish)
		if !ok {
			continue
		}
		for _, name := range g.models.NodesSubscribedTo(pub.Topic) {
			g.addActionAndEffects(&Action{
				Node:      name,
				Cause:     TopicInput{Topic: pub.Topic},
				Timestamp: action.Timestamp,
				State:     Waiting,
			}, id, true)
		}
	}

	return id
}

func (g *ConstraintGraph) addEdge(from, to ActionID, edgeType EdgeType) {
	g.dependsOn[from][to] = edgeType
	if g.dependents[to] == nil {
		g.dependents[to] = make(map[ActionID]bool)
	}
	g.dependents[to][from] = true
}

// Remove deletes id and every edge touching it. Dependents of id lose the
// corresponding entry from their own out-edge set, which may make them
// ready.
func (g *ConstraintGraph) Remove(id ActionID) {
	for to := range g.dependsOn[id] {
		delete(g.dependents[to], id)
	}
	delete(g.dependsOn, id)

	for from := range g.dependents[id] {
		delete(g.dependsOn[from], id)
	}
	delete(g.dependents, id)

	delete(g.actions, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// ReadyNoConstraints returns, in insertion order, every action that is READY
// and has no remaining out-edges: the set Process should advance on this
// pass.
func (g *ConstraintGraph) ReadyNoConstraints() []*Action {
	var out []*Action
	for _, id := range g.order {
		if g.OutDegree(id) > 0 {
			continue
		}
		if g.actions[id].State == Ready {
			out = append(out, g.actions[id])
		}
	}
	return out
}

// FindRunningPublisher returns the RUNNING action whose declared effects
// include a publish of topic, mirroring __find_running_action.
func (g *ConstraintGraph) FindRunningPublisher(topic string) (*Action, bool) {
	for _, id := range g.order {
		a := g.actions[id]
		if a.State != Running {
			continue
		}
		model, ok := g.models.ByName(a.Node)
		if !ok {
			continue
		}
		for _, effect := range model.EffectsFor(a.Cause) {
			if pub, ok := effect.(TopicPublish); ok && pub.Topic == topic {
				return a, true
			}
		}
	}
	return nil, false
}

// FindRunningStatus returns the RUNNING action at node whose declared
// effects include a status publish, mirroring __find_running_action_status.
func (g *ConstraintGraph) FindRunningStatus(node string) (*Action, bool) {
	for _, id := range g.order {
		a := g.actions[id]
		if a.State != Running || a.Node != node {
			continue
		}
		model, ok := g.models.ByName(a.Node)
		if !ok {
			continue
		}
		for _, effect := range model.EffectsFor(a.Cause) {
			if _, ok := effect.(StatusPublish); ok {
				return a, true
			}
		}
	}
	return nil, false
}

// WaitingRxOnTopic returns, in insertion order, every WAITING Rx action
// subscribed to topic.
func (g *ConstraintGraph) WaitingRxOnTopic(topic string) []*Action {
	var out []*Action
	for _, id := range g.order {
		a := g.actions[id]
		if a.State != Waiting || a.Kind() != KindRx || a.Topic() != topic {
			continue
		}
		out = append(out, a)
	}
	return out
}

// EarliestTimestepOnTopic returns the smallest Timestamp among WAITING Rx
// actions subscribed to topic, matching the source's search for "the
// earliest matching waiting action" so that external input is never
// buffered for a later timestep ahead of an earlier one still waiting.
func (g *ConstraintGraph) EarliestTimestepOnTopic(topic string) (int64, bool) {
	waiting := g.WaitingRxOnTopic(topic)
	if len(waiting) == 0 {
		return 0, false
	}
	sorted := append([]*Action(nil), waiting...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	return sorted[0].Timestamp, true
}
