package orchestrator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics for a running Orchestrator,
// namespaced "orchestrator".
//
// Exposed series:
//  1. graph_actions (gauge): current number of actions in the constraint
//     graph, labeled by state (waiting, ready, running).
//  2. actions_scheduled_total (counter): cumulative count of actions the
//     scheduler transitioned to RUNNING, labeled by kind (rx, timer).
//  3. step_too_large_total (counter): cumulative count of rejected
//     OfferTime grants due to skipped timer periods.
//  4. action_not_found_total (counter): cumulative count of topic/status
//     messages matching no RUNNING action.
//  5. reconfigurations_total (counter): cumulative count of successful
//     Reconfigure calls.
type Metrics struct {
	graphActions         *prometheus.GaugeVec
	actionsScheduled     *prometheus.CounterVec
	stepTooLarge         prometheus.Counter
	actionNotFound       prometheus.Counter
	reconfigurationsDone prometheus.Counter

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics creates and registers all orchestrator metrics with registry.
// Pass prometheus.DefaultRegisterer for the global registry, or a fresh
// *prometheus.Registry for test isolation.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		enabled: true,
		graphActions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestrator",
			Name:      "graph_actions",
			Help:      "Current number of actions in the constraint graph by state",
		}, []string{"state"}),
		actionsScheduled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "actions_scheduled_total",
			Help:      "Cumulative count of actions transitioned to RUNNING by the scheduler",
		}, []string{"kind"}),
		stepTooLarge: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "step_too_large_total",
			Help:      "Cumulative count of OfferTime grants rejected for skipping a timer period",
		}),
		actionNotFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "action_not_found_total",
			Help:      "Cumulative count of topic or status messages matching no running action",
		}),
		reconfigurationsDone: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "orchestrator",
			Name:      "reconfigurations_total",
			Help:      "Cumulative count of successful Reconfigure calls",
		}),
	}
}

// SetGraphActions records the current action count for one lifecycle state.
func (m *Metrics) SetGraphActions(state string, count int) {
	if !m.isEnabled() {
		return
	}
	m.graphActions.WithLabelValues(state).Set(float64(count))
}

// IncrementScheduled records one action transitioning to RUNNING.
func (m *Metrics) IncrementScheduled(kind string) {
	if !m.isEnabled() {
		return
	}
	m.actionsScheduled.WithLabelValues(kind).Inc()
}

// IncrementStepTooLarge records one rejected OfferTime grant.
func (m *Metrics) IncrementStepTooLarge() {
	if !m.isEnabled() {
		return
	}
	m.stepTooLarge.Inc()
}

// IncrementActionNotFound records one unmatched completion message.
func (m *Metrics) IncrementActionNotFound() {
	if !m.isEnabled() {
		return
	}
	m.actionNotFound.Inc()
}

// IncrementReconfigurations records one successful Reconfigure call.
func (m *Metrics) IncrementReconfigurations() {
	if !m.isEnabled() {
		return
	}
	m.reconfigurationsDone.Inc()
}

func (m *Metrics) isEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Disable temporarily stops metric recording (useful for testing).
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable.
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}
