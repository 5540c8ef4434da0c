package orchestrator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsGraphActions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetGraphActions("ready", 3)
	if got := testutil.ToFloat64(m.graphActions.WithLabelValues("ready")); got != 3 {
		t.Errorf("graph_actions{state=ready} = %v, want 3", got)
	}
}

func TestMetricsIncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncrementScheduled("rx")
	m.IncrementScheduled("rx")
	m.IncrementStepTooLarge()
	m.IncrementActionNotFound()
	m.IncrementReconfigurations()

	if got := testutil.ToFloat64(m.actionsScheduled.WithLabelValues("rx")); got != 2 {
		t.Errorf("actions_scheduled_total{kind=rx} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.stepTooLarge); got != 1 {
		t.Errorf("step_too_large_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.actionNotFound); got != 1 {
		t.Errorf("action_not_found_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.reconfigurationsDone); got != 1 {
		t.Errorf("reconfigurations_total = %v, want 1", got)
	}
}

func TestMetricsDisableSuppressesRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Disable()
	m.IncrementStepTooLarge()
	if got := testutil.ToFloat64(m.stepTooLarge); got != 0 {
		t.Errorf("step_too_large_total = %v after Disable, want 0", got)
	}

	m.Enable()
	m.IncrementStepTooLarge()
	if got := testutil.ToFloat64(m.stepTooLarge); got != 1 {
		t.Errorf("step_too_large_total = %v after Enable, want 1", got)
	}
}
