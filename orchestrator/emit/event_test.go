package emit

import (
	"testing"
)

func TestEvent_Struct(t *testing.T) {
	t.Run("complete event with all fields", func(t *testing.T) {
		meta := map[string]interface{}{
			"topic": "/scan",
			"retry": false,
		}

		event := Event{
			RunID:  "run-001",
			Step:   3,
			NodeID: "mapper",
			Msg:    "rx_publish",
			Meta:   meta,
		}

		if event.RunID != "run-001" {
			t.Errorf("expected RunID = 'run-001', got %q", event.RunID)
		}
		if event.Step != 3 {
			t.Errorf("expected Step = 3, got %d", event.Step)
		}
		if event.NodeID != "mapper" {
			t.Errorf("expected NodeID = 'mapper', got %q", event.NodeID)
		}
		if event.Msg != "rx_publish" {
			t.Errorf("expected Msg = 'rx_publish', got %q", event.Msg)
		}
		if event.Meta["topic"] != "/scan" {
			t.Errorf("expected Meta['topic'] = '/scan', got %v", event.Meta["topic"])
		}
	})

	t.Run("minimal event", func(t *testing.T) {
		event := Event{
			RunID: "run-002",
			Msg:   "reconfigured",
		}

		if event.Step != 0 {
			t.Errorf("expected Step = 0 (zero value), got %d", event.Step)
		}
		if event.NodeID != "" {
			t.Errorf("expected NodeID = \"\" (zero value), got %q", event.NodeID)
		}
		if event.Meta != nil {
			t.Error("expected Meta = nil (zero value)")
		}
	})

	t.Run("event with metadata", func(t *testing.T) {
		event := Event{
			RunID:  "run-003",
			Step:   1,
			NodeID: "localizer",
			Msg:    "rx_publish",
			Meta: map[string]interface{}{
				"timestamp":         int64(500),
				"intercepted_topic": "localizer/scan",
			},
		}

		if event.Meta["intercepted_topic"] != "localizer/scan" {
			t.Errorf("expected intercepted_topic = 'localizer/scan', got %v", event.Meta["intercepted_topic"])
		}
		if event.Meta["timestamp"] != int64(500) {
			t.Errorf("expected timestamp = 500, got %v", event.Meta["timestamp"])
		}
	})

	t.Run("zero value event", func(t *testing.T) {
		var event Event

		if event.RunID != "" {
			t.Errorf("expected zero value RunID, got %q", event.RunID)
		}
		if event.Step != 0 {
			t.Errorf("expected zero value Step, got %d", event.Step)
		}
		if event.NodeID != "" {
			t.Errorf("expected zero value NodeID, got %q", event.NodeID)
		}
		if event.Msg != "" {
			t.Errorf("expected zero value Msg, got %q", event.Msg)
		}
		if event.Meta != nil {
			t.Error("expected zero value Meta to be nil")
		}
	})
}

func TestEvent_UseCases(t *testing.T) {
	t.Run("rx publish event", func(t *testing.T) {
		event := Event{
			RunID:  "run-001",
			Step:   1,
			NodeID: "controller",
			Msg:    "rx_publish",
		}

		if event.NodeID != "controller" {
			t.Errorf("expected NodeID = 'controller', got %q", event.NodeID)
		}
	})

	t.Run("timer trigger event", func(t *testing.T) {
		event := Event{
			RunID:  "run-001",
			Step:   1,
			NodeID: "controller",
			Msg:    "timer_trigger",
			Meta: map[string]interface{}{
				"timestamp": int64(100),
			},
		}

		if event.Meta["timestamp"] != int64(100) {
			t.Errorf("expected timestamp = 100, got %v", event.Meta["timestamp"])
		}
	})

	t.Run("reconfiguration event", func(t *testing.T) {
		event := Event{
			RunID: "run-001",
			Step:  2,
			Msg:   "reconfigured",
			Meta: map[string]interface{}{
				"node_count": 3,
			},
		}

		if event.Meta["node_count"] != 3 {
			t.Error("expected node_count = 3")
		}
	})
}
