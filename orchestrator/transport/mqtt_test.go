package transport

import (
	"context"
	"testing"

	"github.com/ottojo/ros2-def/orchestrator"
)

func TestStatusNode(t *testing.T) {
	var node string
	if err := statusNode([]byte("controller"), &node); err != nil {
		t.Fatalf("statusNode: %v", err)
	}
	if node != "controller" {
		t.Errorf("node = %q, want %q", node, "controller")
	}
}

func TestStatusNodeEmptyPayload(t *testing.T) {
	var node string
	if err := statusNode(nil, &node); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestNewBindingDefaultsLogger(t *testing.T) {
	b := NewBinding(Config{Broker: "mqtt://localhost:1883"}, nil, nil)
	if b.logger == nil {
		t.Fatal("expected default logger to be set")
	}
}

func TestTriggerTimerNotConnectedLogsAndReturns(t *testing.T) {
	b := NewBinding(Config{Broker: "mqtt://localhost:1883"}, nil, nil)
	// cm is nil until Start succeeds; TriggerTimer must not panic.
	b.TriggerTimer(context.Background(), "sensor_driver", orchestrator.TimerInput{PeriodNs: 1e8}, 42)
}
