package store

import (
	"context"
	"testing"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

func TestMemStorePublicationsAssignsSeq(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	for i := 0; i < 3; i++ {
		rec := PublicationRecord{Node: "controller", Topic: "/cmd", InterceptedTopic: "/intercepted/controller/sub/cmd"}
		if err := s.AppendPublication(ctx, "run-1", rec); err != nil {
			t.Fatalf("AppendPublication: %v", err)
		}
	}

	recs, err := s.Publications(ctx, "run-1")
	if err != nil {
		t.Fatalf("Publications: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	for i, rec := range recs {
		if rec.Seq != i+1 {
			t.Errorf("record %d: Seq = %d, want %d", i, rec.Seq, i+1)
		}
	}
}

func TestMemStorePublicationsUnknownRun(t *testing.T) {
	s := NewMemStore()
	if _, err := s.Publications(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("Publications on unknown run: err = %v, want ErrNotFound", err)
	}
}

func TestMemStoreReconfigurationsOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_ = s.AppendReconfiguration(ctx, "run-1", ReconfigurationRecord{NodeCount: 2, ExternalInputTopics: []string{"/sensor"}})
	_ = s.AppendReconfiguration(ctx, "run-1", ReconfigurationRecord{NodeCount: 3, ExternalInputTopics: []string{"/sensor", "/goal"}})

	recs, err := s.Reconfigurations(ctx, "run-1")
	if err != nil {
		t.Fatalf("Reconfigurations: %v", err)
	}
	if len(recs) != 2 || recs[0].Seq != 1 || recs[1].Seq != 2 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if recs[1].NodeCount != 3 {
		t.Errorf("second record NodeCount = %d, want 3", recs[1].NodeCount)
	}
}

func TestMemStoreOutboxRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_ = s.EnqueueEvent(ctx, "evt-1", emit.Event{Msg: "rx_publish", NodeID: "controller"})
	_ = s.EnqueueEvent(ctx, "evt-2", emit.Event{Msg: "reconfigured"})

	pending, err := s.PendingEvents(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEvents: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending events, want 2", len(pending))
	}

	if err := s.MarkEventsEmitted(ctx, []string{"evt-1"}); err != nil {
		t.Fatalf("MarkEventsEmitted: %v", err)
	}

	pending, err = s.PendingEvents(ctx, 0)
	if err != nil {
		t.Fatalf("PendingEvents after mark: %v", err)
	}
	if len(pending) != 1 || pending[0].Msg != "reconfigured" {
		t.Fatalf("unexpected remaining pending events: %+v", pending)
	}
}

func TestMemStorePendingEventsRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	for i := 0; i < 5; i++ {
		_ = s.EnqueueEvent(ctx, string(rune('a'+i)), emit.Event{Msg: "x"})
	}

	pending, err := s.PendingEvents(ctx, 2)
	if err != nil {
		t.Fatalf("PendingEvents: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d events, want 2", len(pending))
	}
}
