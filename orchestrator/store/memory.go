package store

import (
	"context"
	"sync"
	"time"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

// outboxEntry pairs an enqueued event with the ID callers use to mark it
// delivered.
type outboxEntry struct {
	id    string
	event emit.Event
}

// MemStore is an in-memory Log. It is safe for concurrent use, and exists
// for tests and single-process deployments with no durability requirement;
// all data is lost on process exit.
type MemStore struct {
	mu        sync.RWMutex
	pubs      map[string][]PublicationRecord
	reconfigs map[string][]ReconfigurationRecord
	outbox    []outboxEntry
}

// NewMemStore creates an empty in-memory Log.
func NewMemStore() *MemStore {
	return &MemStore{
		pubs:      make(map[string][]PublicationRecord),
		reconfigs: make(map[string][]ReconfigurationRecord),
	}
}

// AppendPublication records rec for runID, assigning the next Seq.
func (m *MemStore) AppendPublication(_ context.Context, runID string, rec PublicationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Seq = len(m.pubs[runID]) + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.pubs[runID] = append(m.pubs[runID], rec)
	return nil
}

// Publications returns every publication recorded for runID.
func (m *MemStore) Publications(_ context.Context, runID string) ([]PublicationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs, ok := m.pubs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]PublicationRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// AppendReconfiguration records rec for runID, assigning the next Seq.
func (m *MemStore) AppendReconfiguration(_ context.Context, runID string, rec ReconfigurationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Seq = len(m.reconfigs[runID]) + 1
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.reconfigs[runID] = append(m.reconfigs[runID], rec)
	return nil
}

// Reconfigurations returns every reconfiguration recorded for runID.
func (m *MemStore) Reconfigurations(_ context.Context, runID string) ([]ReconfigurationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs, ok := m.reconfigs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]ReconfigurationRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// EnqueueEvent appends event to the outbox under eventID.
func (m *MemStore) EnqueueEvent(_ context.Context, eventID string, event emit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outbox = append(m.outbox, outboxEntry{id: eventID, event: event})
	return nil
}

// PendingEvents returns up to limit undelivered events, oldest first.
func (m *MemStore) PendingEvents(_ context.Context, limit int) ([]emit.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := len(m.outbox)
	if limit > 0 && limit < count {
		count = limit
	}
	out := make([]emit.Event, count)
	for i := 0; i < count; i++ {
		out[i] = m.outbox[i].event
	}
	return out, nil
}

// MarkEventsEmitted removes the named entries from the outbox.
func (m *MemStore) MarkEventsEmitted(_ context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	remove := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		remove[id] = true
	}

	filtered := m.outbox[:0:0]
	for _, entry := range m.outbox {
		if !remove[entry.id] {
			filtered = append(filtered, entry)
		}
	}
	m.outbox = filtered
	return nil
}
