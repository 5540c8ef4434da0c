// Package store provides durable logs of orchestrator activity: the sequence
// of fan-out publications released by the scheduler and the reconfigurations
// applied to the active node-model set. Neither log drives orchestration
// decisions; both exist so a deployment can audit or replay what happened.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ottojo/ros2-def/orchestrator/emit"
)

// ErrNotFound is returned when a requested run ID has no records of the
// requested kind.
var ErrNotFound = errors.New("not found")

// PublicationRecord captures one fan-out publish the scheduler performed:
// the payload a Rx action released onto a subscriber's intercepted topic, at
// a given simulator time.
type PublicationRecord struct {
	// Seq is the monotonically increasing position of this record within its
	// run, assigned by the store on append.
	Seq int `json:"seq"`

	// Node is the subscribing node the intercepted topic was addressed to.
	Node string `json:"node"`

	// Topic is the canonical (non-intercepted) topic name.
	Topic string `json:"topic"`

	// InterceptedTopic is the fan-out topic name actually published to.
	InterceptedTopic string `json:"intercepted_topic"`

	// SimulatorTime is the logical time in effect when the publish occurred,
	// or -1 if no timestep had been set yet.
	SimulatorTime int64 `json:"simulator_time"`

	// Payload is the opaque message body forwarded to the subscriber.
	Payload []byte `json:"payload"`

	// CreatedAt is the wall-clock time the store recorded this entry.
	CreatedAt time.Time `json:"created_at"`
}

// ReconfigurationRecord captures one atomic node-model-set swap.
type ReconfigurationRecord struct {
	// Seq is the monotonically increasing position of this record within its
	// run, assigned by the store on append.
	Seq int `json:"seq"`

	// NodeCount is the number of nodes in the model set installed by this
	// reconfiguration.
	NodeCount int `json:"node_count"`

	// ExternalInputTopics is the external-input topic set installed with
	// this reconfiguration.
	ExternalInputTopics []string `json:"external_input_topics"`

	// CreatedAt is the wall-clock time the store recorded this entry.
	CreatedAt time.Time `json:"created_at"`
}

// Log persists the publication and reconfiguration history of one or more
// orchestrator runs, each identified by an opaque runID, and doubles as a
// transactional outbox for emitted events: writers append events alongside
// the records that produced them, and a separate drain loop delivers them to
// an Emitter and marks them delivered.
//
// Implementations: MemStore (testing, single process) and SQLiteStore
// (durable, single file).
type Log interface {
	// AppendPublication records one fan-out publish for runID.
	AppendPublication(ctx context.Context, runID string, rec PublicationRecord) error

	// Publications returns every publication recorded for runID, ordered by
	// Seq. Returns ErrNotFound if runID has no recorded publications, even
	// when reconfigurations are recorded for it.
	Publications(ctx context.Context, runID string) ([]PublicationRecord, error)

	// AppendReconfiguration records one node-model-set swap for runID.
	AppendReconfiguration(ctx context.Context, runID string, rec ReconfigurationRecord) error

	// Reconfigurations returns every reconfiguration recorded for runID,
	// ordered by Seq. Returns ErrNotFound if runID has no recorded
	// reconfigurations, even when publications are recorded for it.
	Reconfigurations(ctx context.Context, runID string) ([]ReconfigurationRecord, error)

	// PendingEvents retrieves up to limit events from the outbox that have
	// not yet been marked emitted, ordered by insertion order. An empty
	// result is not an error.
	PendingEvents(ctx context.Context, limit int) ([]emit.Event, error)

	// EnqueueEvent adds an event to the outbox for later delivery.
	EnqueueEvent(ctx context.Context, eventID string, event emit.Event) error

	// MarkEventsEmitted removes the named events from the outbox. Unknown
	// IDs are ignored.
	MarkEventsEmitted(ctx context.Context, eventIDs []string) error
}
