package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ottojo/ros2-def/orchestrator/emit"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Log.
//
// Designed for single-process deployments wanting a durable audit trail
// without standing up a server: "./run.db" for a real file, ":memory:" for
// tests. SQLiteStore enables WAL mode so a reader (e.g. a debugging tool)
// can inspect the database while the orchestrator keeps writing.
//
// Schema:
//   - publications: one row per fan-out publish
//   - reconfigurations: one row per node-model-set swap
//   - events_outbox: pending events awaiting delivery
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path and
// ensures its schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			run_id             TEXT NOT NULL,
			seq                INTEGER NOT NULL,
			node               TEXT NOT NULL,
			topic              TEXT NOT NULL,
			intercepted_topic  TEXT NOT NULL,
			simulator_time     INTEGER NOT NULL,
			payload            BLOB,
			created_at         TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS reconfigurations (
			run_id                 TEXT NOT NULL,
			seq                    INTEGER NOT NULL,
			node_count             INTEGER NOT NULL,
			external_input_topics  TEXT NOT NULL,
			created_at             TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS events_outbox (
			event_id TEXT PRIMARY KEY,
			event    TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendPublication records rec for runID under the next Seq within a
// transaction that reads the current max Seq and inserts atomically.
func (s *SQLiteStore) AppendPublication(ctx context.Context, runID string, rec PublicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seq, err := nextSeq(ctx, tx, "publications", runID)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO publications (run_id, seq, node, topic, intercepted_topic, simulator_time, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, rec.Node, rec.Topic, rec.InterceptedTopic, rec.SimulatorTime, rec.Payload,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Publications returns every publication recorded for runID, ordered by Seq.
func (s *SQLiteStore) Publications(ctx context.Context, runID string) ([]PublicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, node, topic, intercepted_topic, simulator_time, payload, created_at
		 FROM publications WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PublicationRecord
	for rows.Next() {
		var rec PublicationRecord
		var createdAt string
		if err := rows.Scan(&rec.Seq, &rec.Node, &rec.Topic, &rec.InterceptedTopic,
			&rec.SimulatorTime, &rec.Payload, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// AppendReconfiguration records rec for runID under the next Seq.
func (s *SQLiteStore) AppendReconfiguration(ctx context.Context, runID string, rec ReconfigurationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seq, err := nextSeq(ctx, tx, "reconfigurations", runID)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	topicsJSON, err := json.Marshal(rec.ExternalInputTopics)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reconfigurations (run_id, seq, node_count, external_input_topics, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, seq, rec.NodeCount, string(topicsJSON), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Reconfigurations returns every reconfiguration recorded for runID, ordered
// by Seq.
func (s *SQLiteStore) Reconfigurations(ctx context.Context, runID string) ([]ReconfigurationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, node_count, external_input_topics, created_at
		 FROM reconfigurations WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReconfigurationRecord
	for rows.Next() {
		var rec ReconfigurationRecord
		var topicsJSON, createdAt string
		if err := rows.Scan(&rec.Seq, &rec.NodeCount, &topicsJSON, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(topicsJSON), &rec.ExternalInputTopics); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// EnqueueEvent adds event to the outbox under eventID, replacing any prior
// entry with the same ID.
func (s *SQLiteStore) EnqueueEvent(ctx context.Context, eventID string, event emit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events_outbox (event_id, event) VALUES (?, ?)
		 ON CONFLICT(event_id) DO UPDATE SET event = excluded.event`,
		eventID, string(payload))
	return err
}

// PendingEvents returns up to limit undelivered events.
func (s *SQLiteStore) PendingEvents(ctx context.Context, limit int) ([]emit.Event, error) {
	query := `SELECT event FROM events_outbox ORDER BY rowid ASC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []emit.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var event emit.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// MarkEventsEmitted deletes the named entries from the outbox.
func (s *SQLiteStore) MarkEventsEmitted(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range eventIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events_outbox WHERE event_id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nextSeq(ctx context.Context, tx *sql.Tx, table, runID string) (int, error) {
	var maxSeq sql.NullInt64
	query := fmt.Sprintf(`SELECT MAX(seq) FROM %s WHERE run_id = ?`, table)
	if err := tx.QueryRowContext(ctx, query, runID).Scan(&maxSeq); err != nil {
		return 0, err
	}
	return int(maxSeq.Int64) + 1, nil
}
