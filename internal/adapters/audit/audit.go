// Package audit appends generation events to an external audit sink.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Audit actions emitted by the generation orchestrator.
const (
	ActionVIOGenerated = "VIO_GENERATED"
	ActionVIOFailed    = "VIO_FAILED"
)

// Entry is one audit record. ID is assigned by the sink on append.
type Entry struct {
	ID      string         `json:"id,omitempty"`
	Action  string         `json:"action"`
	ActorID string         `json:"actor_id"`
	At      time.Time      `json:"at"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Sink is the external audit log boundary.
type Sink interface {
	// Append stores an entry and returns it with its assigned ID.
	Append(ctx context.Context, e Entry) (Entry, error)
}

// MemorySink implements Sink with an in-process slice. Used in tests and
// when no store path is configured.
type MemorySink struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	s.entries = append(s.entries, e)
	return e, nil
}

// Entries returns a copy of everything appended so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// SQLiteSink appends audit entries to a SQLite table. It can share the
// database handle of the main store or own a separate one.
type SQLiteSink struct {
	db *sql.DB
}

// schema is the DDL for the audit table.
const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id       TEXT PRIMARY KEY,
	action   TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	at       INTEGER NOT NULL,
	meta     TEXT NOT NULL DEFAULT '{}'
);
`

// NewSQLiteSink creates the audit table if needed and returns a sink
// writing to db.
func NewSQLiteSink(ctx context.Context, db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Append(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return Entry{}, fmt.Errorf("encode audit meta: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, actor_id, at, meta) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.ActorID, e.At.UnixMilli(), string(meta))
	if err != nil {
		return Entry{}, fmt.Errorf("append audit entry: %w", err)
	}
	return e, nil
}
