package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/torque/internal/domain/model"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS aggregates (
	vehicle_id TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	ts         INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS outputs (
	vehicle_id   TEXT PRIMARY KEY,
	payload      TEXT NOT NULL,
	generated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS statuses (
	vehicle_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	at         INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT ''
);
`

// SQLiteStore implements Store on a SQLite file via database/sql.
// Payloads are stored as JSON documents; the row timestamp is kept in a
// dedicated column so staleness checks never parse the payload.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the store at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetAggregate(ctx context.Context, vehicleID string) (Entry, error) {
	var (
		payload string
		ts      int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, ts FROM aggregates WHERE vehicle_id = ?`, vehicleID,
	).Scan(&payload, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get aggregate: %w", err)
	}
	var agg model.VehicleAggregate
	if err := json.Unmarshal([]byte(payload), &agg); err != nil {
		return Entry{}, fmt.Errorf("decode aggregate: %w", err)
	}
	return Entry{Aggregate: agg, Timestamp: time.UnixMilli(ts).UTC()}, nil
}

func (s *SQLiteStore) SetAggregate(ctx context.Context, vehicleID string, e Entry) error {
	payload, err := json.Marshal(e.Aggregate)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO aggregates (vehicle_id, payload, ts) VALUES (?, ?, ?)
		 ON CONFLICT(vehicle_id) DO UPDATE SET payload = excluded.payload, ts = excluded.ts`,
		vehicleID, string(payload), e.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("set aggregate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAggregate(ctx context.Context, vehicleID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM aggregates WHERE vehicle_id = ?`, vehicleID); err != nil {
		return fmt.Errorf("delete aggregate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOutput(ctx context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM outputs WHERE vehicle_id = ?`, vehicleID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VehicleIntelligenceOutput{}, ErrNotFound
	}
	if err != nil {
		return model.VehicleIntelligenceOutput{}, fmt.Errorf("get output: %w", err)
	}
	var vio model.VehicleIntelligenceOutput
	if err := json.Unmarshal([]byte(payload), &vio); err != nil {
		return model.VehicleIntelligenceOutput{}, fmt.Errorf("decode output: %w", err)
	}
	return vio, nil
}

func (s *SQLiteStore) SetOutput(ctx context.Context, vio model.VehicleIntelligenceOutput) error {
	payload, err := json.Marshal(vio)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outputs (vehicle_id, payload, generated_at) VALUES (?, ?, ?)
		 ON CONFLICT(vehicle_id) DO UPDATE SET payload = excluded.payload, generated_at = excluded.generated_at`,
		vio.VehicleID, string(payload), vio.GeneratedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetStatus(ctx context.Context, vehicleID string) (model.GenerationStatus, error) {
	var (
		status string
		at     int64
		errMsg string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, at, error FROM statuses WHERE vehicle_id = ?`, vehicleID,
	).Scan(&status, &at, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GenerationStatus{}, ErrNotFound
	}
	if err != nil {
		return model.GenerationStatus{}, fmt.Errorf("get status: %w", err)
	}
	return model.GenerationStatus{
		VehicleID: vehicleID,
		Status:    model.GenerationState(status),
		At:        time.UnixMilli(at).UTC(),
		Error:     errMsg,
	}, nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, st model.GenerationStatus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO statuses (vehicle_id, status, at, error) VALUES (?, ?, ?, ?)
		 ON CONFLICT(vehicle_id) DO UPDATE SET status = excluded.status, at = excluded.at, error = excluded.error`,
		st.VehicleID, string(st.Status), st.At.UnixMilli(), st.Error)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	for _, table := range []string{"aggregates", "outputs", "statuses"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// DB exposes the underlying handle so co-located tables (the audit log)
// can share the same file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }
