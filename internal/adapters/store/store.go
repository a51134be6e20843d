// Package store persists aggregate snapshots, generated outputs and
// generation statuses behind a key-value contract keyed by vehicle id.
//
// Two backends exist: a process-local in-memory store and a SQLite file
// store. TTL policy is not enforced here; the service layer compares the
// entry timestamp against its configured TTL and rebuilds as needed, so
// storage backends stay dumb.
package store

import (
	"context"
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Entry is one cached aggregate snapshot with its write timestamp.
type Entry struct {
	Aggregate model.VehicleAggregate `json:"aggregate"`
	Timestamp time.Time              `json:"timestamp"`
}

// AggregateStore caches VehicleAggregate snapshots.
type AggregateStore interface {
	// GetAggregate returns the cached entry for a vehicle.
	// Returns ErrNotFound when no entry exists.
	GetAggregate(ctx context.Context, vehicleID string) (Entry, error)

	// SetAggregate writes (or replaces) the entry for a vehicle.
	SetAggregate(ctx context.Context, vehicleID string, e Entry) error

	// DeleteAggregate removes the entry for a vehicle. Removing a missing
	// entry is not an error.
	DeleteAggregate(ctx context.Context, vehicleID string) error
}

// OutputStore persists generated VIO documents.
type OutputStore interface {
	// GetOutput returns the last persisted VIO for a vehicle.
	// Returns ErrNotFound when none exists.
	GetOutput(ctx context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error)

	// SetOutput writes (or replaces) the VIO for a vehicle.
	SetOutput(ctx context.Context, vio model.VehicleIntelligenceOutput) error
}

// StatusStore records the last-known generation status per vehicle.
type StatusStore interface {
	// GetStatus returns the last generation status for a vehicle.
	// Returns ErrNotFound when none exists.
	GetStatus(ctx context.Context, vehicleID string) (model.GenerationStatus, error)

	// SetStatus writes (or replaces) the status for a vehicle.
	SetStatus(ctx context.Context, s model.GenerationStatus) error
}

// Store is the combined persistence contract used by the service.
type Store interface {
	AggregateStore
	OutputStore
	StatusStore

	// Clear removes everything. Test and maintenance use.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
