// Package repository defines the fleet ranking store interface and errors.
//
// The ranking orders every analyzed vehicle by trust index so operators
// can pull the most (or least) trustworthy vehicles in a fleet without
// re-reading aggregates.
package repository

import "context"

// Entry represents one fleet ranking row.
type Entry struct {
	Rank      int    `json:"rank"`
	VehicleID string `json:"vehicle_id"`
	Trust     int    `json:"trust"`
}

// Store provides read/write access to the fleet ranking state.
type Store interface {
	// Update sets the current trust index for a vehicle, replacing any
	// previous value.
	Update(ctx context.Context, vehicleID string, trust int) error

	// Rank returns the current rank and trust index for a vehicle.
	// Returns ErrNotFound if the vehicle is unknown.
	Rank(ctx context.Context, vehicleID string) (Entry, error)

	// TopN returns the top-N entries ordered by trust desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of vehicles tracked.
	Count(ctx context.Context) int
}
