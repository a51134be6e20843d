// Package provider implements the data provider boundary: the single
// point where the engine performs I/O to fetch raw vehicle records.
//
// Implementations return normalizer-compatible raw shapes; the engine
// never sees provider-specific field names beyond the candidate lists
// the normalizers already accept.
package provider

import (
	"context"

	"github.com/okian/torque/internal/domain/normalize"
)

// Provider is the inbound data acquisition contract.
type Provider interface {
	// FetchAll returns the raw record bundle for one vehicle. It is the
	// only suspending step of a build; callers bound it with a context
	// deadline and fall back on error or timeout.
	FetchAll(ctx context.Context, vehicleID, vin, plate string) (normalize.Bundle, error)
}
