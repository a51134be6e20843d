package model

import "time"

// VIO schema versioning. SchemaVersion changes whenever the index or
// signal shape changes, never silently.
const (
	VIOVersion       = 1
	VIOSchemaVersion = "1.0"
)

// SignalSeverity tags an emitted intelligence signal.
type SignalSeverity string

// Signal severities.
const (
	SignalLow    SignalSeverity = "low"
	SignalMedium SignalSeverity = "medium"
	SignalHigh   SignalSeverity = "high"
)

// IntelligenceIndex is one scored index inside a VIO, annotated with its
// own confidence and evidence provenance.
type IntelligenceIndex struct {
	Key              string         `json:"key"`
	Label            string         `json:"label,omitempty"`
	Value            int            `json:"value"`
	Scale            int            `json:"scale"`
	Confidence       int            `json:"confidence"`
	ConfidenceReason string         `json:"confidence_reason,omitempty"`
	EvidenceSources  []string       `json:"evidence_sources"`
	Meta             map[string]any `json:"meta,omitempty"`
}

// IntelligenceSignal is one triggered signal inside a VIO.
type IntelligenceSignal struct {
	Code            string         `json:"code"`
	Severity        SignalSeverity `json:"severity"`
	Confidence      int            `json:"confidence"`
	EvidenceSources []string       `json:"evidence_sources"`
	EvidenceCount   int            `json:"evidence_count,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
}

// PartLifeFeatures are extracted inputs for downstream part lifecycle
// prediction.
type PartLifeFeatures struct {
	AvgDailyKm       float64    `json:"avg_daily_km"`
	KmSlopePerMonth  float64    `json:"km_slope_per_month"`
	LastServiceKm    *int64     `json:"last_service_km,omitempty"`
	LastServiceDate  *time.Time `json:"last_service_date,omitempty"`
	TotalFaultCount  int        `json:"total_fault_count"`
}

// VehicleIntelligenceOutput (VIO) is the versioned, machine-consumable
// projection of a VehicleAggregate. Consumers must check Version and
// SchemaVersion before parsing Indexes/Signals. A VIO is built fresh on
// every aggregate rebuild and replaced, never mutated.
type VehicleIntelligenceOutput struct {
	VehicleID        string               `json:"vehicle_id"`
	Version          int                  `json:"version"`
	SchemaVersion    string               `json:"schema_version"`
	GeneratedAt      time.Time            `json:"generated_at"`
	Indexes          []IntelligenceIndex  `json:"indexes"`
	Signals          []IntelligenceSignal `json:"signals"`
	PartLifeFeatures PartLifeFeatures     `json:"part_life_features"`
	Summary          string               `json:"summary"`
}

// GenerationState enumerates the terminal outcomes of a VIO generation.
type GenerationState string

// Generation states.
const (
	GenerationOK     GenerationState = "ok"
	GenerationFailed GenerationState = "failed"
)

// GenerationStatus is the last-known generation outcome for a vehicle.
type GenerationStatus struct {
	VehicleID string          `json:"vehicle_id"`
	Status    GenerationState `json:"status"`
	At        time.Time       `json:"at"`
	Error     string          `json:"error,omitempty"`
}

// RebuildRequest flows through the async rebuild queue.
type RebuildRequest struct {
	VehicleID  string    `json:"vehicle_id"`
	VIN        string    `json:"vin"`
	Plate      string    `json:"plate"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
