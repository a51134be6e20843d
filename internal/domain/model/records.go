// Package model contains domain models passed between layers.
package model

import "time"

// Canonical record types produced by the normalizers. Each record is
// immutable once built; the aggregate owning it is rebuilt wholesale
// on refresh, never patched.

// InsuranceEventType enumerates the insurance record kinds.
type InsuranceEventType string

// Insurance event kinds.
const (
	InsuranceClaim   InsuranceEventType = "claim"
	InsurancePolicy  InsuranceEventType = "policy"
	InsuranceLapse   InsuranceEventType = "lapse"
	InsuranceInquiry InsuranceEventType = "inquiry"
	InsuranceRenewal InsuranceEventType = "renewal"
)

// Valid reports whether t is a known insurance event type.
func (t InsuranceEventType) Valid() bool {
	switch t {
	case InsuranceClaim, InsurancePolicy, InsuranceLapse, InsuranceInquiry, InsuranceRenewal:
		return true
	}
	return false
}

// DamageSeverity enumerates damage record severities.
type DamageSeverity string

// Damage severities.
const (
	DamageMinor DamageSeverity = "minor"
	DamageMajor DamageSeverity = "major"
)

// Valid reports whether s is a known damage severity.
func (s DamageSeverity) Valid() bool {
	return s == DamageMinor || s == DamageMajor
}

// KmRecord is a single odometer reading.
type KmRecord struct {
	Date time.Time `json:"date"`
	Km   int64     `json:"km"`
}

// ObdRecord is a single onboard-diagnostic fault code occurrence.
// FaultCode is normalized to uppercase by the normalizer.
type ObdRecord struct {
	Date      time.Time `json:"date"`
	FaultCode string    `json:"fault_code"`
}

// InsuranceRecord is a single insurance event.
type InsuranceRecord struct {
	Date time.Time          `json:"date"`
	Type InsuranceEventType `json:"type"`
}

// DamageRecord is a single collision/damage event.
type DamageRecord struct {
	Date        time.Time      `json:"date"`
	Severity    DamageSeverity `json:"severity"`
	Description string         `json:"description"`
}

// ServiceRecord is a single service/maintenance event.
type ServiceRecord struct {
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
}

// DataSources bundles the five canonical record lists for one vehicle.
// A bundle is owned exclusively by one VehicleAggregate and rebuilt
// wholesale on refresh.
type DataSources struct {
	KmHistory        []KmRecord        `json:"km_history"`
	ObdRecords       []ObdRecord       `json:"obd_records"`
	InsuranceRecords []InsuranceRecord `json:"insurance_records"`
	DamageRecords    []DamageRecord    `json:"damage_records"`
	ServiceRecords   []ServiceRecord   `json:"service_records"`
}

// Evidence source names cited by indexes, signals and reason codes.
const (
	SourceKmHistory        = "km_history"
	SourceObdRecords       = "obd_records"
	SourceInsuranceRecords = "insurance_records"
	SourceDamageRecords    = "damage_records"
	SourceServiceRecords   = "service_records"
)
