package model

import "time"

// UsageClass buckets a vehicle's average daily mileage.
type UsageClass string

// Usage classes.
const (
	UsageLow    UsageClass = "low"
	UsageNormal UsageClass = "normal"
	UsageHigh   UsageClass = "high"
)

// FaultSeverity ranks the worst fault pattern found in OBD history.
type FaultSeverity string

// Fault severities.
const (
	FaultLow    FaultSeverity = "low"
	FaultMedium FaultSeverity = "medium"
	FaultHigh   FaultSeverity = "high"
)

// MismatchType classifies an insurance-vs-damage inconsistency.
type MismatchType string

// Mismatch types.
const (
	MismatchNone                MismatchType = "none"
	MismatchClaimsWithoutDamage MismatchType = "claims_without_damage"
	MismatchDamageWithoutClaims MismatchType = "damage_without_claims"
)

// KmIntelligence captures odometer-history analysis.
type KmIntelligence struct {
	HasRollback           bool       `json:"has_rollback"`
	RollbackSeverity      int        `json:"rollback_severity"`       // 0-100
	RollbackEvidenceCount int        `json:"rollback_evidence_count"`
	VolatilityScore       int        `json:"volatility_score"` // 0-100
	UsageClass            UsageClass `json:"usage_class"`
}

// ServiceDiscipline captures service-interval analysis.
type ServiceDiscipline struct {
	TimeGapScore               int        `json:"time_gap_score"`   // 0-100, higher is better
	KmGapScore                 int        `json:"km_gap_score"`     // 0-100, higher is better
	RegularityScore            int        `json:"regularity_score"` // 0-100, higher is better
	DisciplineScore            int        `json:"discipline_score"` // 0-100, higher is better
	LastServiceDate            *time.Time `json:"last_service_date,omitempty"`
	DaysSinceLastService       *int       `json:"days_since_last_service,omitempty"`
	EstimatedKmSinceLastService *int64    `json:"estimated_km_since_last_service,omitempty"`
}

// ObdIntelligence captures fault-code analysis.
type ObdIntelligence struct {
	TotalFaultCount   int            `json:"total_fault_count"`
	UniqueFaultCodes  int            `json:"unique_fault_codes"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
	HighestSeverity   FaultSeverity  `json:"highest_severity"`
	RepeatedFaults    []string       `json:"repeated_faults"`
	SeverityScore     int            `json:"severity_score"` // 0-100
}

// InsuranceDamageCorrelation captures the cross-domain consistency check
// between insurance claims and recorded damage events.
type InsuranceDamageCorrelation struct {
	ClaimCount       int          `json:"claim_count"`
	DamageCount      int          `json:"damage_count"`
	MatchedEvents    int          `json:"matched_events"`
	MismatchType     MismatchType `json:"mismatch_type"`
	CorrelationScore int          `json:"correlation_score"` // 0-100
}

// DerivedMetrics holds the read-only outputs of all signal analyzers.
// All score fields are clamped to [0,100].
type DerivedMetrics struct {
	OdometerAnomaly            bool                       `json:"odometer_anomaly"`
	KmIntelligence             KmIntelligence             `json:"km_intelligence"`
	ServiceGapScore            int                        `json:"service_gap_score"` // risk polarity: higher is worse
	ServiceDiscipline          ServiceDiscipline          `json:"service_discipline"`
	StructuralRisk             int                        `json:"structural_risk"`
	MechanicalRisk             int                        `json:"mechanical_risk"`
	InsuranceRisk              int                        `json:"insurance_risk"`
	ObdIntelligence            ObdIntelligence            `json:"obd_intelligence"`
	InsuranceDamageCorrelation InsuranceDamageCorrelation `json:"insurance_damage_correlation"`
}

// IntelligenceIndexes are the three top-level composite scores, each 0-100.
type IntelligenceIndexes struct {
	TrustIndex            int `json:"trust_index"`
	ReliabilityIndex      int `json:"reliability_index"`
	MaintenanceDiscipline int `json:"maintenance_discipline"`
}

// ReasonSeverity tags a reason code.
type ReasonSeverity string

// Reason severities.
const (
	ReasonInfo ReasonSeverity = "info"
	ReasonWarn ReasonSeverity = "warn"
	ReasonHigh ReasonSeverity = "high"
)

// ReasonCode is a structured, severity-tagged justification for one or
// more computed metrics. It references only metrics present in the same
// VehicleAggregate.
type ReasonCode struct {
	Code     string         `json:"code"`
	Severity ReasonSeverity `json:"severity"`
	Message  string         `json:"message"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Explain groups reason codes by the index they justify.
type Explain struct {
	Reasons map[string][]ReasonCode `json:"reasons"`
}

// Explainable target keys used as Explain.Reasons map keys.
const (
	TargetTrustIndex            = "trust_index"
	TargetReliabilityIndex      = "reliability_index"
	TargetMaintenanceDiscipline = "maintenance_discipline"
	TargetStructuralRisk        = "structural_risk"
	TargetMechanicalRisk        = "mechanical_risk"
	TargetInsuranceRisk         = "insurance_risk"
)

// VehicleAggregate is the aggregate root: the full computed snapshot of
// one vehicle's analysis at a point in time. It is built wholesale and
// never partially mutated; a rebuild supersedes the whole value.
type VehicleAggregate struct {
	VehicleID      string              `json:"vehicle_id"`
	VIN            string              `json:"vin"`
	Plate          string              `json:"plate"`
	Timestamp      time.Time           `json:"timestamp"`
	DataSources    DataSources         `json:"data_sources"`
	Derived        DerivedMetrics      `json:"derived"`
	Indexes        IntelligenceIndexes `json:"indexes"`
	InsightSummary string              `json:"insight_summary"`
	Explain        Explain             `json:"explain"`
	Fallback       bool                `json:"fallback,omitempty"`
}
