// Package output projects VehicleAggregate snapshots into the versioned,
// externally consumable Vehicle Intelligence Output (VIO) and drives its
// generation lifecycle.
package output

import (
	"fmt"
	"time"

	"github.com/okian/torque/internal/domain/confidence"
	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/internal/domain/signal"
)

// Signal codes emitted by the builder.
const (
	SignalOdometerAnomaly        = "ODOMETER_ANOMALY"
	SignalKmRollback             = "KM_ROLLBACK"
	SignalStructuralRiskHigh     = "STRUCTURAL_RISK_HIGH"
	SignalStructuralRiskModerate = "STRUCTURAL_RISK_MODERATE"
	SignalMechanicalRisk         = "MECHANICAL_RISK"
	SignalServiceGap             = "SERVICE_GAP"
	SignalInsuranceRisk          = "INSURANCE_RISK"
	SignalLowDiscipline          = "LOW_MAINTENANCE_DISCIPLINE"
)

// Signal gating thresholds.
const (
	riskModerateAt     = 40
	riskHighAt         = 70
	serviceGapSignalAt = 40
	lowDisciplineBelow = 40

	rollbackMediumAt = 34
	rollbackHighAt   = 67
)

// indexScale is the upper bound of every emitted index.
const indexScale = 100

// Build projects agg into a fresh VIO. The confidence assessment is
// recomputed from the aggregate itself so the projection can never cite
// numbers the aggregate does not carry.
func Build(agg model.VehicleAggregate, generatedAt time.Time) model.VehicleIntelligenceOutput {
	assess := confidence.Assess(agg.DataSources, agg.Derived)
	return model.VehicleIntelligenceOutput{
		VehicleID:        agg.VehicleID,
		Version:          model.VIOVersion,
		SchemaVersion:    model.VIOSchemaVersion,
		GeneratedAt:      generatedAt.UTC(),
		Indexes:          buildIndexes(agg, assess),
		Signals:          buildSignals(agg, assess),
		PartLifeFeatures: PartLife(agg.DataSources),
		Summary:          agg.InsightSummary,
	}
}

// indexEntry describes one emitted index entry.
type indexEntry struct {
	key     string
	label   string
	value   int
	sources []string
}

func buildIndexes(agg model.VehicleAggregate, assess confidence.Assessment) []model.IntelligenceIndex {
	d := agg.Derived
	entries := []indexEntry{
		{model.TargetTrustIndex, "Trust", agg.Indexes.TrustIndex,
			[]string{model.SourceKmHistory, model.SourceInsuranceRecords, model.SourceDamageRecords}},
		{model.TargetReliabilityIndex, "Reliability", agg.Indexes.ReliabilityIndex,
			[]string{model.SourceObdRecords, model.SourceServiceRecords}},
		{model.TargetMaintenanceDiscipline, "Maintenance discipline", agg.Indexes.MaintenanceDiscipline,
			[]string{model.SourceServiceRecords, model.SourceKmHistory}},
		{model.TargetStructuralRisk, "Structural risk", d.StructuralRisk,
			[]string{model.SourceDamageRecords}},
		{model.TargetMechanicalRisk, "Mechanical risk", d.MechanicalRisk,
			[]string{model.SourceObdRecords}},
		{model.TargetInsuranceRisk, "Insurance risk", d.InsuranceRisk,
			[]string{model.SourceInsuranceRecords}},
	}

	out := make([]model.IntelligenceIndex, 0, len(entries))
	for _, s := range entries {
		evidence := evidenceCount(agg.DataSources, s.sources)
		out = append(out, model.IntelligenceIndex{
			Key:        s.key,
			Label:      s.label,
			Value:      s.value,
			Scale:      indexScale,
			Confidence: assess.IndexConfidence(s.key, agg.DataSources),
			ConfidenceReason: fmt.Sprintf("coverage %d, consistency %d, %d supporting record(s)",
				assess.CoverageScore, assess.ConsistencyScore, evidence),
			EvidenceSources: s.sources,
		})
	}
	return out
}

func evidenceCount(src model.DataSources, sources []string) int {
	n := 0
	for _, s := range sources {
		switch s {
		case model.SourceKmHistory:
			n += len(src.KmHistory)
		case model.SourceObdRecords:
			n += len(src.ObdRecords)
		case model.SourceInsuranceRecords:
			n += len(src.InsuranceRecords)
		case model.SourceDamageRecords:
			n += len(src.DamageRecords)
		case model.SourceServiceRecords:
			n += len(src.ServiceRecords)
		}
	}
	return n
}

func buildSignals(agg model.VehicleAggregate, assess confidence.Assessment) []model.IntelligenceSignal {
	d := agg.Derived
	src := agg.DataSources
	var out []model.IntelligenceSignal

	emit := func(code string, severity model.SignalSeverity, evidence int, sources []string, meta map[string]any) {
		out = append(out, model.IntelligenceSignal{
			Code:            code,
			Severity:        severity,
			Confidence:      assess.SignalConfidence(severity, evidence),
			EvidenceSources: sources,
			EvidenceCount:   evidence,
			Meta:            meta,
		})
	}

	if d.OdometerAnomaly {
		emit(SignalOdometerAnomaly, model.SignalHigh,
			d.KmIntelligence.RollbackEvidenceCount,
			[]string{model.SourceKmHistory}, nil)
	}
	if d.KmIntelligence.HasRollback {
		emit(SignalKmRollback, rollbackTier(d.KmIntelligence.RollbackSeverity),
			d.KmIntelligence.RollbackEvidenceCount,
			[]string{model.SourceKmHistory},
			map[string]any{"rollback_severity": d.KmIntelligence.RollbackSeverity})
	}
	switch {
	case d.StructuralRisk >= riskHighAt:
		emit(SignalStructuralRiskHigh, model.SignalHigh, len(src.DamageRecords),
			[]string{model.SourceDamageRecords},
			map[string]any{"structural_risk": d.StructuralRisk})
	case d.StructuralRisk >= riskModerateAt:
		emit(SignalStructuralRiskModerate, model.SignalMedium, len(src.DamageRecords),
			[]string{model.SourceDamageRecords},
			map[string]any{"structural_risk": d.StructuralRisk})
	}
	if d.MechanicalRisk > 0 {
		emit(SignalMechanicalRisk, riskTier(d.MechanicalRisk), len(src.ObdRecords),
			[]string{model.SourceObdRecords},
			map[string]any{"mechanical_risk": d.MechanicalRisk})
	}
	if d.ServiceGapScore > serviceGapSignalAt {
		sev := model.SignalMedium
		if d.ServiceGapScore > 80 {
			sev = model.SignalHigh
		}
		emit(SignalServiceGap, sev, len(src.ServiceRecords),
			[]string{model.SourceServiceRecords},
			map[string]any{"service_gap_score": d.ServiceGapScore})
	}
	if d.InsuranceRisk > riskModerateAt {
		emit(SignalInsuranceRisk, riskTier(d.InsuranceRisk), len(src.InsuranceRecords),
			[]string{model.SourceInsuranceRecords},
			map[string]any{"insurance_risk": d.InsuranceRisk})
	}
	if agg.Indexes.MaintenanceDiscipline < lowDisciplineBelow {
		emit(SignalLowDiscipline, model.SignalMedium, len(src.ServiceRecords),
			[]string{model.SourceServiceRecords},
			map[string]any{"maintenance_discipline": agg.Indexes.MaintenanceDiscipline})
	}
	return out
}

func rollbackTier(severity int) model.SignalSeverity {
	switch {
	case severity >= rollbackHighAt:
		return model.SignalHigh
	case severity >= rollbackMediumAt:
		return model.SignalMedium
	default:
		return model.SignalLow
	}
}

func riskTier(score int) model.SignalSeverity {
	switch {
	case score >= riskHighAt:
		return model.SignalHigh
	case score >= riskModerateAt:
		return model.SignalMedium
	default:
		return model.SignalLow
	}
}

// PartLife extracts lifecycle-prediction inputs from the canonical
// sources.
func PartLife(src model.DataSources) model.PartLifeFeatures {
	out := model.PartLifeFeatures{
		AvgDailyKm:      signal.AvgDailyKm(src.KmHistory),
		KmSlopePerMonth: kmSlope(src.KmHistory),
		TotalFaultCount: len(src.ObdRecords),
	}
	if last := lastService(src.ServiceRecords); last != nil {
		date := last.Date
		out.LastServiceDate = &date
		if km, ok := kmAtOrBefore(src.KmHistory, last.Date); ok {
			out.LastServiceKm = &km
		}
	}
	return out
}

// kmSlope is the overall mileage growth rate in km per month.
func kmSlope(km []model.KmRecord) float64 {
	const daysPerMonth = 30.44
	daily := signal.AvgDailyKm(km)
	return daily * daysPerMonth
}

func lastService(records []model.ServiceRecord) *model.ServiceRecord {
	var last *model.ServiceRecord
	for i := range records {
		if last == nil || records[i].Date.After(last.Date) {
			last = &records[i]
		}
	}
	return last
}

// kmAtOrBefore returns the nearest odometer reading at or before t.
func kmAtOrBefore(km []model.KmRecord, t time.Time) (int64, bool) {
	var (
		best     int64
		bestDate time.Time
		found    bool
	)
	for _, r := range km {
		if r.Date.After(t) {
			continue
		}
		if !found || r.Date.After(bestDate) {
			best = r.Km
			bestDate = r.Date
			found = true
		}
	}
	return best, found
}
