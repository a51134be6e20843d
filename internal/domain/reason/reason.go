// Package reason maps computed metrics to structured, severity-tagged
// justifications grouped by the index they explain.
//
// The builder is a pure function of the already-computed DerivedMetrics;
// it never recomputes a metric, so the numbers cited in messages cannot
// drift from the numbers displayed next to them. Rules are additive and
// order-independent: a given state may emit several codes.
package reason

import (
	"fmt"

	"github.com/okian/torque/internal/domain/model"
)

// Reason codes emitted by the rule table.
const (
	CodeOdometerRollback        = "ODOMETER_ROLLBACK"
	CodeOdometerVolatility      = "ODOMETER_VOLATILITY_HIGH"
	CodeInsuranceDamageMismatch = "INSURANCE_DAMAGE_MISMATCH"
	CodeCrossDomainSuspicion    = "CROSS_DOMAIN_SUSPICION"
	CodeRepeatedFaults          = "REPEATED_FAULTS"
	CodeMultiCategoryFaults     = "MULTI_CATEGORY_FAULTS"
	CodeMechanicalRiskHigh      = "MECHANICAL_RISK_HIGH"
	CodeMechanicalRiskModerate  = "MECHANICAL_RISK_MODERATE"
	CodeServiceGapDetected      = "SERVICE_GAP_DETECTED"
	CodeNoServiceHistory        = "NO_SERVICE_HISTORY"
	CodeIrregularServices       = "IRREGULAR_SERVICE_INTERVALS"
	CodeGoodServiceDiscipline   = "GOOD_SERVICE_DISCIPLINE"
	CodeStructuralRiskHigh      = "STRUCTURAL_RISK_HIGH"
	CodeStructuralRiskModerate  = "STRUCTURAL_RISK_MODERATE"
	CodeInsuranceRiskHigh       = "INSURANCE_RISK_HIGH"
	CodeInsuranceRiskModerate   = "INSURANCE_RISK_MODERATE"
)

// Rule thresholds.
const (
	volatilityWarnAt = 50
	riskModerateAt   = 40
	riskHighAt       = 70
	serviceGapWarnAt = 40
	serviceGapHighAt = 80
	irregularBelow   = 50
	goodDisciplineAt = 80
)

// rule evaluates one metric/threshold combination. It returns the target
// group, the emitted code, and whether it fired.
type rule func(d model.DerivedMetrics) (target string, rc model.ReasonCode, fired bool)

// Build evaluates the full rule table against d.
func Build(d model.DerivedMetrics) model.Explain {
	reasons := make(map[string][]model.ReasonCode)
	for _, r := range rules {
		if target, rc, fired := r(d); fired {
			reasons[target] = append(reasons[target], rc)
		}
	}
	return model.Explain{Reasons: reasons}
}

var rules = []rule{
	// trust index
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		if !d.KmIntelligence.HasRollback {
			return "", model.ReasonCode{}, false
		}
		return model.TargetTrustIndex, model.ReasonCode{
			Code:     CodeOdometerRollback,
			Severity: model.ReasonHigh,
			Message: fmt.Sprintf("odometer rollback detected (severity %d, %d occurrence(s))",
				d.KmIntelligence.RollbackSeverity, d.KmIntelligence.RollbackEvidenceCount),
			Meta: map[string]any{
				"rollback_severity": d.KmIntelligence.RollbackSeverity,
				"evidence_count":    d.KmIntelligence.RollbackEvidenceCount,
			},
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		if d.KmIntelligence.VolatilityScore <= volatilityWarnAt {
			return "", model.ReasonCode{}, false
		}
		return model.TargetTrustIndex, model.ReasonCode{
			Code:     CodeOdometerVolatility,
			Severity: model.ReasonWarn,
			Message:  fmt.Sprintf("odometer usage rate is erratic (volatility %d)", d.KmIntelligence.VolatilityScore),
			Meta:     map[string]any{"volatility_score": d.KmIntelligence.VolatilityScore},
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		c := d.InsuranceDamageCorrelation
		if c.MismatchType == model.MismatchNone {
			return "", model.ReasonCode{}, false
		}
		return model.TargetTrustIndex, model.ReasonCode{
			Code:     CodeInsuranceDamageMismatch,
			Severity: model.ReasonWarn,
			Message: fmt.Sprintf("insurance and damage history disagree: %d claim(s) vs %d damage record(s) (%s)",
				c.ClaimCount, c.DamageCount, c.MismatchType),
			Meta: map[string]any{
				"mismatch_type":     string(c.MismatchType),
				"claim_count":       c.ClaimCount,
				"damage_count":      c.DamageCount,
				"correlation_score": c.CorrelationScore,
			},
		}, true
	},
	// Cross-domain rule: an odometer anomaly together with an
	// insurance/damage mismatch is far stronger evidence of a doctored
	// history than either alone.
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		if !d.OdometerAnomaly || d.InsuranceDamageCorrelation.MismatchType == model.MismatchNone {
			return "", model.ReasonCode{}, false
		}
		return model.TargetTrustIndex, model.ReasonCode{
			Code:     CodeCrossDomainSuspicion,
			Severity: model.ReasonHigh,
			Message:  "odometer anomaly coincides with an insurance/damage mismatch; history may be doctored",
			Meta: map[string]any{
				"rollback_severity": d.KmIntelligence.RollbackSeverity,
				"mismatch_type":     string(d.InsuranceDamageCorrelation.MismatchType),
			},
		}, true
	},
	// reliability index
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		o := d.ObdIntelligence
		if len(o.RepeatedFaults) == 0 {
			return "", model.ReasonCode{}, false
		}
		sev := model.ReasonWarn
		if o.HighestSeverity == model.FaultHigh {
			sev = model.ReasonHigh
		}
		return model.TargetReliabilityIndex, model.ReasonCode{
			Code:     CodeRepeatedFaults,
			Severity: sev,
			Message:  fmt.Sprintf("%d fault code(s) recurred, pointing at unresolved defects", len(o.RepeatedFaults)),
			Meta: map[string]any{
				"repeated_faults":  o.RepeatedFaults,
				"highest_severity": string(o.HighestSeverity),
			},
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		o := d.ObdIntelligence
		if len(o.CategoryBreakdown) <= 1 {
			return "", model.ReasonCode{}, false
		}
		return model.TargetReliabilityIndex, model.ReasonCode{
			Code:     CodeMultiCategoryFaults,
			Severity: model.ReasonWarn,
			Message:  fmt.Sprintf("faults span %d subsystems", len(o.CategoryBreakdown)),
			Meta:     map[string]any{"category_breakdown": o.CategoryBreakdown},
		}, true
	},
	// maintenance discipline
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		if d.ServiceDiscipline.LastServiceDate != nil {
			return "", model.ReasonCode{}, false
		}
		return model.TargetMaintenanceDiscipline, model.ReasonCode{
			Code:     CodeNoServiceHistory,
			Severity: model.ReasonWarn,
			Message:  "no service history on record",
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		if d.ServiceDiscipline.LastServiceDate == nil || d.ServiceGapScore <= serviceGapWarnAt {
			return "", model.ReasonCode{}, false
		}
		sev := model.ReasonWarn
		if d.ServiceGapScore > serviceGapHighAt {
			sev = model.ReasonHigh
		}
		return model.TargetMaintenanceDiscipline, model.ReasonCode{
			Code:     CodeServiceGapDetected,
			Severity: sev,
			Message:  fmt.Sprintf("service intervals exceed the expected cadence (gap score %d)", d.ServiceGapScore),
			Meta:     map[string]any{"service_gap_score": d.ServiceGapScore},
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		s := d.ServiceDiscipline
		if s.LastServiceDate == nil || s.RegularityScore >= irregularBelow {
			return "", model.ReasonCode{}, false
		}
		return model.TargetMaintenanceDiscipline, model.ReasonCode{
			Code:     CodeIrregularServices,
			Severity: model.ReasonWarn,
			Message:  fmt.Sprintf("service intervals are irregular (regularity %d)", s.RegularityScore),
			Meta:     map[string]any{"regularity_score": s.RegularityScore},
		}, true
	},
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		s := d.ServiceDiscipline
		if s.LastServiceDate == nil || s.DisciplineScore < goodDisciplineAt {
			return "", model.ReasonCode{}, false
		}
		return model.TargetMaintenanceDiscipline, model.ReasonCode{
			Code:     CodeGoodServiceDiscipline,
			Severity: model.ReasonInfo,
			Message:  fmt.Sprintf("service history is consistent (discipline %d)", s.DisciplineScore),
			Meta:     map[string]any{"discipline_score": s.DisciplineScore},
		}, true
	},
	// structural risk
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		return thresholdReason(model.TargetStructuralRisk, d.StructuralRisk,
			CodeStructuralRiskHigh, CodeStructuralRiskModerate, "recorded damage")
	},
	// mechanical risk
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		return thresholdReason(model.TargetMechanicalRisk, d.MechanicalRisk,
			CodeMechanicalRiskHigh, CodeMechanicalRiskModerate, "fault history")
	},
	// insurance risk
	func(d model.DerivedMetrics) (string, model.ReasonCode, bool) {
		return thresholdReason(model.TargetInsuranceRisk, d.InsuranceRisk,
			CodeInsuranceRiskHigh, CodeInsuranceRiskModerate, "insurance events")
	},
}

// thresholdReason emits a high code at >=70 and a moderate code at >=40.
func thresholdReason(target string, score int, highCode, moderateCode, what string) (string, model.ReasonCode, bool) {
	switch {
	case score >= riskHighAt:
		return target, model.ReasonCode{
			Code:     highCode,
			Severity: model.ReasonHigh,
			Message:  fmt.Sprintf("%s indicates high risk (score %d)", what, score),
			Meta:     map[string]any{"score": score},
		}, true
	case score >= riskModerateAt:
		return target, model.ReasonCode{
			Code:     moderateCode,
			Severity: model.ReasonWarn,
			Message:  fmt.Sprintf("%s indicates moderate risk (score %d)", what, score),
			Meta:     map[string]any{"score": score},
		}, true
	}
	return "", model.ReasonCode{}, false
}
