// Package confidence computes how much the engine trusts its own output.
//
// Coverage measures data completeness across the five source categories,
// consistency measures internal agreement among the computed risk
// signals, and the overall confidence blends the two. Per-index and
// per-signal adjustments then discount numbers whose supporting evidence
// is thin or absent.
package confidence

import (
	"math"

	"github.com/okian/torque/internal/domain/model"
)

// Coverage weights per source category. They sum to 100.
const (
	kmCoverageWeight        = 25
	serviceCoverageWeight   = 25
	insuranceCoverageWeight = 20
	obdCoverageWeight       = 15
	damageCoverageWeight    = 15
)

// Volume scaling: a source at presenceFraction of its weight counts as
// present; each additional record adds volumeStep until the full weight
// is reached.
const (
	presenceFraction = 0.6
	volumeStep       = 0.1
)

// Consistency penalties for contradictory signals.
const (
	anomalyPenalty             = 35
	serviceGapPenalty          = 15
	serviceGapPenaltyAbove     = 60
	insuranceRiskPenalty       = 10
	insuranceRiskPenaltyAbove  = 60
	structuralRiskPenalty      = 15
	structuralRiskPenaltyAbove = 70
)

// Overall blend weights.
const (
	coverageBlend    = 0.6
	consistencyBlend = 0.4
)

// Confidence floors and caps.
const (
	indexConfidenceFloor    = 30
	highSeverityMinEvidence = 3
	thinEvidenceCap         = 80
	zeroEvidenceCap         = 30
)

// Assessment is the computed confidence state for one aggregate.
type Assessment struct {
	CoverageScore    int `json:"coverage_score"`
	ConsistencyScore int `json:"consistency_score"`
	Overall          int `json:"overall"`
}

// Assess computes coverage, consistency and overall confidence.
func Assess(src model.DataSources, d model.DerivedMetrics) Assessment {
	coverage := coverageScore(src)
	consistency := consistencyScore(d)
	overall := int(math.Round(coverageBlend*float64(coverage) + consistencyBlend*float64(consistency)))
	return Assessment{
		CoverageScore:    coverage,
		ConsistencyScore: consistency,
		Overall:          overall,
	}
}

func coverageScore(src model.DataSources) int {
	total := sourceCoverage(len(src.KmHistory), kmCoverageWeight) +
		sourceCoverage(len(src.ServiceRecords), serviceCoverageWeight) +
		sourceCoverage(len(src.InsuranceRecords), insuranceCoverageWeight) +
		sourceCoverage(len(src.ObdRecords), obdCoverageWeight) +
		sourceCoverage(len(src.DamageRecords), damageCoverageWeight)
	return int(math.Round(total))
}

// sourceCoverage scales a category's weight mildly with record count:
// presence earns most of the weight, volume earns the rest.
func sourceCoverage(count, weight int) float64 {
	if count == 0 {
		return 0
	}
	frac := presenceFraction + volumeStep*float64(count-1)
	if frac > 1 {
		frac = 1
	}
	return frac * float64(weight)
}

func consistencyScore(d model.DerivedMetrics) int {
	score := 100
	if d.OdometerAnomaly {
		score -= anomalyPenalty
	}
	if d.ServiceGapScore > serviceGapPenaltyAbove {
		score -= serviceGapPenalty
	}
	if d.InsuranceRisk > insuranceRiskPenaltyAbove {
		score -= insuranceRiskPenalty
	}
	if d.StructuralRisk > structuralRiskPenaltyAbove {
		score -= structuralRiskPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}

// indexSupportPenalties maps each explainable index to the penalty applied
// when its primary supporting source has zero records.
var indexSupportPenalties = map[string]int{
	model.TargetTrustIndex:            25,
	model.TargetReliabilityIndex:      20,
	model.TargetMaintenanceDiscipline: 25,
	model.TargetStructuralRisk:        20,
	model.TargetMechanicalRisk:        20,
	model.TargetInsuranceRisk:         20,
}

// supportCount returns the record count of the source backing an index.
func supportCount(key string, src model.DataSources) int {
	switch key {
	case model.TargetTrustIndex:
		return len(src.KmHistory)
	case model.TargetReliabilityIndex, model.TargetMechanicalRisk:
		return len(src.ObdRecords)
	case model.TargetMaintenanceDiscipline:
		return len(src.ServiceRecords)
	case model.TargetStructuralRisk:
		return len(src.DamageRecords)
	case model.TargetInsuranceRisk:
		return len(src.InsuranceRecords)
	}
	return 0
}

// IndexConfidence returns the confidence for one index, discounted when
// its supporting source is empty and floored at the index minimum.
func (a Assessment) IndexConfidence(key string, src model.DataSources) int {
	c := a.Overall
	if supportCount(key, src) == 0 {
		c -= indexSupportPenalties[key]
	}
	if c < indexConfidenceFloor {
		c = indexConfidenceFloor
	}
	return c
}

// SignalConfidence returns the confidence for one emitted signal. High
// severity claims need at least three evidence points to retain full
// confidence; a signal with no evidence at all is capped hard.
func (a Assessment) SignalConfidence(severity model.SignalSeverity, evidenceCount int) int {
	c := a.Overall
	if severity == model.SignalHigh && evidenceCount < highSeverityMinEvidence && c > thinEvidenceCap {
		c = thinEvidenceCap
	}
	if evidenceCount == 0 && c > zeroEvidenceCap {
		c = zeroEvidenceCap
	}
	return c
}
