// Package signal implements the stateless signal analyzers that derive
// risk and discipline metrics from canonical vehicle records.
//
// Every analyzer is a pure function of its own slice of the data sources
// plus an explicit reference time; none of them share state, so callers
// may run them in any order or concurrently. All returned scores are
// clamped to [0,100].
package signal

import (
	"math"
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Score bounds.
const (
	minScore = 0
	maxScore = 100
)

// Clamp bounds a score to [0,100].
func Clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

// ClampF bounds a float score to [0,100].
func ClampF(v float64) float64 {
	return math.Max(minScore, math.Min(maxScore, v))
}

// mean returns the arithmetic mean of vs, or 0 for an empty slice.
func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// stdDev returns the population standard deviation of vs.
func stdDev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	var sum float64
	for _, v := range vs {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vs)))
}

// daysBetween returns the whole number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}

// Analyze runs every analyzer over src and assembles the full derived
// metric set. now anchors all trailing-window and decay computations so
// rebuilds over identical input are byte-identical apart from timestamps.
func Analyze(src model.DataSources, now time.Time) model.DerivedMetrics {
	km := AnalyzeKm(src.KmHistory)
	discipline := AnalyzeServiceDiscipline(src.ServiceRecords, src.KmHistory, now)
	obd := AnalyzeObd(src.ObdRecords)
	return model.DerivedMetrics{
		OdometerAnomaly:            km.HasRollback,
		KmIntelligence:             km,
		ServiceGapScore:            ServiceGapScore(src.ServiceRecords, discipline),
		ServiceDiscipline:          discipline,
		StructuralRisk:             StructuralRisk(src.DamageRecords, now),
		MechanicalRisk:             obd.SeverityScore,
		InsuranceRisk:              InsuranceRisk(src.InsuranceRecords, now),
		ObdIntelligence:            obd,
		InsuranceDamageCorrelation: InsuranceDamageCorrelation(src.InsuranceRecords, src.DamageRecords),
	}
}
