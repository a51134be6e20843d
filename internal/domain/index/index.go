// Package index combines signal analyzer outputs into the three
// top-level composite indexes. All formulas are pure functions of the
// derived metrics and the canonical sources; there is no hidden state.
package index

import (
	"math"
	"time"

	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/internal/domain/signal"
)

// Trust index weights.
const (
	anomalyTrustPenalty   = 50
	serviceGapTrustWeight = 0.2
	perDamageTrustPenalty = 10
	damageTrustPenaltyCap = 30
	perClaimTrustPenalty  = 15
	claimTrustPenaltyCap  = 40
	mismatchTrustWeight   = 0.25
)

// Reliability index weights.
const (
	mechanicalWeight            = 0.5
	serviceGapReliabilityWeight = 0.3
	perFaultPenalty             = 5
	faultPenaltyCap             = 20
	perRecentServiceBonus       = 3
	recentServiceBonusCap       = 20
)

// Maintenance discipline weights.
const (
	sparseHistoryPenalty  = 40
	sparseHistoryBelow    = 3
	staleServicePenalty   = 30
	serviceGapMaintWeight = 0.5
	anomalyMaintPenalty   = 20
	recentServiceYears    = 2
)

// Compute derives the three composite indexes from the analyzer outputs.
// now anchors the trailing-window recent-service count.
func Compute(d model.DerivedMetrics, src model.DataSources, now time.Time) model.IntelligenceIndexes {
	recent := RecentServiceCount(src.ServiceRecords, now)
	return model.IntelligenceIndexes{
		TrustIndex:            trustIndex(d),
		ReliabilityIndex:      reliabilityIndex(d, recent),
		MaintenanceDiscipline: maintenanceDiscipline(d, len(src.ServiceRecords), recent),
	}
}

// RecentServiceCount counts service records within the trailing two years.
func RecentServiceCount(records []model.ServiceRecord, now time.Time) int {
	cutoff := now.AddDate(-recentServiceYears, 0, 0)
	n := 0
	for _, r := range records {
		if !r.Date.Before(cutoff) {
			n++
		}
	}
	return n
}

func trustIndex(d model.DerivedMetrics) int {
	score := 100.0
	if d.OdometerAnomaly {
		score -= anomalyTrustPenalty
	}
	score -= serviceGapTrustWeight * float64(d.ServiceGapScore)
	score -= capped(perDamageTrustPenalty*d.InsuranceDamageCorrelation.DamageCount, damageTrustPenaltyCap)
	score -= capped(perClaimTrustPenalty*d.InsuranceDamageCorrelation.ClaimCount, claimTrustPenaltyCap)
	if d.InsuranceDamageCorrelation.MismatchType != model.MismatchNone {
		score -= mismatchTrustWeight * float64(d.InsuranceDamageCorrelation.CorrelationScore)
	}
	return signal.Clamp(int(math.Round(score)))
}

func reliabilityIndex(d model.DerivedMetrics, recentServices int) int {
	score := 100.0
	score -= mechanicalWeight * float64(d.MechanicalRisk)
	score -= serviceGapReliabilityWeight * float64(d.ServiceGapScore)
	score -= capped(perFaultPenalty*d.ObdIntelligence.TotalFaultCount, faultPenaltyCap)
	score += capped(perRecentServiceBonus*recentServices, recentServiceBonusCap)
	return signal.Clamp(int(math.Round(score)))
}

func maintenanceDiscipline(d model.DerivedMetrics, serviceCount, recentServices int) int {
	score := 100.0
	if serviceCount < sparseHistoryBelow {
		score -= sparseHistoryPenalty
	} else if recentServices == 0 {
		score -= staleServicePenalty
	}
	score += capped(perRecentServiceBonus*recentServices, recentServiceBonusCap)
	score -= serviceGapMaintWeight * float64(d.ServiceGapScore)
	if d.OdometerAnomaly {
		score -= anomalyMaintPenalty
	}
	return signal.Clamp(int(math.Round(score)))
}

func capped(v, limit int) float64 {
	if v > limit {
		v = limit
	}
	return float64(v)
}
