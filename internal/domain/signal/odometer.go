package signal

import (
	"math"
	"sort"

	"github.com/okian/torque/internal/domain/model"
)

// Odometer analysis thresholds.
const (
	// rollbackThresholdKm is the minimum adjacent-pair decrease treated
	// as a rollback rather than reading noise.
	rollbackThresholdKm = 500

	// minVolatilityPoints is the minimum number of readings required
	// before a volatility score is computed.
	minVolatilityPoints = 3

	// Average daily km boundaries for usage classification.
	lowUsageDailyKm  = 20
	highUsageDailyKm = 70
)

// chronological returns a copy of records sorted ascending by date.
func chronological(records []model.KmRecord) []model.KmRecord {
	out := make([]model.KmRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AnalyzeKm derives rollback, volatility and usage metrics from an
// odometer history.
func AnalyzeKm(records []model.KmRecord) model.KmIntelligence {
	recs := chronological(records)

	var rollbackDelta int64
	evidence := 0
	for i := 1; i < len(recs); i++ {
		drop := recs[i-1].Km - recs[i].Km
		if drop > rollbackThresholdKm {
			rollbackDelta += drop
			evidence++
		}
	}

	return model.KmIntelligence{
		HasRollback:           evidence > 0,
		RollbackSeverity:      rollbackSeverity(recs, rollbackDelta),
		RollbackEvidenceCount: evidence,
		VolatilityScore:       volatility(recs),
		UsageClass:            usageClass(AvgDailyKm(recs)),
	}
}

// rollbackSeverity scales the total rolled-back distance against the
// overall mileage span covered by the history.
func rollbackSeverity(recs []model.KmRecord, rollbackDelta int64) int {
	if rollbackDelta == 0 {
		return 0
	}
	var minKm, maxKm int64
	minKm = recs[0].Km
	maxKm = recs[0].Km
	for _, r := range recs[1:] {
		if r.Km < minKm {
			minKm = r.Km
		}
		if r.Km > maxKm {
			maxKm = r.Km
		}
	}
	span := maxKm - minKm
	if span <= 0 {
		return maxScore
	}
	return Clamp(int(math.Round(100 * float64(rollbackDelta) / float64(span))))
}

// volatility measures how erratic the daily-km rate is across intervals.
// Only positive increments contribute; rollback intervals are already
// captured by rollback severity.
func volatility(recs []model.KmRecord) int {
	if len(recs) < minVolatilityPoints {
		return 0
	}
	var rates []float64
	for i := 1; i < len(recs); i++ {
		delta := recs[i].Km - recs[i-1].Km
		days := daysBetween(recs[i-1].Date, recs[i].Date)
		if delta > 0 && days > 0 {
			rates = append(rates, float64(delta)/days)
		}
	}
	m := mean(rates)
	if len(rates) < 2 || m == 0 {
		return 0
	}
	return Clamp(int(math.Round(100 * stdDev(rates) / m)))
}

// AvgDailyKm returns the average daily mileage over the covered period,
// or 0 when the history spans less than a day.
func AvgDailyKm(records []model.KmRecord) float64 {
	recs := chronological(records)
	if len(recs) < 2 {
		return 0
	}
	first, last := recs[0], recs[len(recs)-1]
	days := daysBetween(first.Date, last.Date)
	delta := last.Km - first.Km
	if days <= 0 || delta <= 0 {
		return 0
	}
	return float64(delta) / days
}

func usageClass(avgDaily float64) model.UsageClass {
	switch {
	case avgDaily == 0:
		return model.UsageNormal
	case avgDaily < lowUsageDailyKm:
		return model.UsageLow
	case avgDaily > highUsageDailyKm:
		return model.UsageHigh
	default:
		return model.UsageNormal
	}
}
