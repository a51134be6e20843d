package signal

import (
	"math"
	"sort"
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Service discipline thresholds.
const (
	// serviceGraceDays is the inter-service gap with no penalty.
	serviceGraceDays = 180
	// timeGapPenaltyPer10Days is subtracted per 10 days beyond the grace gap.
	timeGapPenaltyPer10Days = 5

	// serviceGraceKm is the inter-service mileage interval with no penalty.
	serviceGraceKm = 15000
	// kmGapPenaltyPer1000Km is subtracted per 1,000 km beyond the grace interval.
	kmGapPenaltyPer1000Km = 2

	// Discipline score blend weights.
	regularityWeight = 0.5
	timeGapWeight    = 0.3
	kmGapWeight      = 0.2

	// maxRiskServiceGap is the serviceGapScore default when a vehicle has
	// no service history at all.
	maxRiskServiceGap = 100
)

// serviceDates returns service dates sorted ascending.
func serviceDates(records []model.ServiceRecord) []model.ServiceRecord {
	out := make([]model.ServiceRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AnalyzeServiceDiscipline derives interval-discipline metrics from the
// service history, using the odometer history to estimate km intervals.
// The open interval from the last service to now counts as a gap; a
// vehicle serviced once five years ago is not disciplined.
func AnalyzeServiceDiscipline(records []model.ServiceRecord, km []model.KmRecord, now time.Time) model.ServiceDiscipline {
	if len(records) == 0 {
		return model.ServiceDiscipline{}
	}
	recs := serviceDates(records)
	last := recs[len(recs)-1].Date

	gaps := dayGaps(recs, now)
	timeGap := timeGapScore(gaps)
	kmGap := kmGapScore(recs, km)
	regularity := regularityScore(gaps)
	discipline := Clamp(int(math.Round(
		regularityWeight*float64(regularity) +
			timeGapWeight*float64(timeGap) +
			kmGapWeight*float64(kmGap))))

	days := int(daysBetween(last, now))
	if days < 0 {
		days = 0
	}
	out := model.ServiceDiscipline{
		TimeGapScore:         timeGap,
		KmGapScore:           kmGap,
		RegularityScore:      regularity,
		DisciplineScore:      discipline,
		LastServiceDate:      &last,
		DaysSinceLastService: &days,
	}
	if est, ok := estimatedKmSince(last, km); ok {
		out.EstimatedKmSinceLastService = &est
	}
	return out
}

// dayGaps returns the day lengths of all inter-service intervals plus the
// trailing interval up to now.
func dayGaps(recs []model.ServiceRecord, now time.Time) []float64 {
	var gaps []float64
	for i := 1; i < len(recs); i++ {
		gaps = append(gaps, daysBetween(recs[i-1].Date, recs[i].Date))
	}
	if tail := daysBetween(recs[len(recs)-1].Date, now); tail > 0 {
		gaps = append(gaps, tail)
	}
	return gaps
}

// timeGapScore penalizes the worst gap beyond the grace period.
func timeGapScore(gaps []float64) int {
	if len(gaps) == 0 {
		return maxScore
	}
	var worst float64
	for _, g := range gaps {
		if g > worst {
			worst = g
		}
	}
	over := worst - serviceGraceDays
	if over <= 0 {
		return maxScore
	}
	penalty := timeGapPenaltyPer10Days * over / 10
	return Clamp(int(math.Round(maxScore - penalty)))
}

// kmGapScore penalizes the worst estimated km interval between services.
// Each service date is mapped to the nearest odometer reading at or
// before it; intervals without readings on both ends are skipped.
func kmGapScore(recs []model.ServiceRecord, km []model.KmRecord) int {
	kms := chronological(km)
	var prev *int64
	var worst int64
	for _, svc := range recs {
		at, ok := kmAtOrBefore(kms, svc.Date)
		if !ok {
			continue
		}
		if prev != nil && at-*prev > worst {
			worst = at - *prev
		}
		v := at
		prev = &v
	}
	over := worst - serviceGraceKm
	if over <= 0 {
		return maxScore
	}
	penalty := float64(kmGapPenaltyPer1000Km) * float64(over) / 1000
	return Clamp(int(math.Round(maxScore - penalty)))
}

// regularityScore penalizes a high coefficient of variation across gaps:
// evenly spaced services score high even when the cadence is slow.
func regularityScore(gaps []float64) int {
	if len(gaps) < 2 {
		return maxScore
	}
	m := mean(gaps)
	if m == 0 {
		return maxScore
	}
	cv := stdDev(gaps) / m
	return Clamp(int(math.Round(maxScore - 100*cv)))
}

// kmAtOrBefore returns the km value of the latest reading at or before t.
// kms must be sorted ascending by date.
func kmAtOrBefore(kms []model.KmRecord, t time.Time) (int64, bool) {
	var (
		best  int64
		found bool
	)
	for _, r := range kms {
		if r.Date.After(t) {
			break
		}
		best = r.Km
		found = true
	}
	return best, found
}

// estimatedKmSince estimates the distance covered since the last service
// from the latest odometer reading.
func estimatedKmSince(lastService time.Time, km []model.KmRecord) (int64, bool) {
	kms := chronological(km)
	if len(kms) == 0 {
		return 0, false
	}
	at, ok := kmAtOrBefore(kms, lastService)
	if !ok {
		return 0, false
	}
	latest := kms[len(kms)-1].Km
	if latest < at {
		return 0, false
	}
	return latest - at, true
}

// ServiceGapScore is the canonical risk-polarity service gap metric: the
// inversion of the time-gap discipline score. A vehicle with no service
// history takes the maximum-risk default.
func ServiceGapScore(records []model.ServiceRecord, d model.ServiceDiscipline) int {
	if len(records) == 0 {
		return maxRiskServiceGap
	}
	return Clamp(maxScore - d.TimeGapScore)
}
