package signal

import (
	"sort"
	"strings"

	"github.com/okian/torque/internal/domain/model"
)

// Fault categories derived from code prefixes.
const (
	CategoryEngine       = "engine"
	CategoryTransmission = "transmission"
	CategoryEmission     = "emission"
	CategoryElectrical   = "electrical"
	CategoryBrake        = "brake"
	CategoryOther        = "other"
)

// Mechanical severity score weights.
const (
	faultCountWeight        = 10
	faultCountCap           = 50
	repeatPenalty           = 20
	highSeverityPenalty     = 30
	mediumSeverityPenalty   = 15
	perExtraCategoryPenalty = 5
)

// CategorizeFault maps an OBD-II fault code to a coarse category by its
// prefix. Codes are expected uppercase (the normalizer guarantees it).
func CategorizeFault(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case code == "":
		return CategoryOther
	case strings.HasPrefix(code, "C"):
		return CategoryBrake
	case strings.HasPrefix(code, "B"), strings.HasPrefix(code, "U"):
		return CategoryElectrical
	case strings.HasPrefix(code, "P04"):
		return CategoryEmission
	case strings.HasPrefix(code, "P07"), strings.HasPrefix(code, "P08"), strings.HasPrefix(code, "P09"):
		return CategoryTransmission
	case strings.HasPrefix(code, "P"):
		return CategoryEngine
	default:
		return CategoryOther
	}
}

// AnalyzeObd derives fault categorization, repeat patterns and the
// mechanical severity score from the OBD history.
func AnalyzeObd(records []model.ObdRecord) model.ObdIntelligence {
	counts := make(map[string]int, len(records))
	categories := make(map[string]int)
	for _, r := range records {
		counts[r.FaultCode]++
		categories[CategorizeFault(r.FaultCode)]++
	}

	var repeated []string
	drivetrainRepeat := false
	for code, n := range counts {
		if n < 2 {
			continue
		}
		repeated = append(repeated, code)
		switch CategorizeFault(code) {
		case CategoryEngine, CategoryTransmission:
			drivetrainRepeat = true
		}
	}
	sort.Strings(repeated)

	severity := model.FaultLow
	switch {
	case drivetrainRepeat:
		severity = model.FaultHigh
	case len(categories) > 1:
		severity = model.FaultMedium
	}

	out := model.ObdIntelligence{
		TotalFaultCount:   len(records),
		UniqueFaultCodes:  len(counts),
		CategoryBreakdown: categories,
		HighestSeverity:   severity,
		RepeatedFaults:    repeated,
	}
	out.SeverityScore = severityScore(out)
	return out
}

func severityScore(o model.ObdIntelligence) int {
	if o.TotalFaultCount == 0 {
		return 0
	}
	score := o.TotalFaultCount * faultCountWeight
	if score > faultCountCap {
		score = faultCountCap
	}
	if len(o.RepeatedFaults) > 0 {
		score += repeatPenalty
	}
	switch o.HighestSeverity {
	case model.FaultHigh:
		score += highSeverityPenalty
	case model.FaultMedium:
		score += mediumSeverityPenalty
	}
	if n := len(o.CategoryBreakdown); n > 1 {
		score += perExtraCategoryPenalty * (n - 1)
	}
	return Clamp(score)
}
