package signal

import (
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Insurance risk weights over the trailing window.
const (
	insuranceWindowDays = 365
	claimPenalty        = 30
	lapsePenalty        = 40
	inquiryPenalty      = 15
	inquiryPenaltyMin   = 3 // penalty applies from this many inquiries
	noInsuranceBaseline = 20
)

// InsuranceRisk scores insurance events within the trailing 365 days.
// A vehicle with no insurance history at all carries a small baseline
// risk: absence of coverage data is itself a weak negative signal.
func InsuranceRisk(records []model.InsuranceRecord, now time.Time) int {
	if len(records) == 0 {
		return noInsuranceBaseline
	}
	cutoff := now.AddDate(0, 0, -insuranceWindowDays)
	score := 0
	inquiries := 0
	for _, r := range records {
		if r.Date.Before(cutoff) {
			continue
		}
		switch r.Type {
		case model.InsuranceClaim:
			score += claimPenalty
		case model.InsuranceLapse:
			score += lapsePenalty
		case model.InsuranceInquiry:
			inquiries++
		}
	}
	if inquiries >= inquiryPenaltyMin {
		score += inquiryPenalty
	}
	return Clamp(score)
}
