package signal

import (
	"math"
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Structural risk decay parameters. A damage event contributes its full
// weight when fresh and decays linearly to zero over its window.
const (
	majorDamageWeight    = 50
	majorDamageDecayDays = 730

	minorDamageWeight    = 10
	minorDamageDecayDays = 365
)

// StructuralRisk sums the decayed contribution of every damage record.
func StructuralRisk(records []model.DamageRecord, now time.Time) int {
	var total float64
	for _, r := range records {
		age := daysBetween(r.Date, now)
		if age < 0 {
			age = 0
		}
		switch r.Severity {
		case model.DamageMajor:
			total += decayed(majorDamageWeight, age, majorDamageDecayDays)
		case model.DamageMinor:
			total += decayed(minorDamageWeight, age, minorDamageDecayDays)
		}
	}
	return Clamp(int(math.Round(total)))
}

func decayed(weight float64, ageDays, windowDays float64) float64 {
	if ageDays >= windowDays {
		return 0
	}
	return weight * (1 - ageDays/windowDays)
}
