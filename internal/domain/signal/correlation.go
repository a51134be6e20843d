package signal

import "github.com/okian/torque/internal/domain/model"

// Correlation score weights.
const (
	perUnmatchedEventPenalty = 10
	mismatchPenalty          = 20
)

// InsuranceDamageCorrelation cross-checks insurance claims against
// recorded damage events. Claims without recorded damage (or damage
// without claims) indicate incomplete or inconsistent history.
func InsuranceDamageCorrelation(insurance []model.InsuranceRecord, damage []model.DamageRecord) model.InsuranceDamageCorrelation {
	claims := 0
	for _, r := range insurance {
		if r.Type == model.InsuranceClaim {
			claims++
		}
	}
	damages := len(damage)

	matched := claims
	if damages < matched {
		matched = damages
	}

	mismatch := model.MismatchNone
	switch {
	case claims > damages:
		mismatch = model.MismatchClaimsWithoutDamage
	case damages > claims:
		mismatch = model.MismatchDamageWithoutClaims
	}

	diff := claims - damages
	if diff < 0 {
		diff = -diff
	}
	score := perUnmatchedEventPenalty * diff
	if mismatch != model.MismatchNone {
		score += mismatchPenalty
	}

	return model.InsuranceDamageCorrelation{
		ClaimCount:       claims,
		DamageCount:      damages,
		MatchedEvents:    matched,
		MismatchType:     mismatch,
		CorrelationScore: Clamp(score),
	}
}
