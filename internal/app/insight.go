package app

import (
	"fmt"
	"strings"

	"github.com/okian/torque/internal/domain/model"
)

// Insight phrasing thresholds.
const (
	goodIndexAt = 70
	poorIndexAt = 40
)

// buildInsight renders a short plain-language summary of the computed
// indexes and the leading findings. It reads only already-computed
// values, mirroring the reason codes rather than re-deriving anything.
func buildInsight(d model.DerivedMetrics, idx model.IntelligenceIndexes, explain model.Explain) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Trust %d/100, reliability %d/100, maintenance discipline %d/100.",
		idx.TrustIndex, idx.ReliabilityIndex, idx.MaintenanceDiscipline)

	switch {
	case d.KmIntelligence.HasRollback:
		fmt.Fprintf(&b, " Odometer history shows signs of rollback (severity %d).",
			d.KmIntelligence.RollbackSeverity)
	case idx.TrustIndex >= goodIndexAt:
		b.WriteString(" Odometer and claims history look consistent.")
	}

	if d.InsuranceDamageCorrelation.MismatchType != model.MismatchNone {
		fmt.Fprintf(&b, " Insurance and damage records disagree (%s).",
			d.InsuranceDamageCorrelation.MismatchType)
	}

	if highs := highSeverityCount(explain); highs > 0 {
		fmt.Fprintf(&b, " %d high-severity finding(s) need review.", highs)
	} else if idx.TrustIndex >= goodIndexAt && idx.ReliabilityIndex >= goodIndexAt {
		b.WriteString(" No high-severity findings.")
	}

	if idx.MaintenanceDiscipline < poorIndexAt {
		b.WriteString(" Service history is thin or irregular.")
	}

	return b.String()
}

func highSeverityCount(explain model.Explain) int {
	n := 0
	for _, codes := range explain.Reasons {
		for _, rc := range codes {
			if rc.Severity == model.ReasonHigh {
				n++
			}
		}
	}
	return n
}
