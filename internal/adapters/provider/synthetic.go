package provider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/okian/torque/internal/domain/normalize"
)

// Profile selects the kind of history the synthetic provider fabricates.
type Profile string

// Synthetic history profiles.
const (
	ProfileClean     Profile = "clean"     // well-kept vehicle, regular services
	ProfileRollback  Profile = "rollback"  // tampered odometer plus claim mismatch
	ProfileNeglected Profile = "neglected" // long service gaps, stale history
	ProfileRisky     Profile = "risky"     // repeated faults, claims, damage
)

var profiles = []Profile{ProfileClean, ProfileRollback, ProfileNeglected, ProfileRisky}

// Synthetic fabricates deterministic per-vehicle histories. The same
// vehicle id always yields the same bundle, so rebuilds over synthetic
// data are reproducible. A vehicle id suffixed with ":<profile>" forces
// that profile; otherwise the profile is derived from the id hash.
type Synthetic struct {
	// baseTime anchors generated dates so tests can pin the clock.
	baseTime time.Time
}

// SyntheticOption applies a configuration option to the Synthetic provider.
type SyntheticOption func(*Synthetic)

// WithBaseTime pins the reference time used for generated dates.
func WithBaseTime(t time.Time) SyntheticOption {
	return func(s *Synthetic) {
		if !t.IsZero() {
			s.baseTime = t
		}
	}
}

// NewSynthetic creates a synthetic provider anchored at the current time.
func NewSynthetic(opts ...SyntheticOption) *Synthetic {
	s := &Synthetic{baseTime: time.Now().UTC()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchAll fabricates the raw bundle for vehicleID.
func (s *Synthetic) FetchAll(ctx context.Context, vehicleID, _, _ string) (normalize.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return normalize.Bundle{}, err
	}
	profile, seedID := profileFor(vehicleID)
	rng := rand.New(rand.NewSource(int64(hash(seedID)))) //nolint:gosec // deterministic fixture data
	g := generator{rng: rng, now: s.baseTime}

	switch profile {
	case ProfileRollback:
		return g.rollback(), nil
	case ProfileNeglected:
		return g.neglected(), nil
	case ProfileRisky:
		return g.risky(), nil
	default:
		return g.clean(), nil
	}
}

func profileFor(vehicleID string) (Profile, string) {
	if idx := strings.LastIndex(vehicleID, ":"); idx >= 0 {
		p := Profile(vehicleID[idx+1:])
		for _, known := range profiles {
			if p == known {
				return p, vehicleID[:idx]
			}
		}
	}
	return profiles[hash(vehicleID)%uint32(len(profiles))], vehicleID
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// generator fabricates record lists for one vehicle.
type generator struct {
	rng *rand.Rand
	now time.Time
}

func (g generator) date(daysAgo int) string {
	return g.now.AddDate(0, 0, -daysAgo).Format(time.RFC3339)
}

// kmHistory produces monthly readings walking back over years, growing by
// dailyKm per day with mild jitter.
func (g generator) kmHistory(years int, dailyKm int) []normalize.Raw {
	months := years * 12
	startKm := int64(20_000 + g.rng.Intn(40_000))
	var out []normalize.Raw
	for i := 0; i <= months; i++ {
		daysAgo := (months - i) * 30
		elapsed := int64(i) * 30 * int64(dailyKm)
		jitter := int64(g.rng.Intn(200))
		out = append(out, normalize.Raw{
			"date": g.date(daysAgo),
			"km":   float64(startKm + elapsed + jitter),
		})
	}
	return out
}

func (g generator) services(intervalDays, count int) []normalize.Raw {
	var out []normalize.Raw
	for i := 0; i < count; i++ {
		out = append(out, normalize.Raw{
			"date": g.date((count - i) * intervalDays),
			"type": "maintenance",
		})
	}
	return out
}

func (g generator) clean() normalize.Bundle {
	return normalize.Bundle{
		KmHistory:      g.kmHistory(4, 35),
		ServiceRecords: g.services(160, 8),
		InsuranceRecords: []normalize.Raw{
			{"date": g.date(300), "type": "renewal"},
			{"date": g.date(665), "type": "policy"},
		},
	}
}

func (g generator) rollback() normalize.Bundle {
	km := g.kmHistory(3, 40)
	// Drop the second-to-last reading well below its predecessor.
	if n := len(km); n >= 2 {
		prev := km[n-2]["km"].(float64)
		km[n-1]["km"] = prev - float64(15_000+g.rng.Intn(10_000))
	}
	return normalize.Bundle{
		KmHistory:      km,
		ServiceRecords: g.services(200, 4),
		InsuranceRecords: []normalize.Raw{
			{"date": g.date(120), "type": "claim"},
			{"date": g.date(400), "type": "policy"},
		},
		// No damage on record despite the claim.
	}
}

func (g generator) neglected() normalize.Bundle {
	return normalize.Bundle{
		KmHistory:      g.kmHistory(5, 25),
		ServiceRecords: g.services(540, 2),
		InsuranceRecords: []normalize.Raw{
			{"date": g.date(1200), "type": "lapse"},
		},
	}
}

func (g generator) risky() normalize.Bundle {
	faults := []string{"P0301", "P0301", "P0725", "C1234", "P0420"}
	var obd []normalize.Raw
	for i, code := range faults {
		obd = append(obd, normalize.Raw{
			"date":      g.date(60 + i*45),
			"faultCode": code,
		})
	}
	return normalize.Bundle{
		KmHistory:      g.kmHistory(3, 80),
		ObdRecords:     obd,
		ServiceRecords: g.services(300, 3),
		InsuranceRecords: []normalize.Raw{
			{"date": g.date(90), "type": "claim"},
			{"date": g.date(200), "type": "claim"},
			{"date": g.date(310), "type": "inquiry"},
		},
		DamageRecords: []normalize.Raw{
			{"date": g.date(95), "severity": "major", "description": "front collision"},
		},
	}
}
