// Package normalize converts loosely shaped raw records into canonical
// domain records.
//
// Raw records arrive as generic maps whose field names vary by upstream
// source (date vs. timestamp vs. occurredAt, km vs. odometer, ...). Each
// normalizer tries an ordered list of field-name candidates and
// short-circuits on the first match. Records missing required fields or
// carrying unparsable dates are dropped; dropping is not an error,
// absence is evidence.
//
// All functions are pure: no side effects, inputs are never mutated.
package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/torque/internal/domain/model"
)

// Raw is a loosely shaped record as delivered by a data provider.
type Raw map[string]any

// Bundle is the raw per-vehicle payload returned by a data provider.
type Bundle struct {
	KmHistory        []Raw `json:"km_history"`
	ObdRecords       []Raw `json:"obd_records"`
	InsuranceRecords []Raw `json:"insurance_records"`
	DamageRecords    []Raw `json:"damage_records"`
	ServiceRecords   []Raw `json:"service_records"`
}

// Field-name candidate lists, in precedence order.
var (
	dateFields        = []string{"date", "timestamp", "occurredAt", "occurred_at", "ts", "recordedAt", "recorded_at"}
	kmFields          = []string{"km", "odometer", "mileage", "reading", "value"}
	faultCodeFields   = []string{"faultCode", "fault_code", "code", "dtc"}
	typeFields        = []string{"type", "eventType", "event_type", "kind"}
	severityFields    = []string{"severity", "level", "impact"}
	descriptionFields = []string{"description", "desc", "details", "note"}
)

// Accepted date layouts, tried in order after RFC3339.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// pickField returns the first candidate key present in r.
func pickField(r Raw, candidates []string) (any, bool) {
	for _, key := range candidates {
		if v, ok := r[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// parseDate extracts and parses a date from r, trying the candidate keys
// in precedence order. Numeric values are treated as Unix timestamps
// (milliseconds when large enough to be unambiguous).
func parseDate(r Raw) (time.Time, bool) {
	v, ok := pickField(r, dateFields)
	if !ok {
		return time.Time{}, false
	}
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	case float64:
		return unixTime(int64(d)), true
	case int64:
		return unixTime(d), true
	case int:
		return unixTime(int64(d)), true
	}
	return time.Time{}, false
}

// millisThreshold distinguishes second from millisecond Unix timestamps.
// Values above it cannot be plausible second-resolution dates.
const millisThreshold = int64(1e11)

func unixTime(v int64) time.Time {
	if v > millisThreshold {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// parseNumber coerces a raw value into an int64.
func parseNumber(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	}
	return 0, false
}

// parseString coerces a raw value into a trimmed string.
func parseString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// KmRecord normalizes one raw odometer reading.
func KmRecord(r Raw) (model.KmRecord, bool) {
	date, ok := parseDate(r)
	if !ok {
		return model.KmRecord{}, false
	}
	v, ok := pickField(r, kmFields)
	if !ok {
		return model.KmRecord{}, false
	}
	km, ok := parseNumber(v)
	if !ok || km < 0 {
		return model.KmRecord{}, false
	}
	return model.KmRecord{Date: date, Km: km}, true
}

// ObdRecord normalizes one raw fault-code record. Fault codes are
// uppercased.
func ObdRecord(r Raw) (model.ObdRecord, bool) {
	date, ok := parseDate(r)
	if !ok {
		return model.ObdRecord{}, false
	}
	v, ok := pickField(r, faultCodeFields)
	if !ok {
		return model.ObdRecord{}, false
	}
	code, ok := parseString(v)
	if !ok {
		return model.ObdRecord{}, false
	}
	return model.ObdRecord{Date: date, FaultCode: strings.ToUpper(code)}, true
}

// InsuranceRecord normalizes one raw insurance event. Records with an
// unknown event type are dropped.
func InsuranceRecord(r Raw) (model.InsuranceRecord, bool) {
	date, ok := parseDate(r)
	if !ok {
		return model.InsuranceRecord{}, false
	}
	v, ok := pickField(r, typeFields)
	if !ok {
		return model.InsuranceRecord{}, false
	}
	s, ok := parseString(v)
	if !ok {
		return model.InsuranceRecord{}, false
	}
	t := model.InsuranceEventType(strings.ToLower(s))
	if !t.Valid() {
		return model.InsuranceRecord{}, false
	}
	return model.InsuranceRecord{Date: date, Type: t}, true
}

// DamageRecord normalizes one raw damage event. Unknown severities
// default to minor rather than dropping the record; a damage event with
// a bad severity label is still a damage event.
func DamageRecord(r Raw) (model.DamageRecord, bool) {
	date, ok := parseDate(r)
	if !ok {
		return model.DamageRecord{}, false
	}
	severity := model.DamageMinor
	if v, ok := pickField(r, severityFields); ok {
		if s, ok := parseString(v); ok {
			if sev := model.DamageSeverity(strings.ToLower(s)); sev.Valid() {
				severity = sev
			}
		}
	}
	desc := ""
	if v, ok := pickField(r, descriptionFields); ok {
		desc, _ = parseString(v)
	}
	return model.DamageRecord{Date: date, Severity: severity, Description: desc}, true
}

// ServiceRecord normalizes one raw service event.
func ServiceRecord(r Raw) (model.ServiceRecord, bool) {
	date, ok := parseDate(r)
	if !ok {
		return model.ServiceRecord{}, false
	}
	typ := "service"
	if v, ok := pickField(r, typeFields); ok {
		if s, ok := parseString(v); ok {
			typ = strings.ToLower(s)
		}
	}
	desc := ""
	if v, ok := pickField(r, descriptionFields); ok {
		desc, _ = parseString(v)
	}
	return model.ServiceRecord{Date: date, Type: typ, Description: desc}, true
}

// KmRecords normalizes a raw odometer history: invalid entries dropped,
// deduplicated by exact date, sorted ascending by date.
func KmRecords(raw []Raw) []model.KmRecord {
	out := make([]model.KmRecord, 0, len(raw))
	seen := make(map[time.Time]struct{}, len(raw))
	for _, r := range raw {
		rec, ok := KmRecord(r)
		if !ok {
			continue
		}
		if _, dup := seen[rec.Date]; dup {
			continue
		}
		seen[rec.Date] = struct{}{}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ObdRecords normalizes raw fault-code records, sorted descending by date.
func ObdRecords(raw []Raw) []model.ObdRecord {
	out := make([]model.ObdRecord, 0, len(raw))
	for _, r := range raw {
		if rec, ok := ObdRecord(r); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// InsuranceRecords normalizes raw insurance events, sorted descending by date.
func InsuranceRecords(raw []Raw) []model.InsuranceRecord {
	out := make([]model.InsuranceRecord, 0, len(raw))
	for _, r := range raw {
		if rec, ok := InsuranceRecord(r); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// DamageRecords normalizes raw damage events, sorted descending by date.
func DamageRecords(raw []Raw) []model.DamageRecord {
	out := make([]model.DamageRecord, 0, len(raw))
	for _, r := range raw {
		if rec, ok := DamageRecord(r); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// ServiceRecords normalizes raw service events, sorted descending by date.
func ServiceRecords(raw []Raw) []model.ServiceRecord {
	out := make([]model.ServiceRecord, 0, len(raw))
	for _, r := range raw {
		if rec, ok := ServiceRecord(r); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Sources normalizes a full raw bundle into canonical DataSources.
func Sources(b Bundle) model.DataSources {
	return model.DataSources{
		KmHistory:        KmRecords(b.KmHistory),
		ObdRecords:       ObdRecords(b.ObdRecords),
		InsuranceRecords: InsuranceRecords(b.InsuranceRecords),
		DamageRecords:    DamageRecords(b.DamageRecords),
		ServiceRecords:   ServiceRecords(b.ServiceRecords),
	}
}
