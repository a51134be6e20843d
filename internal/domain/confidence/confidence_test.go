package confidence_test

import (
	"testing"
	"time"

	"github.com/okian/torque/internal/domain/confidence"
	"github.com/okian/torque/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func kmHistory(n int) []model.KmRecord {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.KmRecord, n)
	for i := range out {
		out[i] = model.KmRecord{Date: base.AddDate(0, 0, i*30), Km: int64(10_000 + i*1_000)}
	}
	return out
}

func fullSources() model.DataSources {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.DataSources{
		KmHistory:        kmHistory(5),
		ServiceRecords:   []model.ServiceRecord{{Date: base}, {Date: base.AddDate(0, 5, 0)}, {Date: base.AddDate(0, 10, 0)}, {Date: base.AddDate(1, 3, 0)}, {Date: base.AddDate(1, 8, 0)}},
		InsuranceRecords: []model.InsuranceRecord{{Date: base, Type: model.InsurancePolicy}, {Date: base.AddDate(1, 0, 0), Type: model.InsuranceRenewal}, {Date: base.AddDate(0, 6, 0), Type: model.InsuranceInquiry}, {Date: base.AddDate(0, 9, 0), Type: model.InsurancePolicy}, {Date: base.AddDate(1, 6, 0), Type: model.InsuranceRenewal}},
		ObdRecords:       []model.ObdRecord{{Date: base, FaultCode: "P0420"}, {Date: base.AddDate(0, 1, 0), FaultCode: "P0171"}, {Date: base.AddDate(0, 2, 0), FaultCode: "P0300"}, {Date: base.AddDate(0, 3, 0), FaultCode: "P0301"}, {Date: base.AddDate(0, 4, 0), FaultCode: "P0302"}},
		DamageRecords:    []model.DamageRecord{{Date: base, Severity: model.DamageMinor}, {Date: base.AddDate(0, 3, 0), Severity: model.DamageMinor}, {Date: base.AddDate(0, 6, 0), Severity: model.DamageMinor}, {Date: base.AddDate(0, 9, 0), Severity: model.DamageMinor}, {Date: base.AddDate(1, 0, 0), Severity: model.DamageMinor}},
	}
}

func TestAssess(t *testing.T) {
	Convey("Given rich data across every source and consistent signals", t, func() {
		a := confidence.Assess(fullSources(), model.DerivedMetrics{})

		Convey("Then coverage and consistency are both full", func() {
			// five records per source reaches the full weight of each
			So(a.CoverageScore, ShouldEqual, 100)
			So(a.ConsistencyScore, ShouldEqual, 100)
			So(a.Overall, ShouldEqual, 100)
		})
	})

	Convey("Given no data at all", t, func() {
		a := confidence.Assess(model.DataSources{}, model.DerivedMetrics{ServiceGapScore: 100})

		Convey("Then coverage is zero", func() {
			So(a.CoverageScore, ShouldEqual, 0)
		})

		Convey("Then the wide service gap dents consistency", func() {
			So(a.ConsistencyScore, ShouldEqual, 85)
		})

		Convey("Then the overall blend weighs coverage higher", func() {
			// 0.6*0 + 0.4*85 = 34
			So(a.Overall, ShouldEqual, 34)
		})
	})

	Convey("Given a single record in one source", t, func() {
		src := model.DataSources{KmHistory: kmHistory(1)}
		a := confidence.Assess(src, model.DerivedMetrics{})

		Convey("Then presence earns most of that source's weight", func() {
			// 0.6 * 25 = 15
			So(a.CoverageScore, ShouldEqual, 15)
		})
	})

	Convey("Given contradictory signals", t, func() {
		d := model.DerivedMetrics{
			OdometerAnomaly: true,
			ServiceGapScore: 90,
			InsuranceRisk:   80,
			StructuralRisk:  80,
		}
		a := confidence.Assess(fullSources(), d)

		Convey("Then every consistency penalty applies", func() {
			// 100 - 35 - 15 - 10 - 15 = 25
			So(a.ConsistencyScore, ShouldEqual, 25)
		})
	})
}

func TestIndexConfidence(t *testing.T) {
	Convey("Given a full-coverage assessment", t, func() {
		src := fullSources()
		a := confidence.Assess(src, model.DerivedMetrics{})

		Convey("Then a well-supported index keeps the overall confidence", func() {
			So(a.IndexConfidence(model.TargetTrustIndex, src), ShouldEqual, a.Overall)
		})

		Convey("Then removing the supporting source applies the index penalty", func() {
			src.KmHistory = nil
			So(a.IndexConfidence(model.TargetTrustIndex, src), ShouldEqual, a.Overall-25)
		})
	})

	Convey("Given a low-confidence assessment", t, func() {
		a := confidence.Assess(model.DataSources{}, model.DerivedMetrics{})

		Convey("Then the index confidence never drops below the floor", func() {
			So(a.IndexConfidence(model.TargetTrustIndex, model.DataSources{}), ShouldEqual, 30)
		})
	})
}

func TestSignalConfidence(t *testing.T) {
	Convey("Given a full-confidence assessment", t, func() {
		a := confidence.Assess(fullSources(), model.DerivedMetrics{})

		Convey("Then a high severity signal with thin evidence is capped", func() {
			So(a.SignalConfidence(model.SignalHigh, 1), ShouldEqual, 80)
		})

		Convey("Then three evidence points lift the cap", func() {
			So(a.SignalConfidence(model.SignalHigh, 3), ShouldEqual, a.Overall)
		})

		Convey("Then a signal with no evidence is capped hard", func() {
			So(a.SignalConfidence(model.SignalMedium, 0), ShouldEqual, 30)
		})

		Convey("Then lower severities with some evidence keep full confidence", func() {
			So(a.SignalConfidence(model.SignalLow, 1), ShouldEqual, a.Overall)
		})
	})
}
