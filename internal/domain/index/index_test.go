package index_test

import (
	"testing"
	"time"

	"github.com/okian/torque/internal/domain/index"
	"github.com/okian/torque/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestCompute(t *testing.T) {
	Convey("Given a completely clean, well-serviced vehicle", t, func() {
		src := model.DataSources{
			ServiceRecords: []model.ServiceRecord{
				{Date: now.AddDate(0, -3, 0)},
				{Date: now.AddDate(0, -9, 0)},
				{Date: now.AddDate(-1, -3, 0)},
			},
		}
		d := model.DerivedMetrics{ServiceGapScore: 0}

		idx := index.Compute(d, src, now)

		Convey("Then trust is perfect", func() {
			So(idx.TrustIndex, ShouldEqual, 100)
		})

		Convey("Then reliability clamps at 100 with the service bonus", func() {
			So(idx.ReliabilityIndex, ShouldEqual, 100)
		})

		Convey("Then maintenance discipline clamps at 100", func() {
			// 100 + 9 bonus - 0 gap, clamped
			So(idx.MaintenanceDiscipline, ShouldEqual, 100)
		})
	})

	Convey("Given no data at all", t, func() {
		d := model.DerivedMetrics{ServiceGapScore: 100}
		idx := index.Compute(d, model.DataSources{}, now)

		Convey("Then trust reflects only the service gap", func() {
			// 100 - 0.2*100 = 80
			So(idx.TrustIndex, ShouldEqual, 80)
		})

		Convey("Then reliability reflects the service gap", func() {
			// 100 - 0.3*100 = 70
			So(idx.ReliabilityIndex, ShouldEqual, 70)
		})

		Convey("Then maintenance discipline bottoms out", func() {
			// 100 - 40 sparse - 0.5*100 gap = 10
			So(idx.MaintenanceDiscipline, ShouldEqual, 10)
		})
	})

	Convey("Given an odometer anomaly with an insurance mismatch", t, func() {
		d := model.DerivedMetrics{
			OdometerAnomaly: true,
			ServiceGapScore: 50,
			InsuranceDamageCorrelation: model.InsuranceDamageCorrelation{
				ClaimCount:       3,
				DamageCount:      1,
				MismatchType:     model.MismatchClaimsWithoutDamage,
				CorrelationScore: 40,
			},
		}

		idx := index.Compute(d, model.DataSources{}, now)

		Convey("Then every trust penalty stacks", func() {
			// 100 - 50 anomaly - 10 gap - 10 damage - 40 claims(cap) - 10 mismatch = -20 -> 0
			So(idx.TrustIndex, ShouldEqual, 0)
		})
	})

	Convey("Given heavy mechanical trouble", t, func() {
		d := model.DerivedMetrics{
			MechanicalRisk:  80,
			ServiceGapScore: 20,
			ObdIntelligence: model.ObdIntelligence{TotalFaultCount: 6},
		}

		idx := index.Compute(d, model.DataSources{}, now)

		Convey("Then reliability drops sharply", func() {
			// 100 - 40 mech - 6 gap - 20 faults(cap) = 34
			So(idx.ReliabilityIndex, ShouldEqual, 34)
		})
	})

	Convey("Given an aged-out service history", t, func() {
		src := model.DataSources{
			ServiceRecords: []model.ServiceRecord{
				{Date: now.AddDate(-3, 0, 0)},
				{Date: now.AddDate(-4, 0, 0)},
				{Date: now.AddDate(-5, 0, 0)},
			},
		}
		d := model.DerivedMetrics{ServiceGapScore: 60}

		idx := index.Compute(d, src, now)

		Convey("Then the stale-service penalty applies instead of the sparse one", func() {
			// 100 - 30 stale - 0.5*60 gap = 40
			So(idx.MaintenanceDiscipline, ShouldEqual, 40)
		})
	})
}

func TestRecentServiceCount(t *testing.T) {
	Convey("Given services straddling the two year cutoff", t, func() {
		records := []model.ServiceRecord{
			{Date: now.AddDate(0, -6, 0)},
			{Date: now.AddDate(-1, -6, 0)},
			{Date: now.AddDate(-2, -1, 0)},
			{Date: now.AddDate(-4, 0, 0)},
		}

		Convey("Then only services within the window count", func() {
			So(index.RecentServiceCount(records, now), ShouldEqual, 2)
		})
	})

	Convey("Given no services", t, func() {
		So(index.RecentServiceCount(nil, now), ShouldEqual, 0)
	})
}
