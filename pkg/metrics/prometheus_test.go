package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/torque/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording across every collector", func() {
			record := func() {
				metrics.RecordBuild()
				metrics.RecordBuildFallback()
				metrics.ObserveBuildDuration(0.12)
				metrics.RecordCacheHit()
				metrics.RecordCacheMiss()
				metrics.RecordCacheExpiry()
				metrics.RecordVIOGenerated()
				metrics.RecordVIOFailed()
				metrics.UpdateRebuildQueueSize(3)
				metrics.UpdateRebuildQueueCapacity(100)
				metrics.RecordRebuildEnqueued()
				metrics.RecordRebuildDuplicate()
				metrics.UpdateWorkerCount(4)
				metrics.UpdateFleetSize(12)
				metrics.RecordHTTPRequest("/healthz", "200")
				metrics.ObserveHTTPDuration("/healthz", 0.001)
			}

			Convey("Then nothing panics", func() {
				So(record, ShouldNotPanic)
			})
		})

		Convey("When scraping the exposition endpoint", func() {
			metrics.RecordBuild()
			metrics.RecordHTTPRequest("/healthz", "200")
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			metrics.Handler().ServeHTTP(rec, req)

			Convey("Then registered series are exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "torque_intelligence_builds_total")
				So(rec.Body.String(), ShouldContainSubstring, "torque_intelligence_http_requests_total")
			})
		})
	})
}

func TestManagerOptions(t *testing.T) {
	Convey("Given a manager with a custom namespace", t, func() {
		m := metrics.NewManager(metrics.WithNamespace("garage"), metrics.WithSubsystem("scoring"))

		Convey("When scraping its handler", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, req)

			Convey("Then series carry the custom prefix", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "garage_scoring_fleet_size")
			})
		})
	})
}
