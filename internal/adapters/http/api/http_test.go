package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/torque/internal/adapters/http/api"
	"github.com/okian/torque/internal/adapters/repository"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps is a canned Dependencies implementation.
type stubDeps struct {
	aggregate model.VehicleAggregate
	output    model.VehicleIntelligenceOutput
	outputErr error
	status    model.GenerationStatus
	statusErr error
	entries   []repository.Entry
	rankErr   error
	enqueueOK bool

	rebuilds int
	enqueues int
}

func (s *stubDeps) GetOrBuild(_ context.Context, vehicleID, _, _ string) model.VehicleAggregate {
	agg := s.aggregate
	agg.VehicleID = vehicleID
	return agg
}

func (s *stubDeps) Rebuild(_ context.Context, vehicleID, _, _ string) model.VehicleAggregate {
	s.rebuilds++
	agg := s.aggregate
	agg.VehicleID = vehicleID
	return agg
}

func (s *stubDeps) EnqueueRebuild(context.Context, string, string, string) bool {
	s.enqueues++
	return s.enqueueOK
}

func (s *stubDeps) Output(context.Context, string) (model.VehicleIntelligenceOutput, error) {
	return s.output, s.outputErr
}

func (s *stubDeps) Status(context.Context, string) (model.GenerationStatus, error) {
	return s.status, s.statusErr
}

func (s *stubDeps) TopN(_ context.Context, n int) ([]repository.Entry, error) {
	if s.rankErr != nil {
		return nil, s.rankErr
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return s.entries[:n], nil
}

func (s *stubDeps) RankOf(context.Context, string) (repository.Entry, error) {
	if s.rankErr != nil {
		return repository.Entry{}, s.rankErr
	}
	return s.entries[0], nil
}

func (s *stubDeps) Stats(context.Context) map[string]any {
	return map[string]any{"started": true}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps, 5).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func post(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestVehicleRoutes(t *testing.T) {
	Convey("Given a server over canned dependencies", t, func() {
		deps := &stubDeps{
			aggregate: model.VehicleAggregate{Indexes: model.IntelligenceIndexes{TrustIndex: 77}},
			output:    model.VehicleIntelligenceOutput{VehicleID: "veh-1", SchemaVersion: model.VIOSchemaVersion},
			status:    model.GenerationStatus{VehicleID: "veh-1", Status: model.GenerationOK},
			enqueueOK: true,
		}
		srv := newTestServer(deps)
		Reset(srv.Close)

		Convey("When requesting vehicle intelligence", func() {
			resp, body := get(t, srv.URL+"/vehicles/veh-1/intelligence?vin=VIN1")

			Convey("Then the aggregate is returned as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldContainSubstring, "application/json")

				var agg model.VehicleAggregate
				So(json.Unmarshal(body, &agg), ShouldBeNil)
				So(agg.VehicleID, ShouldEqual, "veh-1")
				So(agg.Indexes.TrustIndex, ShouldEqual, 77)
			})
		})

		Convey("When requesting the output document", func() {
			resp, body := get(t, srv.URL+"/vehicles/veh-1/output")

			Convey("Then the VIO comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var vio model.VehicleIntelligenceOutput
				So(json.Unmarshal(body, &vio), ShouldBeNil)
				So(vio.SchemaVersion, ShouldEqual, model.VIOSchemaVersion)
			})
		})

		Convey("When no output exists yet", func() {
			deps.outputErr = store.ErrNotFound
			resp, _ := get(t, srv.URL+"/vehicles/veh-1/output")

			Convey("Then a 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When requesting the generation status", func() {
			resp, body := get(t, srv.URL+"/vehicles/veh-1/status")

			Convey("Then the status comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var st model.GenerationStatus
				So(json.Unmarshal(body, &st), ShouldBeNil)
				So(st.Status, ShouldEqual, model.GenerationOK)
			})
		})

		Convey("When forcing a synchronous rebuild", func() {
			resp, _ := post(t, srv.URL+"/vehicles/veh-1/rebuild")

			Convey("Then the rebuild runs inline", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.rebuilds, ShouldEqual, 1)
			})
		})

		Convey("When forcing an async rebuild", func() {
			resp, body := post(t, srv.URL+"/vehicles/veh-1/rebuild?async=1")

			Convey("Then the request is queued with a 202", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(string(body), ShouldContainSubstring, "queued")
				So(deps.enqueues, ShouldEqual, 1)
				So(deps.rebuilds, ShouldEqual, 0)
			})
		})

		Convey("When the rebuild queue is full", func() {
			deps.enqueueOK = false
			resp, _ := post(t, srv.URL+"/vehicles/veh-1/rebuild?async=1")

			Convey("Then the backpressure surfaces as 503", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestFleetRoutes(t *testing.T) {
	Convey("Given a server with a ranked fleet", t, func() {
		deps := &stubDeps{
			entries: []repository.Entry{
				{Rank: 1, VehicleID: "veh-c", Trust: 95},
				{Rank: 2, VehicleID: "veh-a", Trust: 90},
				{Rank: 3, VehicleID: "veh-b", Trust: 70},
			},
		}
		srv := newTestServer(deps)
		Reset(srv.Close)

		Convey("When requesting the ranking with a limit", func() {
			resp, body := get(t, srv.URL+"/fleet/ranking?limit=2")

			Convey("Then the top entries are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []repository.Entry
				So(json.Unmarshal(body, &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].VehicleID, ShouldEqual, "veh-c")
			})
		})

		Convey("When the limit exceeds the configured maximum", func() {
			resp, body := get(t, srv.URL+"/fleet/ranking?limit=9999")

			Convey("Then the limit is capped instead of rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entries []repository.Entry
				So(json.Unmarshal(body, &entries), ShouldBeNil)
				So(len(entries), ShouldBeLessThanOrEqualTo, 5)
			})
		})

		Convey("When the limit is not a number", func() {
			resp, _ := get(t, srv.URL+"/fleet/ranking?limit=lots")

			Convey("Then a 400 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting a single vehicle's rank", func() {
			resp, body := get(t, srv.URL+"/fleet/rank/veh-c")

			Convey("Then the entry comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var entry repository.Entry
				So(json.Unmarshal(body, &entry), ShouldBeNil)
				So(entry.VehicleID, ShouldEqual, "veh-c")
			})
		})

		Convey("When the vehicle is not ranked", func() {
			deps.rankErr = repository.ErrNotFound
			resp, _ := get(t, srv.URL+"/fleet/rank/ghost")

			Convey("Then a 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a running server", t, func() {
		deps := &stubDeps{}
		srv := newTestServer(deps)
		Reset(srv.Close)

		Convey("When probing /healthz", func() {
			resp, body := get(t, srv.URL+"/healthz")

			Convey("Then it reports ok", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "ok")
			})
		})

		Convey("When reading /stats", func() {
			resp, body := get(t, srv.URL+"/stats")

			Convey("Then service statistics come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "started")
			})
		})
	})
}
