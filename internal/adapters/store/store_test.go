package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func exerciseStore(t *testing.T, name string, open func() store.Store) {
	ctx := context.Background()
	ts := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	Convey("Given an empty "+name+" store", t, func() {
		s := open()
		Reset(func() { So(s.Close(), ShouldBeNil) })

		Convey("Then reads for unknown vehicles return not found", func() {
			_, err := s.GetAggregate(ctx, "ghost")
			So(err, ShouldEqual, store.ErrNotFound)
			_, err = s.GetOutput(ctx, "ghost")
			So(err, ShouldEqual, store.ErrNotFound)
			_, err = s.GetStatus(ctx, "ghost")
			So(err, ShouldEqual, store.ErrNotFound)
		})

		Convey("When an aggregate entry is written", func() {
			entry := store.Entry{
				Aggregate: model.VehicleAggregate{
					VehicleID:      "veh-1",
					VIN:            "VIN1",
					InsightSummary: "all clear",
					Indexes:        model.IntelligenceIndexes{TrustIndex: 88},
				},
				Timestamp: ts,
			}
			So(s.SetAggregate(ctx, "veh-1", entry), ShouldBeNil)

			Convey("Then it reads back with its timestamp", func() {
				got, err := s.GetAggregate(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(got.Aggregate.VehicleID, ShouldEqual, "veh-1")
				So(got.Aggregate.Indexes.TrustIndex, ShouldEqual, 88)
				So(got.Timestamp.Equal(ts), ShouldBeTrue)
			})

			Convey("Then a rewrite replaces the entry", func() {
				entry.Aggregate.Indexes.TrustIndex = 42
				So(s.SetAggregate(ctx, "veh-1", entry), ShouldBeNil)
				got, err := s.GetAggregate(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(got.Aggregate.Indexes.TrustIndex, ShouldEqual, 42)
			})

			Convey("Then deleting removes it", func() {
				So(s.DeleteAggregate(ctx, "veh-1"), ShouldBeNil)
				_, err := s.GetAggregate(ctx, "veh-1")
				So(err, ShouldEqual, store.ErrNotFound)
			})

			Convey("Then deleting a missing entry is not an error", func() {
				So(s.DeleteAggregate(ctx, "ghost"), ShouldBeNil)
			})
		})

		Convey("When an output document is written", func() {
			vio := model.VehicleIntelligenceOutput{
				VehicleID:     "veh-1",
				Version:       model.VIOVersion,
				SchemaVersion: model.VIOSchemaVersion,
				GeneratedAt:   ts,
				Summary:       "fine",
			}
			So(s.SetOutput(ctx, vio), ShouldBeNil)

			Convey("Then it reads back intact", func() {
				got, err := s.GetOutput(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(got.SchemaVersion, ShouldEqual, model.VIOSchemaVersion)
				So(got.Summary, ShouldEqual, "fine")
			})
		})

		Convey("When a status is written", func() {
			st := model.GenerationStatus{
				VehicleID: "veh-1",
				Status:    model.GenerationFailed,
				At:        ts,
				Error:     "provider timeout",
			}
			So(s.SetStatus(ctx, st), ShouldBeNil)

			Convey("Then it reads back intact", func() {
				got, err := s.GetStatus(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(got.Status, ShouldEqual, model.GenerationFailed)
				So(got.Error, ShouldEqual, "provider timeout")
			})
		})

		Convey("When the store is cleared", func() {
			So(s.SetAggregate(ctx, "veh-1", store.Entry{Timestamp: ts}), ShouldBeNil)
			So(s.Clear(ctx), ShouldBeNil)

			Convey("Then everything is gone", func() {
				_, err := s.GetAggregate(ctx, "veh-1")
				So(err, ShouldEqual, store.ErrNotFound)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, "memory", func() store.Store {
		return store.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	n := 0
	exerciseStore(t, "sqlite", func() store.Store {
		n++
		s, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "torque"+string(rune('a'+n))+".db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}
