package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/okian/torque/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTreapStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty ranking store", t, func() {
		s := repository.NewTreapStore(ctx)

		Convey("Then an unknown vehicle returns not found", func() {
			_, err := s.Rank(ctx, "ghost")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("Then a non-positive limit is rejected", func() {
			_, err := s.TopN(ctx, 0)
			So(err, ShouldEqual, repository.ErrInvalidLimit)
		})

		Convey("Then the count is zero", func() {
			So(s.Count(ctx), ShouldEqual, 0)
		})
	})

	Convey("Given a populated ranking store", t, func() {
		s := repository.NewTreapStore(ctx)
		So(s.Update(ctx, "veh-a", 90), ShouldBeNil)
		So(s.Update(ctx, "veh-b", 70), ShouldBeNil)
		So(s.Update(ctx, "veh-c", 95), ShouldBeNil)
		So(s.Update(ctx, "veh-d", 70), ShouldBeNil)

		Convey("Then TopN orders by trust desc with id tie-breaking", func() {
			top, err := s.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 4)
			So(top[0].VehicleID, ShouldEqual, "veh-c")
			So(top[1].VehicleID, ShouldEqual, "veh-a")
			So(top[2].VehicleID, ShouldEqual, "veh-b") // ties break by id asc
			So(top[3].VehicleID, ShouldEqual, "veh-d")
		})

		Convey("Then TopN truncates to the requested size", func() {
			top, err := s.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)
			So(top[1].Rank, ShouldEqual, 2)
		})

		Convey("Then Rank matches the TopN position", func() {
			entry, err := s.Rank(ctx, "veh-b")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 3)
			So(entry.Trust, ShouldEqual, 70)
		})

		Convey("When a vehicle's trust changes", func() {
			So(s.Update(ctx, "veh-b", 99), ShouldBeNil)

			Convey("Then its rank moves and the count stays stable", func() {
				entry, err := s.Rank(ctx, "veh-b")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)
				So(s.Count(ctx), ShouldEqual, 4)
			})
		})

		Convey("When an update repeats the same trust", func() {
			So(s.Update(ctx, "veh-a", 90), ShouldBeNil)

			Convey("Then nothing changes", func() {
				entry, err := s.Rank(ctx, "veh-a")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 2)
				So(s.Count(ctx), ShouldEqual, 4)
			})
		})
	})

	Convey("Given a large randomized fleet", t, func() {
		s := repository.NewTreapStore(ctx)
		rng := rand.New(rand.NewSource(42))

		type row struct {
			id    string
			trust int
		}
		rows := make([]row, 500)
		for i := range rows {
			rows[i] = row{id: fmt.Sprintf("veh-%03d", i), trust: rng.Intn(101)}
			So(s.Update(ctx, rows[i].id, rows[i].trust), ShouldBeNil)
		}

		sort.Slice(rows, func(i, j int) bool {
			if rows[i].trust != rows[j].trust {
				return rows[i].trust > rows[j].trust
			}
			return rows[i].id < rows[j].id
		})

		Convey("Then the full TopN matches a reference sort", func() {
			top, err := s.TopN(ctx, len(rows))
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, len(rows))
			for i, want := range rows {
				So(top[i].VehicleID, ShouldEqual, want.id)
				So(top[i].Trust, ShouldEqual, want.trust)
				So(top[i].Rank, ShouldEqual, i+1)
			}
		})

		Convey("Then every Rank query agrees with the reference order", func() {
			for i, want := range rows[:50] {
				entry, err := s.Rank(ctx, want.id)
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, i+1)
			}
		})
	})
}
