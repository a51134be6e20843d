package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/torque/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh tracker", t, func() {
		tracker := dedupe.NewTracker()

		Convey("When a key is recorded for the first time", func() {
			seen := tracker.SeenAndRecord(ctx, "veh-1")

			Convey("Then the caller owns the build", func() {
				So(seen, ShouldBeFalse)
				So(tracker.Size(), ShouldEqual, 1)
			})

			Convey("And a second request for the same key collapses", func() {
				So(tracker.SeenAndRecord(ctx, "veh-1"), ShouldBeTrue)
				So(tracker.Size(), ShouldEqual, 1)
			})

			Convey("And unrecording frees the key", func() {
				tracker.Unrecord(ctx, "veh-1")
				So(tracker.Size(), ShouldEqual, 0)
				So(tracker.SeenAndRecord(ctx, "veh-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording a key that was never recorded", func() {
			tracker.Unrecord(ctx, "ghost")

			Convey("Then the size stays consistent", func() {
				So(tracker.Size(), ShouldEqual, 0)
			})
		})

		Convey("When distinct keys are recorded", func() {
			So(tracker.SeenAndRecord(ctx, "veh-1"), ShouldBeFalse)
			So(tracker.SeenAndRecord(ctx, "veh-2"), ShouldBeFalse)

			Convey("Then both are tracked independently", func() {
				So(tracker.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a tracker at its size limit", t, func() {
		tracker := dedupe.NewTracker(dedupe.WithMaxSize(2))
		So(tracker.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		So(tracker.SeenAndRecord(ctx, "b"), ShouldBeFalse)

		Convey("When a new key arrives", func() {
			seen := tracker.SeenAndRecord(ctx, "c")

			Convey("Then the build proceeds untracked rather than blocking", func() {
				So(seen, ShouldBeFalse)
				So(tracker.Size(), ShouldEqual, 2)
			})

			Convey("And the same key is admitted again", func() {
				So(tracker.SeenAndRecord(ctx, "c"), ShouldBeFalse)
			})
		})

		Convey("When a tracked key is already in flight", func() {
			Convey("Then saturation does not hide it", func() {
				So(tracker.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			})
		})
	})

	Convey("Given heavy concurrent use", t, func() {
		tracker := dedupe.NewTracker()
		const goroutines = 32

		Convey("When many goroutines race on the same key", func() {
			owners := make(chan bool, goroutines)
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !tracker.SeenAndRecord(ctx, "hot") {
						owners <- true
					}
				}()
			}
			wg.Wait()
			close(owners)

			Convey("Then exactly one goroutine owns the build", func() {
				So(len(owners), ShouldEqual, 1)
				So(tracker.Size(), ShouldEqual, 1)
			})
		})

		Convey("When goroutines use distinct keys", func() {
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					tracker.SeenAndRecord(ctx, fmt.Sprintf("veh-%d", n))
				}(i)
			}
			wg.Wait()

			Convey("Then every key is tracked", func() {
				So(tracker.Size(), ShouldEqual, goroutines)
			})
		})
	})
}
