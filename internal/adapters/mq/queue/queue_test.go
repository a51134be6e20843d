package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/torque/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with a small capacity", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When requests fit within capacity", func() {
			So(q.Enqueue(ctx, queue.Request{VehicleID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Request{VehicleID: "b"}), ShouldBeTrue)

			Convey("Then the length reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a further enqueue is rejected without blocking", func() {
				So(q.Enqueue(ctx, queue.Request{VehicleID: "c"}), ShouldBeFalse)
			})
		})

		Convey("When dequeuing", func() {
			q.Enqueue(ctx, queue.Request{VehicleID: "a", EnqueuedAt: time.Now()})

			Convey("Then requests come out in order", func() {
				select {
				case req := <-q.Dequeue(ctx):
					So(req.VehicleID, ShouldEqual, "a")
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}
			})
		})

		Convey("When the queue is closed", func() {
			q.Enqueue(ctx, queue.Request{VehicleID: "a"})
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue fails", func() {
				So(q.Enqueue(ctx, queue.Request{VehicleID: "b"}), ShouldBeFalse)
			})

			Convey("Then the channel drains and closes", func() {
				req, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeTrue)
				So(req.VehicleID, ShouldEqual, "a")

				_, ok = <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("Then closing again reports the state", func() {
				So(q.Close(), ShouldEqual, queue.ErrQueueClosed)
			})
		})
	})
}
