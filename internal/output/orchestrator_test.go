package output_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/torque/internal/adapters/audit"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/internal/output"
	"github.com/okian/torque/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// failingOutputStore rejects every write.
type failingOutputStore struct{}

func (failingOutputStore) GetOutput(context.Context, string) (model.VehicleIntelligenceOutput, error) {
	return model.VehicleIntelligenceOutput{}, store.ErrNotFound
}

func (failingOutputStore) SetOutput(context.Context, model.VehicleIntelligenceOutput) error {
	return errors.New("disk full")
}

func TestOrchestratorGenerate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given an orchestrator over in-memory backends", t, func() {
		st := store.NewMemoryStore()
		sink := audit.NewMemorySink()
		orch := output.NewOrchestrator(st, st, sink,
			output.WithActorID("test-runner"),
			output.WithClock(func() time.Time { return now }),
		)

		Convey("When generating for a well-formed aggregate", func() {
			res := orch.Generate(ctx, cleanAggregate())

			Convey("Then the result is ok and carries the output", func() {
				So(res.OK, ShouldBeTrue)
				So(res.Output.VehicleID, ShouldEqual, "veh-1")
				So(res.Error, ShouldBeBlank)
			})

			Convey("Then the output is persisted and retrievable", func() {
				vio, err := orch.Output(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(vio.GeneratedAt.Equal(now), ShouldBeTrue)
			})

			Convey("Then the generation status records success", func() {
				status, err := orch.Status(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(status.Status, ShouldEqual, model.GenerationOK)
				So(status.Error, ShouldBeBlank)
			})

			Convey("Then an audit entry names the actor and action", func() {
				entries := sink.Entries()
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Action, ShouldEqual, audit.ActionVIOGenerated)
				So(entries[0].ActorID, ShouldEqual, "test-runner")
				So(entries[0].Meta["vehicle_id"], ShouldEqual, "veh-1")
			})
		})

		Convey("When the same aggregate is generated twice", func() {
			first := orch.Generate(ctx, cleanAggregate())
			second := orch.Generate(ctx, cleanAggregate())

			Convey("Then the outputs are identical", func() {
				So(second.Output, ShouldResemble, first.Output)
			})
		})
	})

	Convey("Given an orchestrator whose output store rejects writes", t, func() {
		st := store.NewMemoryStore()
		sink := audit.NewMemorySink()
		orch := output.NewOrchestrator(failingOutputStore{}, st, sink,
			output.WithClock(func() time.Time { return now }),
		)

		Convey("When generating", func() {
			res := orch.Generate(ctx, cleanAggregate())

			Convey("Then the result reports the failure instead of panicking", func() {
				So(res.OK, ShouldBeFalse)
				So(res.Error, ShouldContainSubstring, "disk full")
			})

			Convey("Then the status records the failure", func() {
				status, err := orch.Status(ctx, "veh-1")
				So(err, ShouldBeNil)
				So(status.Status, ShouldEqual, model.GenerationFailed)
				So(status.Error, ShouldContainSubstring, "disk full")
			})

			Convey("Then a failure audit entry is appended", func() {
				entries := sink.Entries()
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Action, ShouldEqual, audit.ActionVIOFailed)
			})
		})
	})
}
