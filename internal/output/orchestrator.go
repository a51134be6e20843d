package output

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/torque/internal/adapters/audit"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/pkg/logger"
	"github.com/okian/torque/pkg/metrics"
)

// Result is the discriminated outcome of one generation. Callers always
// receive a Result, never a panic or raw error.
type Result struct {
	OK     bool                            `json:"ok"`
	Output model.VehicleIntelligenceOutput `json:"output,omitempty"`
	Error  string                          `json:"error,omitempty"`
}

// Orchestrator builds, persists and audits VIO documents, and records
// per-vehicle generation status.
type Orchestrator struct {
	outputs  store.OutputStore
	statuses store.StatusStore
	sink     audit.Sink
	actorID  string
	now      func() time.Time
	logger   logger.Logger
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithActorID sets the actor recorded on audit entries.
func WithActorID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.actorID = id
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator wires a generation orchestrator.
func NewOrchestrator(outputs store.OutputStore, statuses store.StatusStore, sink audit.Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		outputs:  outputs,
		statuses: statuses,
		sink:     sink,
		actorID:  "system",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("output")
	}
	return o
}

// Generate builds the VIO for agg, persists it, records the generation
// status and appends an audit entry. Any failure, including a panic in
// the builder, is converted into a failed Result.
func (o *Orchestrator) Generate(ctx context.Context, agg model.VehicleAggregate) (res Result) {
	at := o.now().UTC()

	defer func() {
		if r := recover(); r != nil {
			res = o.fail(ctx, agg.VehicleID, at, fmt.Errorf("output build panicked: %v", r))
		}
	}()

	vio := Build(agg, at)

	if err := o.outputs.SetOutput(ctx, vio); err != nil {
		return o.fail(ctx, agg.VehicleID, at, fmt.Errorf("persist output: %w", err))
	}

	if err := o.statuses.SetStatus(ctx, model.GenerationStatus{
		VehicleID: agg.VehicleID,
		Status:    model.GenerationOK,
		At:        at,
	}); err != nil {
		o.logger.Warn(ctx, "failed to record generation status", logger.Error(err))
	}

	if _, err := o.sink.Append(ctx, audit.Entry{
		Action:  audit.ActionVIOGenerated,
		ActorID: o.actorID,
		At:      at,
		Meta: map[string]any{
			"vehicle_id":   agg.VehicleID,
			"index_count":  len(vio.Indexes),
			"signal_count": len(vio.Signals),
		},
	}); err != nil {
		o.logger.Warn(ctx, "failed to append audit entry", logger.Error(err))
	}

	metrics.RecordVIOGenerated()
	return Result{OK: true, Output: vio}
}

// fail records and audits a failed generation.
func (o *Orchestrator) fail(ctx context.Context, vehicleID string, at time.Time, genErr error) Result {
	o.logger.Error(ctx, "output generation failed",
		logger.String("vehicleID", vehicleID),
		logger.Error(genErr),
	)

	if err := o.statuses.SetStatus(ctx, model.GenerationStatus{
		VehicleID: vehicleID,
		Status:    model.GenerationFailed,
		At:        at,
		Error:     genErr.Error(),
	}); err != nil {
		o.logger.Warn(ctx, "failed to record generation status", logger.Error(err))
	}

	if _, err := o.sink.Append(ctx, audit.Entry{
		Action:  audit.ActionVIOFailed,
		ActorID: o.actorID,
		At:      at,
		Meta: map[string]any{
			"vehicle_id": vehicleID,
			"error":      genErr.Error(),
		},
	}); err != nil {
		o.logger.Warn(ctx, "failed to append audit entry", logger.Error(err))
	}

	metrics.RecordVIOFailed()
	return Result{OK: false, Error: genErr.Error()}
}

// Status returns the last-known generation status for a vehicle.
func (o *Orchestrator) Status(ctx context.Context, vehicleID string) (model.GenerationStatus, error) {
	return o.statuses.GetStatus(ctx, vehicleID)
}

// Output returns the last persisted VIO for a vehicle.
func (o *Orchestrator) Output(ctx context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error) {
	return o.outputs.GetOutput(ctx, vehicleID)
}
