// Package app provides the core aggregation service: it pulls raw data
// through the provider boundary, drives the analyzers, assembles
// immutable VehicleAggregate snapshots and manages their cached
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/torque/internal/adapters/audit"
	"github.com/okian/torque/internal/adapters/mq/queue"
	"github.com/okian/torque/internal/adapters/mq/worker"
	"github.com/okian/torque/internal/adapters/provider"
	"github.com/okian/torque/internal/adapters/repository"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/confidence"
	"github.com/okian/torque/internal/domain/dedupe"
	"github.com/okian/torque/internal/domain/index"
	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/internal/domain/normalize"
	"github.com/okian/torque/internal/domain/reason"
	"github.com/okian/torque/internal/domain/signal"
	"github.com/okian/torque/internal/output"
	"github.com/okian/torque/pkg/logger"
	"github.com/okian/torque/pkg/metrics"
)

// neutralIndex is the value every index takes on the fallback path.
const neutralIndex = 50

// Service implements the vehicle intelligence pipeline and its cached
// lifecycle. It is safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider     provider.Provider
	store        store.Store
	sink         audit.Sink
	ranking      repository.Store
	tracker      dedupe.Tracker
	rebuildQueue queue.Queue
	workers      *worker.Pool
	orchestrator *output.Orchestrator

	// Configuration
	cacheTTL        time.Duration
	providerTimeout time.Duration
	workerCount     int
	queueSize       int
	inFlightSize    int
	actorID         string

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:        24 * time.Hour,
		providerTimeout: 5 * time.Second,
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       10_000,
		inFlightSize:    10_000,
		actorID:         "system",
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components. Components not
// injected via options get in-memory defaults.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	if s.provider == nil {
		s.provider = provider.NewSynthetic()
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.sink == nil {
		s.sink = audit.NewMemorySink()
	}
	if s.ranking == nil {
		s.ranking = repository.NewTreapStore(ctx)
	}
	s.tracker = dedupe.NewTracker(dedupe.WithMaxSize(s.inFlightSize))
	s.rebuildQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.orchestrator = output.NewOrchestrator(s.store, s.store, s.sink,
		output.WithActorID(s.actorID),
		output.WithClock(s.now),
		output.WithLogger(s.logger.Named("output")),
	)
	s.workers = worker.NewPool(s.workerCount, s.rebuildQueue, &asyncRebuilder{s: s},
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.workers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "intelligence service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("cacheTTL", s.cacheTTL),
	)
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.rebuildQueue != nil {
		_ = s.rebuildQueue.Close()
	}
	if s.workers != nil {
		s.workers.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.started = false
	s.logger.Info(context.Background(), "intelligence service stopped")
}

// GetOrBuild returns the cached aggregate when present and unexpired,
// otherwise builds, persists and returns a fresh one. It never returns
// an error: build failures surface as a fallback aggregate.
func (s *Service) GetOrBuild(ctx context.Context, vehicleID, vin, plate string) model.VehicleAggregate {
	entry, err := s.store.GetAggregate(ctx, vehicleID)
	switch {
	case err == nil && s.now().Sub(entry.Timestamp) < s.cacheTTL:
		metrics.RecordCacheHit()
		return entry.Aggregate
	case err == nil:
		metrics.RecordCacheExpiry()
	case errors.Is(err, store.ErrNotFound):
		metrics.RecordCacheMiss()
	default:
		// Store trouble is handled like a miss; the cache boundary never
		// surfaces errors.
		s.logger.Warn(ctx, "aggregate cache read failed", logger.Error(err))
		metrics.RecordCacheMiss()
	}
	return s.Rebuild(ctx, vehicleID, vin, plate)
}

// Rebuild bypasses the cache, builds a fresh aggregate, persists it,
// updates the fleet ranking and regenerates the VIO. The returned
// aggregate is the fallback one when the build fails.
func (s *Service) Rebuild(ctx context.Context, vehicleID, vin, plate string) model.VehicleAggregate {
	start := s.now()
	metrics.RecordBuild()

	agg, err := s.build(ctx, vehicleID, vin, plate)
	if err != nil {
		s.logger.Error(ctx, "aggregate build failed, using fallback",
			logger.String("vehicleID", vehicleID),
			logger.Error(err),
		)
		metrics.RecordBuildFallback()
		agg = s.fallbackAggregate(vehicleID, vin, plate, err)
	}
	metrics.ObserveBuildDuration(s.now().Sub(start).Seconds())

	if err := s.store.SetAggregate(ctx, vehicleID, store.Entry{
		Aggregate: agg,
		Timestamp: s.now().UTC(),
	}); err != nil {
		s.logger.Warn(ctx, "failed to persist aggregate", logger.Error(err))
	}

	if !agg.Fallback {
		if err := s.ranking.Update(ctx, vehicleID, agg.Indexes.TrustIndex); err != nil {
			s.logger.Warn(ctx, "failed to update fleet ranking", logger.Error(err))
		}
	}

	// VIO generation runs even for fallback aggregates; its status map
	// is how callers learn the build degraded.
	s.orchestrator.Generate(ctx, agg)

	return agg
}

// build runs the full pipeline for one vehicle. The provider fetch is
// the only suspending step and is bounded by the configured timeout.
func (s *Service) build(ctx context.Context, vehicleID, vin, plate string) (model.VehicleAggregate, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	bundle, err := s.provider.FetchAll(fetchCtx, vehicleID, vin, plate)
	if err != nil {
		return model.VehicleAggregate{}, fmt.Errorf("fetch vehicle data: %w", err)
	}

	now := s.now().UTC()
	sources := normalize.Sources(bundle)
	derived := signal.Analyze(sources, now)
	explain := reason.Build(derived)
	indexes := index.Compute(derived, sources, now)

	return model.VehicleAggregate{
		VehicleID:      vehicleID,
		VIN:            vin,
		Plate:          plate,
		Timestamp:      now,
		DataSources:    sources,
		Derived:        derived,
		Indexes:        indexes,
		InsightSummary: buildInsight(derived, indexes, explain),
		Explain:        explain,
	}, nil
}

// fallbackAggregate is the safe-default snapshot returned when a build
// fails: neutral indexes and an error-indicating summary.
func (s *Service) fallbackAggregate(vehicleID, vin, plate string, buildErr error) model.VehicleAggregate {
	return model.VehicleAggregate{
		VehicleID: vehicleID,
		VIN:       vin,
		Plate:     plate,
		Timestamp: s.now().UTC(),
		Indexes: model.IntelligenceIndexes{
			TrustIndex:            neutralIndex,
			ReliabilityIndex:      neutralIndex,
			MaintenanceDiscipline: neutralIndex,
		},
		InsightSummary: fmt.Sprintf("analysis unavailable: %v; neutral defaults apply", buildErr),
		Explain:        model.Explain{Reasons: map[string][]model.ReasonCode{}},
		Fallback:       true,
	}
}

// Invalidate drops the cached aggregate for a vehicle. Whole-entry only.
func (s *Service) Invalidate(ctx context.Context, vehicleID string) {
	if err := s.store.DeleteAggregate(ctx, vehicleID); err != nil {
		s.logger.Warn(ctx, "failed to invalidate aggregate", logger.Error(err))
	}
}

// EnqueueRebuild submits an async rebuild. Concurrent requests for the
// same vehicle collapse onto the in-flight build. Returns false on
// backpressure.
func (s *Service) EnqueueRebuild(ctx context.Context, vehicleID, vin, plate string) bool {
	if s.tracker.SeenAndRecord(ctx, vehicleID) {
		metrics.RecordRebuildDuplicate()
		return true // already building; treat as accepted
	}
	ok := s.rebuildQueue.Enqueue(ctx, queue.Request{
		VehicleID:  vehicleID,
		VIN:        vin,
		Plate:      plate,
		EnqueuedAt: s.now().UTC(),
	})
	if !ok {
		s.tracker.Unrecord(ctx, vehicleID)
		return false
	}
	metrics.RecordRebuildEnqueued()
	return true
}

// asyncRebuilder adapts Service to the worker pool contract.
type asyncRebuilder struct {
	s *Service
}

func (a *asyncRebuilder) Rebuild(ctx context.Context, vehicleID, vin, plate string) error {
	defer a.s.tracker.Unrecord(ctx, vehicleID)
	a.s.Rebuild(ctx, vehicleID, vin, plate)
	return nil
}

// Output returns the last persisted VIO for a vehicle.
func (s *Service) Output(ctx context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error) {
	return s.orchestrator.Output(ctx, vehicleID)
}

// Status returns the last-known generation status for a vehicle.
func (s *Service) Status(ctx context.Context, vehicleID string) (model.GenerationStatus, error) {
	return s.orchestrator.Status(ctx, vehicleID)
}

// TopN returns the top-N fleet ranking entries by trust index.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.ranking.TopN(ctx, n)
}

// RankOf returns the fleet rank for one vehicle.
func (s *Service) RankOf(ctx context.Context, vehicleID string) (repository.Entry, error) {
	return s.ranking.Rank(ctx, vehicleID)
}

// Confidence recomputes the confidence assessment for an aggregate.
func (s *Service) Confidence(agg model.VehicleAggregate) confidence.Assessment {
	return confidence.Assess(agg.DataSources, agg.Derived)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		stats["queueLength"] = s.rebuildQueue.Len(ctx)
		stats["inFlightBuilds"] = s.tracker.Size()
		stats["fleetSize"] = s.ranking.Count(ctx)
	}
	return stats
}
