package app

import (
	"time"

	"github.com/okian/torque/internal/adapters/audit"
	"github.com/okian/torque/internal/adapters/provider"
	"github.com/okian/torque/internal/adapters/repository"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProvider sets the data provider.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithStore sets the persistence backend.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithAuditSink sets the audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithRanking sets the fleet ranking store.
func WithRanking(r repository.Store) Option {
	return func(s *Service) {
		if r != nil {
			s.ranking = r
		}
	}
}

// WithCacheTTL bounds how long cached aggregates are served.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithProviderTimeout caps the provider fetch.
func WithProviderTimeout(t time.Duration) Option {
	return func(s *Service) {
		if t > 0 {
			s.providerTimeout = t
		}
	}
}

// WithWorkerCount sets the number of async rebuild workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the async rebuild queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithInFlightSize bounds the in-flight build tracker.
func WithInFlightSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.inFlightSize = size
		}
	}
}

// WithActorID sets the actor recorded on audit entries.
func WithActorID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.actorID = id
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
