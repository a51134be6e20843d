// Package dedupe collapses concurrent rebuild requests for the same
// vehicle into a single in-flight build.
//
// Builds are deterministic given identical input, so concurrent rebuilds
// would not corrupt anything; deduplication only avoids wasted work when
// many callers ask for the same vehicle at once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records vehicles with a build currently in flight.
type Tracker interface {
	// SeenAndRecord atomically checks whether a build for key is already
	// in flight and records it if not. Returns true when a build was
	// already in flight, false when this caller now owns it.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord marks the build for key as finished, letting the next
	// request for that vehicle through.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of builds currently in flight.
	Size() int64
}

// inFlightTracker implements Tracker with a plain mutex-guarded set.
// maxSize bounds pathological growth: once the set is full, new keys are
// admitted without tracking rather than blocking builds.
type inFlightTracker struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	maxSize  int
	size     atomic.Int64
}

// defaultMaxInFlight bounds the in-flight set.
const defaultMaxInFlight = 10_000

// NewTracker creates an in-flight build tracker.
func NewTracker(opts ...Option) Tracker {
	t := &inFlightTracker{
		maxSize: defaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.inFlight = make(map[string]struct{})
	return t
}

func (t *inFlightTracker) SeenAndRecord(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.inFlight[key]; exists {
		return true
	}
	if t.maxSize > 0 && len(t.inFlight) >= t.maxSize {
		// Set is saturated; let the build proceed untracked.
		return false
	}
	t.inFlight[key] = struct{}{}
	t.size.Add(1)
	return false
}

func (t *inFlightTracker) Unrecord(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.inFlight[key]; exists {
		delete(t.inFlight, key)
		t.size.Add(-1)
	}
}

func (t *inFlightTracker) Size() int64 {
	return t.size.Load()
}
