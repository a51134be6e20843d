package dedupe

// Option applies a configuration option to the in-flight tracker.
type Option func(*inFlightTracker)

// WithMaxSize bounds the number of tracked in-flight builds.
// A size <= 0 disables the bound.
func WithMaxSize(maxSize int) Option {
	return func(t *inFlightTracker) {
		t.maxSize = maxSize
	}
}
