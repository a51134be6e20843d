package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/torque/pkg/metrics"
)

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request counts and latency per endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		metrics.RecordHTTPRequest(endpoint, strconv.Itoa(rec.status))
		metrics.ObserveHTTPDuration(endpoint, time.Since(start).Seconds())
	}
}
