// Package queue defines the contract for enqueuing and consuming async
// rebuild requests.
package queue

import (
	"context"
	"sync"

	"github.com/okian/torque/internal/domain/model"
	"github.com/okian/torque/pkg/metrics"
)

// defaultCapacity bounds the in-memory rebuild queue.
const defaultCapacity = 10_000

// Request is the payload type flowing through the queue.
type Request = model.RebuildRequest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a rebuild request.
	// Returns false if the queue is full and the request was dropped.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel receiving requests as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the current number of queued requests.
	Len(ctx context.Context) int

	// Close shuts the queue down. After closing, Enqueue fails and the
	// dequeue channel drains then closes.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates an in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateRebuildQueueCapacity(q.capacity)
	metrics.UpdateRebuildQueueSize(0)
	return q
}

// Enqueue adds a rebuild request without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.requests <- r:
		metrics.UpdateRebuildQueueSize(len(q.requests))
		return true
	default:
		return false
	}
}

// Dequeue exposes the request channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Request {
	return q.requests
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.requests)
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.closed = true
	close(q.requests)
	return nil
}
