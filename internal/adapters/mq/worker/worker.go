// Package worker drains the rebuild queue through the aggregation
// pipeline.
package worker

import (
	"context"
	"strconv"
	"sync"

	"github.com/okian/torque/internal/adapters/mq/queue"
	"github.com/okian/torque/pkg/logger"
	"github.com/okian/torque/pkg/metrics"
)

// Rebuilder executes one forced rebuild for a vehicle.
type Rebuilder interface {
	Rebuild(ctx context.Context, vehicleID, vin, plate string) error
}

// Pool runs a fixed set of workers over a shared queue.
type Pool struct {
	count     int
	queue     queue.Queue
	rebuilder Rebuilder

	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
}

// NewPool creates a worker pool with configuration options.
func NewPool(count int, q queue.Queue, r Rebuilder, opts ...Option) *Pool {
	if count <= 0 {
		count = 1
	}
	p := &Pool{
		count:     count,
		queue:     q,
		rebuilder: r,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker")
	}
	return p
}

// Start launches the workers. They run until Stop or queue close.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerCount(p.count)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, strconv.Itoa(i))
	}
}

// Stop cancels the workers and waits for them to drain.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}

func (p *Pool) run(ctx context.Context, name string) {
	defer p.wg.Done()

	requests := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if err := p.rebuilder.Rebuild(ctx, req.VehicleID, req.VIN, req.Plate); err != nil {
				p.logger.Error(ctx, "rebuild failed",
					logger.String("worker", name),
					logger.String("vehicleID", req.VehicleID),
					logger.Error(err),
				)
			}
			metrics.UpdateRebuildQueueSize(p.queue.Len(ctx))
		}
	}
}
