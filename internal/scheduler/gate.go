package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"feedpress/internal/observability/metrics"
)

// Gate bounds the number of feed update jobs running at once. Jobs block
// in Acquire until a permit frees up or their context is cancelled, so a
// burst of simultaneous cron firings degrades to a queue instead of a
// stampede against the network and the database.
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64
	inUse    atomic.Int64
}

// NewGate returns a gate with the given permit capacity.
func NewGate(capacity int64) (*Gate, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("gate capacity must be at least 1, got %d", capacity)
	}
	return &Gate{
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
	}, nil
}

// Acquire blocks until a permit is available or ctx is cancelled.
// Cancellation while waiting returns ErrGateCancelled; the caller must
// not Release in that case.
func (g *Gate) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrGateCancelled, err)
	}
	metrics.RecordGateWait(time.Since(start))
	metrics.GatePermitsInUse.Set(float64(g.inUse.Add(1)))
	return nil
}

// Release returns a permit acquired with Acquire.
func (g *Gate) Release() {
	metrics.GatePermitsInUse.Set(float64(g.inUse.Add(-1)))
	g.sem.Release(1)
}

// InUse reports the number of permits currently held.
func (g *Gate) InUse() int64 {
	return g.inUse.Load()
}

// Capacity reports the total permit count.
func (g *Gate) Capacity() int64 {
	return g.capacity
}
