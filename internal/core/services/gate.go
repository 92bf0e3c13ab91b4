package services

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

// Gate is the admission gate in front of provider dispatch. At most
// limit requests hold a slot; the rest wait in FIFO order. When
// maxQueue waiters are already queued, further requests fail fast with
// domain.ErrOverloaded. A maxQueue of zero means the queue is unbounded.
type Gate struct {
	sem      *semaphore.Weighted
	limit    int
	maxQueue int

	inFlight atomic.Int64
	queued   atomic.Int64
	rejected atomic.Int64
}

// NewGate creates a gate admitting limit concurrent requests.
func NewGate(limit, maxQueue int) *Gate {
	if limit < 1 {
		limit = 1
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	return &Gate{
		sem:      semaphore.NewWeighted(int64(limit)),
		limit:    limit,
		maxQueue: maxQueue,
	}
}

// Acquire takes a slot, waiting if necessary. It returns ctx.Err() if
// the caller gives up while queued.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem.TryAcquire(1) {
		g.inFlight.Add(1)
		return nil
	}

	if q := g.queued.Add(1); g.maxQueue > 0 && q > int64(g.maxQueue) {
		g.queued.Add(-1)
		g.rejected.Add(1)
		return domain.ErrOverloaded
	}
	err := g.sem.Acquire(ctx, 1)
	g.queued.Add(-1)
	if err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

// Release returns a slot taken by Acquire.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Stats reports gate occupancy.
func (g *Gate) Stats() domain.GateStats {
	return domain.GateStats{
		Limit:    g.limit,
		InFlight: int(g.inFlight.Load()),
		Queued:   int(g.queued.Load()),
		Rejected: g.rejected.Load(),
	}
}
