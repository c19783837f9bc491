package api

import (
	"context"
	"sync/atomic"
)

// WorkerPool bounds the number of concurrently running searches. Searches
// are CPU-bound and share one transposition table, so admitting every
// request at once only makes all of them slow.
type WorkerPool struct {
	sem    chan struct{}
	queued atomic.Int64
	active atomic.Int64
	total  atomic.Int64
}

// NewWorkerPool creates a pool admitting up to maxSearches concurrent
// searches (default 2).
func NewWorkerPool(maxSearches int) *WorkerPool {
	if maxSearches <= 0 {
		maxSearches = 2
	}
	return &WorkerPool{sem: make(chan struct{}, maxSearches)}
}

// Acquire claims a search slot, waiting until one frees up or the
// context is cancelled.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	p.queued.Add(1)
	defer p.queued.Add(-1)

	select {
	case p.sem <- struct{}{}:
		p.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire claims a slot without waiting.
func (p *WorkerPool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		p.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot claimed with Acquire or TryAcquire.
func (p *WorkerPool) Release() {
	p.active.Add(-1)
	p.total.Add(1)
	<-p.sem
}

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Active int64 `json:"active"`
	Queued int64 `json:"queued"`
	Total  int64 `json:"total"`
	Max    int   `json:"max"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Active: p.active.Load(),
		Queued: p.queued.Load(),
		Total:  p.total.Load(),
		Max:    cap(p.sem),
	}
}
