// Package fetchpool bounds the number of concurrent per-brand queue fetches.
package fetchpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent fetches using a weighted semaphore. The dashboard
// aggregator fans out one fetch per requested brand; routing them through a
// shared Pool keeps a wide brand list from exhausting database connections.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool that allows at most limit concurrent fetches.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks if all slots are busy. Returns ctx.Err() if the context
// is cancelled while waiting for a slot.
// If the pool is nil, fn is executed directly without concurrency control.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil || p.sem == nil {
		return fn()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
