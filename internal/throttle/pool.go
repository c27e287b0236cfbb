// Package throttle bounds how many expensive operations run at once.
package throttle

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool caps concurrent calls to Run. Tenant provisioning goes through a
// shared Pool so bursts of promotions cannot exhaust database connections
// with concurrent schema DDL.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool that allows at most limit concurrent operations.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot. It blocks while all
// slots are busy and returns ctx.Err() if ctx is done first. A nil Pool runs
// fn directly.
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
