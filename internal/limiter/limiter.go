package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds how many downloads run at once across all users. Waiters
// are admitted in whatever order the semaphore wakes them.
type Limiter struct {
	sem    *semaphore.Weighted
	limit  int
	active atomic.Int64
}

func New(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.active.Add(1)
	return nil
}

func (l *Limiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release must be called exactly once for every successful acquire.
func (l *Limiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Do runs fn while holding a slot. onQueued, when non-nil, is called once
// if the caller has to wait for a slot.
func (l *Limiter) Do(ctx context.Context, onQueued func(), fn func(ctx context.Context) error) error {
	if !l.TryAcquire() {
		if onQueued != nil {
			onQueued()
		}
		if err := l.Acquire(ctx); err != nil {
			return err
		}
	}
	defer l.Release()
	return fn(ctx)
}

func (l *Limiter) Active() int {
	return int(l.active.Load())
}

func (l *Limiter) Limit() int {
	return l.limit
}
