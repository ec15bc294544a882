package core

// limiter.go bounds how many cleaning runs the server executes at once.
// Requests wait up to maxWait for a slot before failing with
// ErrTooManyCleans; WaitForDrain supports graceful shutdown.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyCleans is returned when no slot frees up within the wait time.
var ErrTooManyCleans = errors.New("too many concurrent cleans, please try again later")

const (
	// DefaultMaxConcurrentCleans is the default limit for parallel runs.
	DefaultMaxConcurrentCleans = 4
	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second
)

// CleanLimiter is a weighted semaphore with a bounded wait.
type CleanLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewCleanLimiter allows at most maxConcurrent simultaneous runs.
func NewCleanLimiter(maxConcurrent int, maxWait time.Duration) *CleanLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCleans
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &CleanLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it (use defer).
func (l *CleanLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyCleans
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking.
func (l *CleanLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *CleanLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of runs holding a slot.
func (l *CleanLimiter) ActiveCount() int { return int(l.active.Load()) }

// MaxConcurrent returns the slot count.
func (l *CleanLimiter) MaxConcurrent() int { return l.max }

// WaitForDrain blocks until no run holds a slot or ctx is done.
func (l *CleanLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot of the limiter for monitoring.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *CleanLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
