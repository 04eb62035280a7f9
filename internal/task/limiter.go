package task

// limiter.go implements concurrency control for dataset scans.
//
// The limiter uses a semaphore pattern to restrict parallel scans to a
// configurable maximum, preventing resource exhaustion when many datasets
// are re-scanned at once. When all slots are occupied, new requests wait up
// to maxWait before failing with ErrTooManyScans.
//
// The limiter also supports graceful shutdown via WaitForDrain, which blocks
// until all active scans complete.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyScans is returned when all scan slots are occupied and the wait
// timeout expires. Callers should retry after a short delay.
var ErrTooManyScans = errors.New("too many concurrent scans, please try again later")

// DefaultMaxConcurrentScans is the default limit for parallel scans.
const DefaultMaxConcurrentScans = 2

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ScanLimiter controls concurrent scan execution using a semaphore pattern.
// A full dataset scan holds memory proportional to column count and keeps a
// database connection busy, so the ceiling is deliberately low.
type ScanLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewScanLimiter creates a limiter that allows at most maxConcurrent
// simultaneous scans. Requests that cannot acquire a slot within maxWait
// receive ErrTooManyScans.
func NewScanLimiter(maxConcurrent int, maxWait time.Duration) *ScanLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentScans
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ScanLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire a scan slot.
// Returns nil on success, ErrTooManyScans if the timeout expires.
// The caller MUST call Release() when the scan completes (use defer).
func (l *ScanLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from slot timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyScans

	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to acquire a slot without blocking.
// Returns true if a slot was acquired, false otherwise.
func (l *ScanLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *ScanLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of currently active scans.
func (l *ScanLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent scans.
func (l *ScanLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of available slots.
func (l *ScanLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active scans complete or the context is
// cancelled. Used for graceful shutdown.
func (l *ScanLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// ScanLimiterStatus is a snapshot of the limiter's current state.
type ScanLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring/debugging.
func (l *ScanLimiter) Status() ScanLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return ScanLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
