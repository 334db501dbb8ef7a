package core

// upload_limiter.go bounds how many uploaded workbooks are parsed at once.
//
// Parsing an Open XML workbook unzips it and builds shared-string tables in
// memory, so a burst of large uploads could exhaust the process. Preview
// requests take a slot before parsing; when every slot is busy they wait up
// to maxWait and then fail with ErrTooManyUploads.
//
// Page and export requests do not take a slot: they parse bytes that were
// already accepted once.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when all upload slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

// DefaultMaxConcurrentUploads is the default limit for parallel uploads.
const DefaultMaxConcurrentUploads = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// UploadLimiter is a counting semaphore over upload parsing.
type UploadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
	active    atomic.Int64
}

// NewUploadLimiter creates a limiter that allows at most maxConcurrent simultaneous uploads.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &UploadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. It returns ErrTooManyUploads after maxWait, or
// ctx.Err() if the request goes away first.
// The caller MUST call Release() when parsing completes (use defer).
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyUploads
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *UploadLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	<-l.semaphore
}

// ActiveCount returns the number of uploads currently parsing.
func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no upload is parsing or ctx is done.
// Used during graceful shutdown.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
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

// UploadLimiterStatus is a snapshot of the limiter's state.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
