package scan

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// maxWorkers caps the worker pool regardless of the throttle signal.
const maxWorkers = 64

// limiter bounds how many subtree workers run at once. The semaphore is
// sized to the absolute maximum; the effective limit is enforced by
// holding back reserved tokens, which lets the throttle collaborator
// resize the limit mid-scan. Shrinking below the number of in-flight
// workers takes effect as they finish: Release swallows tokens until the
// reservation reaches its target.
type limiter struct {
	sem *semaphore.Weighted

	mu       sync.Mutex
	reserved int64
	target   int64
}

func newLimiter(limit int) *limiter {
	l := &limiter{sem: semaphore.NewWeighted(maxWorkers)}
	l.target = reservationFor(limit)
	// Fresh semaphore: the initial reservation always succeeds.
	l.sem.TryAcquire(l.target)
	l.reserved = l.target
	return l
}

func reservationFor(limit int) int64 {
	if limit < 1 {
		limit = 1
	}
	if limit > maxWorkers {
		limit = maxWorkers
	}
	return int64(maxWorkers - limit)
}

// TryAcquire claims a worker slot without blocking. Callers that fail to
// acquire recurse inline instead, so traversal always makes progress.
func (l *limiter) TryAcquire() bool {
	return l.sem.TryAcquire(1)
}

// Release returns a worker slot, or swallows it into the reservation if
// the limit was shrunk while the worker ran.
func (l *limiter) Release() {
	l.mu.Lock()
	if l.reserved < l.target {
		l.reserved++
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.sem.Release(1)
}

// SetLimit adjusts the effective worker limit, clamped to [1, maxWorkers].
func (l *limiter) SetLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.target = reservationFor(limit)
	for l.reserved > l.target {
		l.sem.Release(1)
		l.reserved--
	}
	for l.reserved < l.target && l.sem.TryAcquire(1) {
		l.reserved++
	}
}

// Limit returns the currently configured worker limit.
func (l *limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(maxWorkers - l.target)
}
