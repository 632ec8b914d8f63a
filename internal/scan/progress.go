package scan

import (
	"sync"
	"time"
)

// Snapshot is one consolidated progress report. Raw events arriving
// between ticks are coalesced: counters accumulate, the current path is
// latest-wins.
type Snapshot struct {
	Files          int64         `json:"files"`
	Dirs           int64         `json:"dirs"`
	Bytes          int64         `json:"bytes"`
	Errors         int64         `json:"errors"`
	CurrentPath    string        `json:"currentPath"`
	Elapsed        time.Duration `json:"elapsed"`
	BytesPerSecond float64       `json:"bytesPerSecond"`
	// ETA is zero when no total estimate is available.
	ETA time.Duration `json:"eta"`
}

// Reporter turns arbitrarily frequent raw scan events into snapshots at
// a fixed cadence. The terminal snapshot is emitted immediately via
// Final, bypassing the ticker.
type Reporter struct {
	mu       sync.Mutex
	current  string
	estimate int64

	stats    *Stats
	start    time.Time
	interval time.Duration
	emit     func(Snapshot)
	stop     chan struct{}
	finished chan struct{}
	once     sync.Once
}

// NewReporter creates a reporter over the task's shared counters.
func NewReporter(stats *Stats, interval time.Duration, emit func(Snapshot)) *Reporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Reporter{
		stats:    stats,
		start:    time.Now(),
		interval: interval,
		emit:     emit,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// SetEstimate supplies an expected total byte count so snapshots can
// carry an ETA. Zero disables the estimate.
func (r *Reporter) SetEstimate(bytes int64) {
	r.mu.Lock()
	r.estimate = bytes
	r.mu.Unlock()
}

// Observe records the entry currently being processed. Multiple calls
// between ticks coalesce to the latest one.
func (r *Reporter) Observe(path string) {
	r.mu.Lock()
	r.current = path
	r.mu.Unlock()
}

// Run emits a snapshot every interval until Close. It is started as a
// goroutine by the task.
func (r *Reporter) Run() {
	defer close(r.finished)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.emit(r.Snapshot())
		case <-r.stop:
			return
		}
	}
}

// Close stops the ticker loop and waits for it to exit, so no emit is in
// flight afterwards. Safe to call more than once; Run must have been
// started.
func (r *Reporter) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.finished
}

// Snapshot builds a consolidated report from the counters as they stand.
func (r *Reporter) Snapshot() Snapshot {
	v := r.stats.View()

	r.mu.Lock()
	current := r.current
	estimate := r.estimate
	r.mu.Unlock()

	elapsed := time.Since(r.start)
	snap := Snapshot{
		Files:       v.Files,
		Dirs:        v.Dirs,
		Bytes:       v.Bytes,
		Errors:      v.Errors,
		CurrentPath: current,
		Elapsed:     elapsed,
	}

	if secs := elapsed.Seconds(); secs > 0 {
		snap.BytesPerSecond = float64(v.Bytes) / secs
	}
	if estimate > v.Bytes && snap.BytesPerSecond > 0 {
		remaining := float64(estimate-v.Bytes) / snap.BytesPerSecond
		snap.ETA = time.Duration(remaining * float64(time.Second))
	}

	return snap
}
