package scan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReporterCoalescesToLatestPath(t *testing.T) {
	var stats Stats
	r := NewReporter(&stats, time.Hour, func(Snapshot) {})

	r.Observe("/a")
	r.Observe("/b")
	r.Observe("/c")

	snap := r.Snapshot()
	require.Equal(t, "/c", snap.CurrentPath, "raw events coalesce latest-wins")
}

func TestReporterSnapshotCarriesCounters(t *testing.T) {
	var stats Stats
	stats.files.Store(3)
	stats.dirs.Store(2)
	stats.bytes.Store(4096)
	stats.errors.Store(1)

	r := NewReporter(&stats, time.Hour, func(Snapshot) {})
	snap := r.Snapshot()

	require.Equal(t, int64(3), snap.Files)
	require.Equal(t, int64(2), snap.Dirs)
	require.Equal(t, int64(4096), snap.Bytes)
	require.Equal(t, int64(1), snap.Errors)
	require.Positive(t, snap.Elapsed)
}

func TestReporterETA(t *testing.T) {
	var stats Stats
	stats.bytes.Store(500)

	r := NewReporter(&stats, time.Hour, func(Snapshot) {})

	// No estimate: no ETA.
	require.Zero(t, r.Snapshot().ETA)

	r.SetEstimate(1000)
	snap := r.Snapshot()
	require.Positive(t, snap.BytesPerSecond)
	require.Positive(t, snap.ETA)

	// Already past the estimate: no ETA.
	r.SetEstimate(100)
	require.Zero(t, r.Snapshot().ETA)
}

func TestReporterTicksAtInterval(t *testing.T) {
	var stats Stats
	var mu sync.Mutex
	var emitted []Snapshot

	r := NewReporter(&stats, 5*time.Millisecond, func(s Snapshot) {
		mu.Lock()
		emitted = append(emitted, s)
		mu.Unlock()
	})

	go r.Run()
	time.Sleep(40 * time.Millisecond)
	r.Close()

	mu.Lock()
	count := len(emitted)
	mu.Unlock()
	require.GreaterOrEqual(t, count, 2, "reporter must emit on its cadence")

	// Close is synchronous: no emit after it returns.
	mu.Lock()
	after := len(emitted)
	mu.Unlock()
	time.Sleep(15 * time.Millisecond)
	mu.Lock()
	require.Equal(t, after, len(emitted))
	mu.Unlock()
}
