package scan

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultProgressInterval is the nominal cadence of coalesced progress
// snapshots.
const DefaultProgressInterval = 100 * time.Millisecond

// DefaultConcurrency is the fallback worker limit when the throttle
// collaborator supplies none.
const DefaultConcurrency = 4

// Config controls a single scan task.
type Config struct {
	// Extensions to include (empty = all). A "!" prefix excludes instead,
	// e.g. !.log.
	Extensions []string
	// Excludes contains regex patterns; matching paths are skipped.
	Excludes []string
	// MinSize excludes regular files smaller than this many bytes.
	MinSize int64
	// MaxSize excludes regular files larger than this many bytes (0 = no cap).
	MaxSize int64
	// Depth limits traversal depth (0 = unlimited).
	Depth int
	// FollowSymlinks resolves and descends symbolic links. A per-scan set
	// of visited real paths breaks cycles.
	FollowSymlinks bool
	// IncludeEmpty keeps zero-size regular files in the tree.
	IncludeEmpty bool
	// Predicate, when set, is the final inclusion check for regular files.
	Predicate func(path string, size int64) bool
	// Concurrency bounds workers across sibling subdirectories. It is the
	// initial value of the throttle signal and may be changed mid-scan via
	// Task.SetConcurrency.
	Concurrency int
	// ProgressInterval overrides the snapshot cadence.
	ProgressInterval time.Duration
	// EstimateBytes, when non-zero, is the expected total byte count used
	// to derive an ETA (typically from Estimate).
	EstimateBytes int64
	// Logger receives per-entry diagnostics at debug level.
	Logger zerolog.Logger
}

// DefaultConfig returns a Config with the documented defaults and a
// disabled logger.
func DefaultConfig() Config {
	return Config{
		Concurrency:      DefaultConcurrency,
		ProgressInterval: DefaultProgressInterval,
		Logger:           zerolog.Nop(),
	}
}
