// Package scan walks a directory subtree and builds the aggregate-size
// tree consumed by the treemap layout engine.
//
// A scan is owned by a Task: a small state machine (pending, scanning,
// paused, completed, cancelled, failed) with cooperative cancellation
// checked at every entry boundary. Traversal is depth-first with bounded
// concurrency across sibling subdirectories; entries pass through a
// Filter that drops zero-size files, unfollowed symlinks, hardlink
// duplicates and anything excluded by user rules. Progress is coalesced
// and emitted at a fixed cadence by a Reporter.
package scan
