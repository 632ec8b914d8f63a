// Package tree holds the shared aggregate-size directory tree.
//
// The tree is produced by the scanner and read by the treemap layout
// engine. Each node caches its aggregate size; mutations invalidate the
// cache on the node and every ancestor, and bump their subtree versions
// so memoized layouts can recognize stale results.
package tree
