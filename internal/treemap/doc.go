// Package treemap converts a weighted directory tree into a
// space-proportional rectangular layout.
//
// The squarified algorithm partitions a rectangle among a node's
// children so aspect ratios stay near square; a pre-processing merge step
// caps visible siblings and folds the long tail into one synthetic
// "other" entry; an LRU cache memoizes per-node layouts for incremental
// re-layout. The engine only reads the tree, it never mutates it, and it
// must be given a stable snapshot: a completed or paused scan.
package treemap
