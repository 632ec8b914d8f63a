package treemap

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/idelchi/diskmap/internal/tree"
)

// DefaultCacheEntries bounds the layout cache when no size is given.
const DefaultCacheEntries = 512

// Cache memoizes per-node layout results for incremental re-layout.
//
// Keys combine node identity, the input rectangle rounded to the
// pixel-alignment tolerance, and the node's subtree version. A child-set
// or size change bumps the version of the node and every ancestor, so
// their old keys go unreachable while unrelated siblings stay hot; the
// LRU evicts the orphaned entries.
type Cache struct {
	lru *lru.Cache[string, []TreeMapRect]
}

// NewCache creates a cache holding up to entries memoized subtrees.
func NewCache(entries int) *Cache {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	c, err := lru.New[string, []TreeMapRect](entries)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &Cache{lru: c}
}

// Get returns the memoized layout for node in bounds, if still valid.
func (c *Cache) Get(node *tree.Node, bounds Rect) ([]TreeMapRect, bool) {
	return c.lru.Get(cacheKey(node, bounds))
}

// Put memoizes the layout for node in bounds at its current version.
func (c *Cache) Put(node *tree.Node, bounds Rect, rects []TreeMapRect) {
	c.lru.Add(cacheKey(node, bounds), rects)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops all entries.
func (c *Cache) Purge() { c.lru.Purge() }

// cacheKey rounds rectangle bounds to a millipixel so re-layouts within
// the tolerance hit the same entry.
func cacheKey(node *tree.Node, bounds Rect) string {
	return fmt.Sprintf("%s|%d|%.3f,%.3f,%.3f,%.3f",
		node.ID(), node.Version(), bounds.X, bounds.Y, bounds.W, bounds.H)
}
