package treemap

import (
	"math"
	"sort"

	"github.com/idelchi/diskmap/internal/tree"
)

// Engine lays out weighted trees as squarified treemaps. It is
// synchronous and side-effect-free on its input tree.
type Engine struct {
	opts  Options
	cache *Cache
}

// NewEngine creates an engine; cache may be nil to disable memoization.
func NewEngine(opts Options, cache *Cache) *Engine {
	return &Engine{opts: opts, cache: cache}
}

// Layout partitions bounds among node's children, recursing into
// directories. Returned depths are relative to node: direct children are
// depth 0. Zero children or an empty rectangle yield an empty list —
// both are valid degenerate inputs, never errors. The returned slice and
// its contents must not be modified.
func (e *Engine) Layout(node *tree.Node, bounds Rect) []TreeMapRect {
	if node == nil || bounds.Empty() {
		return nil
	}
	return e.layoutNode(node, bounds)
}

func (e *Engine) layoutNode(node *tree.Node, bounds Rect) []TreeMapRect {
	// Depth-limited layouts are not memoized: entries from engines with
	// different remaining budgets would alias under the same key.
	cache := e.cache
	if e.opts.MaxDepth != 0 {
		cache = nil
	}
	if cache != nil {
		if rects, ok := cache.Get(node, bounds); ok {
			return rects
		}
	}

	items := MergeChildren(node, e.opts)
	placed := squarify(items, bounds)

	out := make([]TreeMapRect, 0, len(placed))
	for _, p := range placed {
		isDir := p.item.Node != nil && p.item.Node.IsDir()
		out = append(out, TreeMapRect{
			Node:      p.item.Node,
			ID:        p.item.ID,
			Name:      p.item.Name,
			Weight:    p.item.Weight,
			Rect:      p.rect,
			Depth:     0,
			ColorKey:  colorKey(p.item.Name, isDir || p.item.Synthetic()),
			Synthetic: p.item.Synthetic(),
		})

		if !isDir || p.rect.Empty() || e.opts.MaxDepth == 1 {
			continue
		}
		sub := e.layoutChild(p.item.Node, p.rect)
		out = append(out, sub...)
	}

	if cache != nil {
		cache.Put(node, bounds, out)
	}
	return out
}

// layoutChild recurses one level down and shifts the returned depths so
// they stay relative to the original root. Cached subtree layouts carry
// depths relative to their own node, which keeps entries reusable from
// any ancestor.
func (e *Engine) layoutChild(node *tree.Node, bounds Rect) []TreeMapRect {
	inner := e.withDepthBudget()
	sub := inner.layoutNode(node, bounds)
	if len(sub) == 0 {
		return nil
	}
	shifted := make([]TreeMapRect, len(sub))
	for i, r := range sub {
		r.Depth++
		shifted[i] = r
	}
	return shifted
}

// withDepthBudget returns the engine to use one recursion level down.
func (e *Engine) withDepthBudget() *Engine {
	if e.opts.MaxDepth == 0 {
		return e
	}
	inner := *e
	inner.opts.MaxDepth--
	return &inner
}

type placed struct {
	item Item
	rect Rect
}

// squarify implements the squarified treemap partition: items are taken
// largest first and greedily grown into a row along the shorter side of
// the free rectangle for as long as the row's worst aspect ratio does
// not degrade; then the row is fixed and the remainder recurses into the
// leftover space. Zero-weight items produce no rectangles.
func squarify(items []Item, bounds Rect) []placed {
	if bounds.Empty() {
		return nil
	}

	weighted := make([]Item, 0, len(items))
	var total int64
	for _, it := range items {
		if it.Weight > 0 {
			weighted = append(weighted, it)
			total += it.Weight
		}
	}
	if total == 0 {
		return nil
	}

	// Descending weight, name tiebreak: determinism regardless of the
	// caller's ordering.
	sort.SliceStable(weighted, func(i, j int) bool {
		if weighted[i].Weight != weighted[j].Weight {
			return weighted[i].Weight > weighted[j].Weight
		}
		return weighted[i].Name < weighted[j].Name
	})

	scale := bounds.Area() / float64(total)
	areas := make([]float64, len(weighted))
	for i, it := range weighted {
		areas[i] = float64(it.Weight) * scale
	}

	out := make([]placed, 0, len(weighted))
	free := bounds
	i := 0
	for i < len(weighted) {
		side := math.Min(free.W, free.H)

		rowMax, rowMin, rowSum := areas[i], areas[i], areas[i]
		worst := worstRatio(rowMax, rowMin, rowSum, side)
		j := i + 1
		for j < len(weighted) {
			nextMax := math.Max(rowMax, areas[j])
			nextMin := math.Min(rowMin, areas[j])
			nextSum := rowSum + areas[j]
			next := worstRatio(nextMax, nextMin, nextSum, side)
			if next > worst {
				break
			}
			rowMax, rowMin, rowSum, worst = nextMax, nextMin, nextSum, next
			j++
		}

		free = layRow(&out, weighted[i:j], areas[i:j], rowSum, free, j == len(weighted))
		i = j
	}
	return out
}

// worstRatio is the worst aspect ratio any rectangle in a row would get:
// a row of total area sum laid along a side of length w only needs its
// largest and smallest members checked.
func worstRatio(maxArea, minArea, sum, w float64) float64 {
	if sum <= 0 || w <= 0 {
		return math.Inf(1)
	}
	s2 := sum * sum
	w2 := w * w
	return math.Max(w2*maxArea/s2, s2/(w2*minArea))
}

// layRow fixes one row into the free rectangle and returns the leftover
// space. The strip sits along the shorter side; member lengths are
// proportional to their areas, with the final member (and, for the last
// row, the strip itself) pinned to the remaining extent so adjacent
// rectangles share exact boundary coordinates.
func layRow(out *[]placed, items []Item, areas []float64, rowSum float64, free Rect, last bool) Rect {
	if free.W >= free.H {
		// Vertical strip on the left edge.
		width := rowSum / free.H
		if last {
			width = free.W
		}
		y := free.Y
		for k, it := range items {
			h := areas[k] / width
			if k == len(items)-1 {
				h = free.Y + free.H - y
			}
			*out = append(*out, placed{item: it, rect: Rect{X: free.X, Y: y, W: width, H: h}})
			y += h
		}
		return Rect{X: free.X + width, Y: free.Y, W: free.W - width, H: free.H}
	}

	// Horizontal strip along the top edge.
	height := rowSum / free.W
	if last {
		height = free.H
	}
	x := free.X
	for k, it := range items {
		w := areas[k] / height
		if k == len(items)-1 {
			w = free.X + free.W - x
		}
		*out = append(*out, placed{item: it, rect: Rect{X: x, Y: free.Y, W: w, H: height}})
		x += w
	}
	return Rect{X: free.X, Y: free.Y + height, W: free.W, H: free.H - height}
}
