package treemap

import (
	"fmt"
	"sort"

	"github.com/idelchi/diskmap/internal/tree"
)

// Options configures merging and layout.
type Options struct {
	// MaxChildren is the cap on siblings kept individually before merging.
	MaxChildren int
	// ExtraSlots is how many of the remainder may still be kept
	// individually while they exceed MinShare.
	ExtraSlots int
	// MinShare is the minimum fraction of the parent's total size an
	// extra-slot child must hold.
	MinShare float64
	// MaxDepth bounds layout recursion (0 = unlimited).
	MaxDepth int
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxChildren: 10,
		ExtraSlots:  4,
		MinShare:    0.01,
	}
}

// Item is one weighted entry the layout engine places: a real node, or a
// synthetic group folding merged small siblings.
type Item struct {
	// Node is nil for a synthetic group.
	Node   *tree.Node
	ID     string
	Name   string
	Weight int64
	// Members holds a synthetic group's folded constituents, largest
	// first, so the group can be expanded without re-running the merge.
	Members []*tree.Node
}

// Synthetic reports whether the item is a merged group.
func (it Item) Synthetic() bool { return it.Node == nil }

// MergeChildren produces the node's layout items: the MaxChildren largest
// children individually, up to ExtraSlots more while they hold at least
// MinShare of the parent's total, and one synthetic "other (k items)"
// entry folding the rest. The synthetic identity derives from the parent,
// so re-layouts with the same inputs reuse cache entries. With
// MaxChildren or fewer children no synthetic entry is created.
func MergeChildren(node *tree.Node, opts Options) []Item {
	children := node.Children()
	if len(children) == 0 {
		return nil
	}

	sorted := make([]*tree.Node, len(children))
	copy(sorted, children)
	sortBySize(sorted)

	if opts.MaxChildren <= 0 || len(sorted) <= opts.MaxChildren {
		return asItems(sorted)
	}

	keep := sorted[:opts.MaxChildren]
	rest := sorted[opts.MaxChildren:]

	threshold := opts.MinShare * float64(node.TotalSize())
	extra := 0
	for extra < len(rest) && extra < opts.ExtraSlots && float64(rest[extra].TotalSize()) >= threshold {
		extra++
	}

	items := asItems(keep)
	items = append(items, asItems(rest[:extra])...)

	folded := rest[extra:]
	if len(folded) == 0 {
		return items
	}

	var weight int64
	for _, n := range folded {
		weight += n.TotalSize()
	}
	items = append(items, Item{
		ID:      node.SyntheticChildID("other"),
		Name:    fmt.Sprintf("other (%d items)", len(folded)),
		Weight:  weight,
		Members: folded,
	})
	return items
}

// Expand unfolds a synthetic group into individual items, largest first.
// Non-synthetic items expand to themselves.
func Expand(it Item) []Item {
	if !it.Synthetic() {
		return []Item{it}
	}
	return asItems(it.Members)
}

func asItems(nodes []*tree.Node) []Item {
	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, Item{
			Node:   n,
			ID:     n.ID(),
			Name:   n.Name(),
			Weight: n.TotalSize(),
		})
	}
	return items
}

// sortBySize orders nodes by total size descending; equal weights fall
// back to name order for determinism.
func sortBySize(nodes []*tree.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		si, sj := nodes[i].TotalSize(), nodes[j].TotalSize()
		if si != sj {
			return si > sj
		}
		return nodes[i].Name() < nodes[j].Name()
	})
}
