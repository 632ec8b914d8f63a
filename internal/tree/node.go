package tree

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Node is one file or directory entry in the aggregate tree.
//
// Ownership: a node owns its children; the parent pointer is a non-owning
// back-reference used only for path reconstruction and upward cache
// invalidation. During a scan each node is mutated by exactly one worker
// (the one that owns its branch), so node contents need no lock; the
// cache fields are atomics because invalidation climbs through ancestors
// that other workers may be climbing through at the same time.
type Node struct {
	id       string
	name     string
	path     string
	size     int64
	isDir    bool
	parent   *Node
	children []*Node

	total      atomic.Int64
	totalValid atomic.Bool
	version    atomic.Uint64
}

// NewDirectory creates a directory node with a zero declared size.
func NewDirectory(name, path string) *Node {
	return &Node{
		id:    uuid.NewString(),
		name:  name,
		path:  path,
		isDir: true,
	}
}

// NewFile creates a regular-file node with the given declared size.
func NewFile(name, path string, size int64) *Node {
	return &Node{
		id:   uuid.NewString(),
		name: name,
		path: path,
		size: size,
	}
}

// newWithID is used by snapshot loading to restore stable identities.
func newWithID(id, name, path string, size int64, isDir bool) *Node {
	return &Node{
		id:    id,
		name:  name,
		path:  path,
		size:  size,
		isDir: isDir,
	}
}

// ID returns the node's stable unique identifier.
func (n *Node) ID() string { return n.id }

// Name returns the entry's base name.
func (n *Node) Name() string { return n.name }

// Path returns the entry's absolute path.
func (n *Node) Path() string { return n.path }

// IsDir reports whether the node represents a directory.
func (n *Node) IsDir() bool { return n.isDir }

// Size returns the declared size: the file's own size, 0 for directories.
func (n *Node) Size() int64 { return n.size }

// Parent returns the non-owning back-reference, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's owned children in discovery order.
// Callers must not modify the returned slice.
func (n *Node) Children() []*Node { return n.children }

// Version returns the subtree version counter. It increments whenever the
// node's child set or size changes, and whenever any descendant's does.
func (n *Node) Version() uint64 { return n.version.Load() }

// TotalSize returns the node's declared size plus the recursive sum of
// its children's total sizes. The value is cached per node and lazily
// recomputed after invalidation. It must be called against a stable
// snapshot: a completed or paused scan.
func (n *Node) TotalSize() int64 {
	if n.totalValid.Load() {
		return n.total.Load()
	}
	total := n.size
	for _, c := range n.children {
		total += c.TotalSize()
	}
	n.total.Store(total)
	n.totalValid.Store(true)
	return total
}

// Attach appends a child and invalidates the cached totals of this node
// and all its ancestors. Caches can be warm even mid-scan (totals may be
// read against a paused task), so attachment always propagates
// invalidation upward.
func (n *Node) Attach(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
	n.version.Add(1)
	n.invalidate()
}

// AddChild appends a child. It is Attach under the name the edit
// operations use.
func (n *Node) AddChild(child *Node) {
	n.Attach(child)
}

// RemoveChild detaches the child with the given id. It reports whether a
// child was removed; on removal the node and its ancestors are
// invalidated.
func (n *Node) RemoveChild(id string) bool {
	for i, c := range n.children {
		if c.id != id {
			continue
		}
		c.parent = nil
		n.children = append(n.children[:i], n.children[i+1:]...)
		n.version.Add(1)
		n.invalidate()
		return true
	}
	return false
}

// SetSize updates the declared size and invalidates cached totals up to
// the root.
func (n *Node) SetSize(size int64) {
	n.size = size
	n.version.Add(1)
	n.invalidate()
}

// invalidate drops the cached total on this node and every ancestor, and
// bumps their versions so layout cache keys derived from them go stale.
// The climb always reaches the root; ancestors may already be invalid
// but their versions still need the bump.
func (n *Node) invalidate() {
	for p := n; p != nil; p = p.parent {
		p.totalValid.Store(false)
		if p != n {
			p.version.Add(1)
		}
	}
}

// Walk visits the node and all descendants depth-first, parents before
// children. The visit function returning false prunes that subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// SyntheticChildID derives a deterministic identifier for a synthetic
// node owned by this parent, stable across re-layouts with the same
// inputs. The label distinguishes multiple synthetics under one parent.
func (n *Node) SyntheticChildID(label string) string {
	space, err := uuid.Parse(n.id)
	if err != nil {
		space = uuid.NewSHA1(uuid.NameSpaceOID, []byte(n.id))
	}
	return uuid.NewSHA1(space, []byte(label)).String()
}
