package treemap

import (
	"hash/fnv"
	"path/filepath"

	"github.com/idelchi/diskmap/internal/tree"
)

// Rect is an axis-aligned rectangle in double precision.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.W * r.H }

// Empty reports whether the rectangle has no drawable area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// TreeMapRect is one placed rectangle: a read-only projection of a node
// produced fresh by each layout pass. Renderers map rectangles back to
// nodes by ID for hit-testing.
type TreeMapRect struct {
	// Node is the represented tree node, nil for a synthetic merged group.
	Node *tree.Node `json:"-"`

	ID        string `json:"id"`
	Name      string `json:"name"`
	Weight    int64  `json:"weight"`
	Rect      Rect   `json:"rect"`
	Depth     int    `json:"depth"`
	ColorKey  uint32 `json:"colorKey"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// colorKey derives a stable color bucket: files hash on their extension
// so same-type files render alike, directories and synthetics hash on
// their name.
func colorKey(name string, isDir bool) uint32 {
	key := name
	if !isDir {
		if ext := filepath.Ext(name); ext != "" {
			key = ext
		}
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}
