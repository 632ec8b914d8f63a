package treemap

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/idelchi/diskmap/internal/tree"
)

// dirWithFiles builds a directory node holding one file per given size.
func dirWithFiles(name string, sizes ...int64) *tree.Node {
	dir := tree.NewDirectory(name, "/"+name)
	for i, size := range sizes {
		file := fmt.Sprintf("f%02d", i)
		dir.Attach(tree.NewFile(file, "/"+name+"/"+file, size))
	}
	return dir
}

func intersectionArea(a, b Rect) float64 {
	w := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	h := math.Min(a.Y+a.H, b.Y+b.H) - math.Max(a.Y, b.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func requireTiling(t *testing.T, rects []TreeMapRect, bounds Rect) {
	t.Helper()

	var total float64
	for _, r := range rects {
		total += r.Rect.Area()
	}
	require.InDelta(t, bounds.Area(), total, 1e-6, "areas must union to the full rectangle")

	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			require.InDelta(t, 0, intersectionArea(rects[i].Rect, rects[j].Rect), 1e-6,
				"rectangles %q and %q overlap", rects[i].Name, rects[j].Name)
		}
	}
}

func TestSquarifyProportionalAreas(t *testing.T) {
	// Files of 50, 30, 20 bytes in a 10x10 canvas: areas must come out
	// in ratio 5:3:2 and tile the canvas exactly.
	dir := dirWithFiles("data", 50, 30, 20)
	bounds := Rect{W: 10, H: 10}

	engine := NewEngine(DefaultOptions(), nil)
	rects := engine.Layout(dir, bounds)

	require.Len(t, rects, 3)
	requireTiling(t, rects, bounds)

	areas := map[string]float64{}
	for _, r := range rects {
		areas[r.Name] = r.Rect.Area()
	}
	require.InDelta(t, 50, areas["f00"], 1e-9)
	require.InDelta(t, 30, areas["f01"], 1e-9)
	require.InDelta(t, 20, areas["f02"], 1e-9)
}

func TestSquarifySingleChildFillsRectangle(t *testing.T) {
	dir := dirWithFiles("solo", 42)
	bounds := Rect{X: 5, Y: 7, W: 30, H: 20}

	rects := NewEngine(DefaultOptions(), nil).Layout(dir, bounds)

	require.Len(t, rects, 1)
	require.Equal(t, bounds, rects[0].Rect)
}

func TestSquarifyDegenerateInputs(t *testing.T) {
	engine := NewEngine(DefaultOptions(), nil)

	require.Empty(t, engine.Layout(tree.NewDirectory("empty", "/empty"), Rect{W: 10, H: 10}),
		"zero children produce an empty list")

	require.Empty(t, engine.Layout(dirWithFiles("d", 1, 2), Rect{}),
		"zero-area rectangle produces no rectangles")

	require.Empty(t, engine.Layout(nil, Rect{W: 1, H: 1}))

	zero := tree.NewDirectory("z", "/z")
	zero.Attach(tree.NewFile("f", "/z/f", 0))
	require.Empty(t, engine.Layout(zero, Rect{W: 10, H: 10}),
		"zero-weight subtree is valid degenerate input")
}

func TestSquarifyDeterministic(t *testing.T) {
	dir := dirWithFiles("data", 7, 7, 7, 13, 2, 40, 40, 1)
	bounds := Rect{W: 128, H: 72}

	first := NewEngine(DefaultOptions(), nil).Layout(dir, bounds)
	second := NewEngine(DefaultOptions(), nil).Layout(dir, bounds)

	require.Equal(t, first, second, "identical inputs must produce identical rectangle lists")
}

func TestSquarifyEqualWeightsOrderedByName(t *testing.T) {
	dir := dirWithFiles("data", 10, 10, 10, 10)
	bounds := Rect{W: 20, H: 20}

	rects := NewEngine(DefaultOptions(), nil).Layout(dir, bounds)

	require.Len(t, rects, 4)
	for i, r := range rects {
		require.Equal(t, fmt.Sprintf("f%02d", i), r.Name)
	}
	requireTiling(t, rects, bounds)
}

func TestSquarifyAspectRatiosStayReasonable(t *testing.T) {
	dir := dirWithFiles("data", 6, 6, 4, 3, 2, 2, 1)
	bounds := Rect{W: 6, H: 4}

	rects := NewEngine(DefaultOptions(), nil).Layout(dir, bounds)
	require.Len(t, rects, 7)
	requireTiling(t, rects, bounds)

	// The classic example from the algorithm: no rectangle should be
	// pathologically thin.
	for _, r := range rects {
		ratio := math.Max(r.Rect.W/r.Rect.H, r.Rect.H/r.Rect.W)
		require.Less(t, ratio, 4.0, "rectangle %q aspect %f", r.Name, ratio)
	}
}

func TestLayoutRecursesIntoDirectories(t *testing.T) {
	root := tree.NewDirectory("root", "/root")
	sub := dirWithFiles("sub", 30, 10)
	root.Attach(sub)
	root.Attach(tree.NewFile("top.bin", "/root/top.bin", 60))

	bounds := Rect{W: 10, H: 10}
	rects := NewEngine(DefaultOptions(), nil).Layout(root, bounds)

	// sub, top.bin, and sub's two files.
	require.Len(t, rects, 4)

	byName := map[string]TreeMapRect{}
	for _, r := range rects {
		byName[r.Name] = r
	}

	require.Equal(t, 0, byName["sub"].Depth)
	require.Equal(t, 0, byName["top.bin"].Depth)
	require.Equal(t, 1, byName["f00"].Depth)
	require.Equal(t, 1, byName["f01"].Depth)

	// Nested rectangles tile their parent.
	requireTiling(t, []TreeMapRect{byName["f00"], byName["f01"]}, byName["sub"].Rect)
}

func TestLayoutDepthLimit(t *testing.T) {
	root := tree.NewDirectory("root", "/root")
	sub := dirWithFiles("sub", 5, 5)
	root.Attach(sub)

	opts := DefaultOptions()
	opts.MaxDepth = 1
	rects := NewEngine(opts, nil).Layout(root, Rect{W: 10, H: 10})

	require.Len(t, rects, 1)
	require.Equal(t, "sub", rects[0].Name)
}

func TestLayoutDoesNotMutateTree(t *testing.T) {
	dir := dirWithFiles("data", 3, 2, 1)
	before := dir.Version()

	NewEngine(DefaultOptions(), NewCache(0)).Layout(dir, Rect{W: 10, H: 10})

	require.Equal(t, before, dir.Version())
	require.Equal(t, int64(6), dir.TotalSize())
}
