package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterZeroSizeDefaultExcluded(t *testing.T) {
	f, err := NewFilter(DefaultConfig())
	require.NoError(t, err)

	require.False(t, f.ShouldInclude(Entry{Path: "/d/empty", Name: "empty", Size: 0}))
	require.True(t, f.ShouldInclude(Entry{Path: "/d/full", Name: "full", Size: 1}))
}

func TestFilterZeroSizeIncludedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeEmpty = true
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	require.True(t, f.ShouldInclude(Entry{Path: "/d/empty", Name: "empty", Size: 0}))
}

func TestFilterSymlinkExcludedByDefault(t *testing.T) {
	f, err := NewFilter(DefaultConfig())
	require.NoError(t, err)

	require.False(t, f.ShouldInclude(Entry{Path: "/d/link", Name: "link", Size: 100, IsSymlink: true}))

	cfg := DefaultConfig()
	cfg.FollowSymlinks = true
	f, err = NewFilter(cfg)
	require.NoError(t, err)
	require.True(t, f.ShouldInclude(Entry{Path: "/d/link", Name: "link", Size: 100, IsSymlink: true}))
}

func TestFilterExtensionRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extensions = []string{".go", "!_test.go"}
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	require.True(t, f.ShouldInclude(Entry{Path: "/p/main.go", Name: "main.go", Size: 10}))
	require.False(t, f.ShouldInclude(Entry{Path: "/p/main_test.go", Name: "main_test.go", Size: 10}))
	require.False(t, f.ShouldInclude(Entry{Path: "/p/readme.md", Name: "readme.md", Size: 10}))
}

func TestFilterExcludePatterns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Excludes = []string{`.*node_modules/.*`}
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	require.False(t, f.ShouldInclude(Entry{Path: "/p/node_modules/x.js", Name: "x.js", Size: 10}))
	require.True(t, f.ShouldInclude(Entry{Path: "/p/src/x.js", Name: "x.js", Size: 10}))
	require.True(t, f.ExcludedDir("/p/node_modules/sub"))
	require.False(t, f.ExcludedDir("/p/src"))
}

func TestFilterInvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Excludes = []string{`([`}
	_, err := NewFilter(cfg)
	require.Error(t, err)
}

func TestFilterSizeBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinSize = 10
	cfg.MaxSize = 100
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	require.False(t, f.ShouldInclude(Entry{Path: "/d/tiny", Name: "tiny", Size: 5}))
	require.True(t, f.ShouldInclude(Entry{Path: "/d/mid", Name: "mid", Size: 50}))
	require.False(t, f.ShouldInclude(Entry{Path: "/d/huge", Name: "huge", Size: 500}))
}

func TestFilterCustomPredicate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Predicate = func(path string, _ int64) bool {
		return !strings.Contains(path, "skipme")
	}
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	require.False(t, f.ShouldInclude(Entry{Path: "/d/skipme.bin", Name: "skipme.bin", Size: 10}))
	require.True(t, f.ShouldInclude(Entry{Path: "/d/keep.bin", Name: "keep.bin", Size: 10}))
}

func TestFilterDeterministicAcrossOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extensions = []string{".log"}
	cfg.MinSize = 2
	f, err := NewFilter(cfg)
	require.NoError(t, err)

	entries := []Entry{
		{Path: "/a/x.log", Name: "x.log", Size: 5},
		{Path: "/b/y.txt", Name: "y.txt", Size: 5},
		{Path: "/c/z.log", Name: "z.log", Size: 1},
	}

	// Same classification regardless of visiting order.
	want := []bool{true, false, false}
	for i, e := range entries {
		require.Equal(t, want[i], f.ShouldInclude(e))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		require.Equal(t, want[i], f.ShouldInclude(entries[i]))
	}
}

func TestHardlinkIndexFirstSeenWins(t *testing.T) {
	ix := NewHardlinkIndex()

	id := fileID{dev: 1, ino: 42}
	require.False(t, ix.SeenBefore(id), "first instance is retained")
	require.True(t, ix.SeenBefore(id), "second instance is a duplicate")
	require.True(t, ix.SeenBefore(id))

	other := fileID{dev: 1, ino: 43}
	require.False(t, ix.SeenBefore(other))
	require.Equal(t, 2, ix.Len())
}
