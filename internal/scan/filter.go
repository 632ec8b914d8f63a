package scan

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Entry is one classified directory entry handed to the filter.
type Entry struct {
	Path      string
	Name      string
	Size      int64
	IsSymlink bool
	Info      fs.FileInfo
}

// fileID identifies one inode across hardlinked paths.
type fileID struct {
	dev uint64
	ino uint64
}

// HardlinkIndex records inodes already counted during one scan task so a
// multiply-linked file contributes its size exactly once. Which path is
// retained depends on which worker stats the inode first; totals are
// unaffected, only the attribution path can vary run to run.
type HardlinkIndex struct {
	mu   sync.Mutex
	seen map[fileID]struct{}
}

// NewHardlinkIndex returns an empty index scoped to one task.
func NewHardlinkIndex() *HardlinkIndex {
	return &HardlinkIndex{seen: make(map[fileID]struct{})}
}

// SeenBefore records id and reports whether it was already present.
func (ix *HardlinkIndex) SeenBefore(id fileID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.seen[id]; ok {
		return true
	}
	ix.seen[id] = struct{}{}
	return false
}

// Len returns the number of recorded inodes.
func (ix *HardlinkIndex) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.seen)
}

// Filter decides, per discovered entry, whether a node is created.
// Rules apply in order and short-circuit on the first exclusion:
// zero-size files, symlinks, hardlink duplicates, then user rules.
type Filter struct {
	includeEmpty   bool
	followSymlinks bool
	minSize        int64
	maxSize        int64
	extInclude     map[string]struct{}
	extExclude     map[string]struct{}
	excludes       []*regexp.Regexp
	predicate      func(path string, size int64) bool
	hardlinks      *HardlinkIndex
}

// NewFilter compiles the config's rules. It fails on an invalid exclusion
// pattern, which is a task-level error.
func NewFilter(cfg Config) (*Filter, error) {
	f := &Filter{
		includeEmpty:   cfg.IncludeEmpty,
		followSymlinks: cfg.FollowSymlinks,
		minSize:        cfg.MinSize,
		maxSize:        cfg.MaxSize,
		extInclude:     make(map[string]struct{}),
		extExclude:     make(map[string]struct{}),
		predicate:      cfg.Predicate,
		hardlinks:      NewHardlinkIndex(),
	}

	for _, ext := range cfg.Extensions {
		ext = strings.Trim(ext, "'\"")
		if rest, ok := strings.CutPrefix(ext, "!"); ok {
			f.extExclude[rest] = struct{}{}
		} else {
			f.extInclude[ext] = struct{}{}
		}
	}

	for _, pattern := range cfg.Excludes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		f.excludes = append(f.excludes, re)
	}

	return f, nil
}

// Hardlinks exposes the task-scoped dedup index.
func (f *Filter) Hardlinks() *HardlinkIndex { return f.hardlinks }

// ExcludedDir reports whether a directory path matches an exclusion
// pattern. Extension and size rules never apply to directories.
func (f *Filter) ExcludedDir(path string) bool {
	return f.matchesExclude(path)
}

// ShouldInclude applies the rule chain to a non-directory entry.
func (f *Filter) ShouldInclude(e Entry) bool {
	if e.Size == 0 && !e.IsSymlink && !f.includeEmpty {
		return false
	}

	if e.IsSymlink && !f.followSymlinks {
		return false
	}

	if e.Info != nil {
		if id, nlink, ok := fileIdentity(e.Info); ok && nlink > 1 {
			if f.hardlinks.SeenBefore(id) {
				return false
			}
		}
	}

	return f.matchesUserRules(e.Path, e.Size)
}

func (f *Filter) matchesUserRules(path string, size int64) bool {
	if f.matchesExclude(path) {
		return false
	}
	if !f.includeByExtension(path) {
		return false
	}
	if size < f.minSize {
		return false
	}
	if f.maxSize > 0 && size > f.maxSize {
		return false
	}
	if f.predicate != nil && !f.predicate(path, size) {
		return false
	}
	return true
}

func (f *Filter) matchesExclude(path string) bool {
	if len(f.excludes) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	for _, re := range f.excludes {
		if re.MatchString(slashed) {
			return true
		}
	}
	return false
}

func (f *Filter) includeByExtension(path string) bool {
	for ext := range f.extExclude {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	if len(f.extInclude) == 0 {
		return true
	}
	for ext := range f.extInclude {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
