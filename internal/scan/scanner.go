package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/idelchi/diskmap/internal/tree"
)

// scanner orchestrates one task's traversal: depth-first, bounded
// concurrency across sibling subdirectories, filter consultation per
// entry, node creation on the task's tree.
type scanner struct {
	task    *Task
	filter  *Filter
	visited *realPathSet // non-nil only when following symlinks
	log     zerolog.Logger
}

// run drives the traversal to a terminal state. Workers own disjoint
// subtree branches, so node contents need no locking; only the hardlink
// index and counters are shared.
func (s *scanner) run(ctx context.Context) {
	go s.task.reporter.Run()

	s.scanDir(ctx, s.task.node, 0)

	s.task.reporter.Close()

	final := StateCompleted
	if s.task.cancelRequested.Load() {
		final = StateCancelled
	}
	s.task.finish(final)

	// The terminal event bypasses the throttle. A live consumer always
	// receives it; the escapes below only fire when the stream has been
	// abandoned with a full buffer, so the goroutine does not park forever.
	done := Event{Kind: EventDone, Progress: s.task.reporter.Snapshot(), State: final}
	select {
	case s.task.events <- done:
	default:
		select {
		case s.task.events <- done:
		case <-s.task.cancelCh:
		case <-ctx.Done():
		}
	}
	close(s.task.events)
}

// scanDir reads one directory and processes its entries in order.
// Cancellation and pause are observed at every entry boundary. A failure
// to read the directory is recorded against its path and the scan moves
// on; a single entry failure is never fatal to the task.
func (s *scanner) scanDir(ctx context.Context, dir *tree.Node, depth int) {
	if s.task.checkpoint(ctx) != nil {
		return
	}

	if s.visited != nil && !s.visited.add(dir.Path()) {
		s.log.Debug().Str("path", dir.Path()).Msg("symlink cycle, skipping")
		return
	}

	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		s.task.recordError(dir.Path(), err)
		return
	}

	var wg sync.WaitGroup
	for _, entry := range entries {
		if s.task.checkpoint(ctx) != nil {
			break
		}
		s.processEntry(ctx, dir, entry, depth, &wg)
	}
	wg.Wait()
}

// processEntry classifies one entry (regular, directory, symlink, other)
// and routes it accordingly.
func (s *scanner) processEntry(ctx context.Context, parent *tree.Node, entry fs.DirEntry, depth int, wg *sync.WaitGroup) {
	name := entry.Name()
	path := filepath.Join(parent.Path(), name)

	if s.task.cfg.Depth > 0 && depth+1 > s.task.cfg.Depth {
		s.log.Debug().Str("path", path).Int("depth", depth+1).Msg("beyond depth limit")
		return
	}

	s.task.reporter.Observe(path)

	switch mode := entry.Type(); {
	case mode&fs.ModeSymlink != 0:
		s.processSymlink(ctx, parent, name, path, depth, wg)
	case entry.IsDir():
		s.processDir(ctx, parent, name, path, depth, wg)
	case mode.IsRegular():
		info, err := entry.Info()
		if err != nil {
			s.task.recordError(path, err)
			return
		}
		s.addFile(parent, Entry{Path: path, Name: name, Size: info.Size(), Info: info})
	default:
		// Sockets, devices, fifos: not part of size accounting.
		s.log.Debug().Str("path", path).Stringer("mode", mode).Msg("skipping special entry")
	}
}

// processDir creates the directory node and descends, either on a new
// worker when the limiter has a free slot or inline on the current one.
// The spawned worker owns the child branch exclusively.
func (s *scanner) processDir(ctx context.Context, parent *tree.Node, name, path string, depth int, wg *sync.WaitGroup) {
	if s.filter.ExcludedDir(path) {
		s.log.Debug().Str("path", path).Msg("directory excluded")
		return
	}

	child := tree.NewDirectory(name, path)
	parent.Attach(child)
	s.task.stats.dirs.Add(1)
	s.task.emitNode(child)

	if s.task.limit.TryAcquire() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.task.limit.Release()
			s.scanDir(ctx, child, depth+1)
		}()
		return
	}
	s.scanDir(ctx, child, depth+1)
}

// processSymlink resolves a link when following is enabled; otherwise the
// link is excluded from size accounting.
func (s *scanner) processSymlink(ctx context.Context, parent *tree.Node, name, path string, depth int, wg *sync.WaitGroup) {
	if !s.task.cfg.FollowSymlinks {
		s.log.Debug().Str("path", path).Msg("symlink not followed")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Dangling link: attribute and continue.
		s.task.recordError(path, err)
		return
	}

	switch {
	case info.IsDir():
		s.processDir(ctx, parent, name, path, depth, wg)
	case info.Mode().IsRegular():
		s.addFile(parent, Entry{Path: path, Name: name, Size: info.Size(), IsSymlink: true, Info: info})
	}
}

// addFile consults the filter and, on inclusion, attaches a leaf node and
// updates the shared counters.
func (s *scanner) addFile(parent *tree.Node, e Entry) {
	if !s.filter.ShouldInclude(e) {
		s.log.Debug().Str("path", e.Path).Msg("filtered out")
		return
	}

	node := tree.NewFile(e.Name, e.Path, e.Size)
	parent.Attach(node)
	s.task.stats.files.Add(1)
	s.task.stats.bytes.Add(e.Size)
	s.task.emitNode(node)
}

// realPathSet breaks symlink cycles: every scanned directory registers
// its resolved real path, and a directory already present is skipped.
type realPathSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newRealPathSet() *realPathSet {
	return &realPathSet{seen: make(map[string]struct{})}
}

// add registers the resolved path and reports whether it was new.
func (v *realPathSet) add(path string) bool {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = filepath.Clean(path)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[real]; ok {
		return false
	}
	v.seen[real] = struct{}{}
	return true
}
