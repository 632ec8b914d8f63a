package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/idelchi/diskmap/internal/tree"
)

// State is the task lifecycle position.
type State int

const (
	StatePending State = iota
	StateScanning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

// Terminal reports whether the task has finished, one way or another.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateScanning:
		return "scanning"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotApplicable signals a lifecycle call that is a no-op in the task's
// current state, e.g. cancelling an already-completed task.
var ErrNotApplicable = errors.New("transition not applicable in current state")

// errCancelled unwinds workers after a cancellation is observed. It never
// crosses the package boundary: cancellation is a terminal state, not an
// error.
var errCancelled = errors.New("scan cancelled")

// Stats are the running counters of one scan task. They are shared across
// workers, hence atomic.
type Stats struct {
	files  atomic.Int64
	dirs   atomic.Int64
	bytes  atomic.Int64
	errors atomic.Int64
}

// StatsView is a point-in-time copy of the counters.
type StatsView struct {
	Files  int64 `json:"files"`
	Dirs   int64 `json:"dirs"`
	Bytes  int64 `json:"bytes"`
	Errors int64 `json:"errors"`
}

// View copies the current counter values.
func (s *Stats) View() StatsView {
	return StatsView{
		Files:  s.files.Load(),
		Dirs:   s.dirs.Load(),
		Bytes:  s.bytes.Load(),
		Errors: s.errors.Load(),
	}
}

// EntryError is a non-fatal error attributed to one path.
type EntryError struct {
	Path string
	Err  error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Task owns one scan: its configuration, lifecycle state machine,
// cancellation and pause flags, statistics and the produced tree. One
// tree is associated with exactly one task.
type Task struct {
	id   string
	root string
	cfg  Config

	mu     sync.Mutex
	state  State
	resume chan struct{} // replaced on pause, closed on resume
	failed error

	cancelRequested atomic.Bool
	pausedFlag      atomic.Bool
	cancelCh        chan struct{}
	done            chan struct{}
	closeOnce       sync.Once

	stats Stats
	errMu sync.Mutex
	errs  []EntryError

	limit    *limiter
	reporter *Reporter
	node     *tree.Node
	events   chan Event
}

// NewTask creates a pending task for rootPath. Build cfg from
// DefaultConfig so unset fields keep their documented defaults.
func NewTask(rootPath string, cfg Config) *Task {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultProgressInterval
	}
	return &Task{
		id:       uuid.NewString(),
		root:     rootPath,
		cfg:      cfg,
		state:    StatePending,
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// RootPath returns the path the task scans.
func (t *Task) RootPath() string { return t.root }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Root returns the produced tree's root node. It is partial until the
// task reaches a terminal state or is paused.
func (t *Task) Root() *tree.Node { return t.node }

// Stats copies the running counters.
func (t *Task) Stats() StatsView { return t.stats.View() }

// Errors returns the per-entry errors recorded so far.
func (t *Task) Errors() []EntryError {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	out := make([]EntryError, len(t.errs))
	copy(out, t.errs)
	return out
}

// Err returns the task-level failure, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Start validates the root path and begins traversal. Task-level errors
// (empty path, missing root, root not a directory, bad exclusion pattern)
// are returned synchronously and move the task to failed before any
// traversal happens. On success the returned stream carries node, error
// and progress events and is closed after a terminal event.
func (t *Task) Start(ctx context.Context) (<-chan Event, error) {
	t.mu.Lock()
	if t.state != StatePending {
		t.mu.Unlock()
		return nil, ErrNotApplicable
	}
	t.mu.Unlock()

	fail := func(err error) error {
		t.mu.Lock()
		// A Cancel racing validation may have taken the task to
		// cancelled already; that state wins.
		if t.state == StatePending {
			t.state = StateFailed
			t.failed = err
		}
		t.mu.Unlock()
		t.closeDone()
		return err
	}

	if t.root == "" {
		return nil, fail(errors.New("empty root path"))
	}

	abs, err := filepath.Abs(filepath.Clean(t.root))
	if err != nil {
		return nil, fail(fmt.Errorf("resolving absolute path: %w", err))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fail(fmt.Errorf("accessing path %q: %w", abs, err))
	}
	if !info.IsDir() {
		return nil, fail(fmt.Errorf("path %q is not a directory", abs))
	}

	filter, err := NewFilter(t.cfg)
	if err != nil {
		return nil, fail(fmt.Errorf("compiling exclusion pattern: %w", err))
	}

	t.node = tree.NewDirectory(filepath.Base(abs), abs)
	t.limit = newLimiter(t.cfg.Concurrency)
	t.events = make(chan Event, eventBuffer)
	t.reporter = NewReporter(&t.stats, t.cfg.ProgressInterval, func(snap Snapshot) {
		t.emitProgress(snap)
	})
	t.reporter.SetEstimate(t.cfg.EstimateBytes)

	t.mu.Lock()
	if t.state != StatePending {
		// Cancelled while validating: the scanner never runs.
		t.mu.Unlock()
		return nil, ErrNotApplicable
	}
	t.state = StateScanning
	t.mu.Unlock()

	s := &scanner{
		task:   t,
		filter: filter,
		log:    t.cfg.Logger,
	}
	if t.cfg.FollowSymlinks {
		s.visited = newRealPathSet()
	}

	go s.run(ctx)

	return t.events, nil
}

// Pause suspends traversal without discarding the partial tree. Workers
// park at the next entry boundary.
func (t *Task) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateScanning {
		return ErrNotApplicable
	}
	t.state = StatePaused
	t.resume = make(chan struct{})
	t.pausedFlag.Store(true)
	return nil
}

// Resume continues a paused traversal from the next unvisited entry;
// entries visited before the pause are not revisited.
func (t *Task) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePaused {
		return ErrNotApplicable
	}
	t.state = StateScanning
	t.pausedFlag.Store(false)
	close(t.resume)
	return nil
}

// Cancel requests a prompt cooperative stop. The partial tree is
// preserved and the task ends in the cancelled state. Cancelling a task
// that already finished returns ErrNotApplicable.
func (t *Task) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return ErrNotApplicable
	}
	if t.cancelRequested.Swap(true) {
		return nil
	}
	close(t.cancelCh)
	if t.state == StatePending {
		// Never started: no scanner will observe the flag, finish here.
		t.state = StateCancelled
		t.closeDone()
	}
	return nil
}

// SetConcurrency adjusts the worker limit mid-scan. This is the throttle
// collaborator's signal; shrinking takes full effect as in-flight workers
// finish.
func (t *Task) SetConcurrency(n int) {
	t.mu.Lock()
	limit := t.limit
	t.mu.Unlock()
	if limit != nil {
		limit.SetLimit(n)
	}
}

// Wait blocks until the task reaches a terminal state and returns it.
func (t *Task) Wait() State {
	<-t.done
	return t.State()
}

// checkpoint is called at every traversal step boundary. It observes
// cancellation without blocking and parks the worker while the task is
// paused.
func (t *Task) checkpoint(ctx context.Context) error {
	for {
		if t.cancelRequested.Load() {
			return errCancelled
		}
		if ctx.Err() != nil {
			_ = t.Cancel()
			return errCancelled
		}
		if !t.pausedFlag.Load() {
			return nil
		}

		t.mu.Lock()
		resume := t.resume
		t.mu.Unlock()

		select {
		case <-resume:
		case <-t.cancelCh:
			return errCancelled
		case <-ctx.Done():
			_ = t.Cancel()
			return errCancelled
		}
	}
}

// finish moves the task to a terminal state once.
func (t *Task) finish(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = s
	t.closeDone()
}

// closeDone signals Wait exactly once, whichever lifecycle path gets
// there first.
func (t *Task) closeDone() {
	t.closeOnce.Do(func() { close(t.done) })
}

// recordError collects a per-entry error. Entry failures never cross the
// scanner's boundary as returned errors; they accumulate on the task and
// surface on the error stream.
func (t *Task) recordError(path string, err error) {
	t.errMu.Lock()
	t.errs = append(t.errs, EntryError{Path: path, Err: err})
	t.errMu.Unlock()
	t.stats.errors.Add(1)
	t.emitError(path, err)
}
