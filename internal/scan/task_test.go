package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskStatesString(t *testing.T) {
	require.Equal(t, "pending", StatePending.String())
	require.Equal(t, "scanning", StateScanning.String())
	require.Equal(t, "paused", StatePaused.String())
	require.Equal(t, "completed", StateCompleted.String())
	require.Equal(t, "cancelled", StateCancelled.String())
	require.Equal(t, "failed", StateFailed.String())

	require.False(t, StatePending.Terminal())
	require.False(t, StateScanning.Terminal())
	require.False(t, StatePaused.Terminal())
	require.True(t, StateCompleted.Terminal())
	require.True(t, StateCancelled.Terminal())
	require.True(t, StateFailed.Terminal())
}

func TestTaskInvalidTransitionsAreNoOps(t *testing.T) {
	task := NewTask(t.TempDir(), DefaultConfig())

	// Pending: pause and resume are not applicable.
	require.ErrorIs(t, task.Pause(), ErrNotApplicable)
	require.ErrorIs(t, task.Resume(), ErrNotApplicable)

	events, err := task.Start(context.Background())
	require.NoError(t, err)
	drain(events)
	require.Equal(t, StateCompleted, task.Wait())

	// Terminal: everything is not applicable.
	require.ErrorIs(t, task.Pause(), ErrNotApplicable)
	require.ErrorIs(t, task.Resume(), ErrNotApplicable)
	require.ErrorIs(t, task.Cancel(), ErrNotApplicable)

	_, err = task.Start(context.Background())
	require.ErrorIs(t, err, ErrNotApplicable)
}

func TestTaskCancelBeforeStart(t *testing.T) {
	task := NewTask(t.TempDir(), DefaultConfig())

	require.NoError(t, task.Cancel())
	require.Equal(t, StateCancelled, task.Wait())

	_, err := task.Start(context.Background())
	require.ErrorIs(t, err, ErrNotApplicable)
}

func TestTaskFailsOnEmptyPath(t *testing.T) {
	task := NewTask("", DefaultConfig())

	_, err := task.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, task.State())
	require.Error(t, task.Err())
}

func TestTaskFailsOnMissingRoot(t *testing.T) {
	task := NewTask(filepath.Join(t.TempDir(), "does-not-exist"), DefaultConfig())

	_, err := task.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, task.Wait())
}

func TestTaskFailsWhenRootIsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plain.txt", 8)

	task := NewTask(path, DefaultConfig())
	_, err := task.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a directory")
	require.Equal(t, StateFailed, task.State())
}

func TestTaskFailsOnBadExcludePattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Excludes = []string{`([`}

	task := NewTask(t.TempDir(), cfg)
	_, err := task.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, task.State())
}

func TestTaskCancelRacingStart(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", 4)

	// Whichever side wins, the task must land in exactly one terminal
	// state and release Wait exactly once.
	for i := 0; i < 500; i++ {
		task := NewTask(root, DefaultConfig())

		cancelled := make(chan struct{})

		go func() {
			_ = task.Cancel()
			close(cancelled)
		}()

		events, err := task.Start(context.Background())
		if err != nil {
			require.ErrorIs(t, err, ErrNotApplicable)
		} else {
			drain(events)
		}

		<-cancelled
		require.True(t, task.Wait().Terminal())
	}
}

func TestTaskCancelRacingFailedValidation(t *testing.T) {
	for i := 0; i < 500; i++ {
		task := NewTask(filepath.Join(t.TempDir(), "missing"), DefaultConfig())

		cancelled := make(chan struct{})

		go func() {
			_ = task.Cancel()
			close(cancelled)
		}()

		_, err := task.Start(context.Background())
		require.Error(t, err)

		<-cancelled

		state := task.Wait()
		require.True(t, state.Terminal())
	}
}

func TestTaskCancelIsIdempotentWhileRunning(t *testing.T) {
	task := NewTask(t.TempDir(), DefaultConfig())

	events, err := task.Start(context.Background())
	require.NoError(t, err)

	// Double-cancel: the second request is absorbed, not an error.
	err1 := task.Cancel()
	err2 := task.Cancel()
	drain(events)
	task.Wait()

	require.True(t, err1 == nil || err1 == ErrNotApplicable)
	require.True(t, err2 == nil || err2 == ErrNotApplicable)
}
