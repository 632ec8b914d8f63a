package scan

import "github.com/idelchi/diskmap/internal/tree"

// eventBuffer sizes the event stream so short consumer stalls do not
// block workers.
const eventBuffer = 256

// EventKind discriminates entries on the scan event stream.
type EventKind int

const (
	// EventNode reports a newly discovered tree node.
	EventNode EventKind = iota
	// EventProgress carries a throttled progress snapshot.
	EventProgress
	// EventError reports a non-fatal per-entry error.
	EventError
	// EventDone is the terminal event; it is always the last one emitted
	// and bypasses the progress throttle.
	EventDone
)

// Event is one entry on the scan stream.
type Event struct {
	Kind     EventKind
	Node     *tree.Node // EventNode
	Path     string     // EventNode, EventError
	Err      error      // EventError
	Progress Snapshot   // EventProgress, EventDone
	State    State      // EventDone
}

// emitNode delivers a discovery event, giving up if the task is
// cancelled while the consumer lags.
func (t *Task) emitNode(n *tree.Node) {
	select {
	case t.events <- Event{Kind: EventNode, Node: n, Path: n.Path()}:
	case <-t.cancelCh:
	}
}

// emitProgress never blocks: snapshots are droppable, the next tick
// supersedes them.
func (t *Task) emitProgress(snap Snapshot) {
	select {
	case t.events <- Event{Kind: EventProgress, Progress: snap}:
	default:
	}
}

// emitError never blocks: errors are also retained on the task.
func (t *Task) emitError(path string, err error) {
	select {
	case t.events <- Event{Kind: EventError, Path: path, Err: err}:
	default:
	}
}
