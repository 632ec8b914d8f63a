package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// snapshotVersion guards the on-disk format. Older versions are rejected
// rather than migrated.
const snapshotVersion = 1

// Snapshot is a serializable projection of one scanned tree and the state
// of the task that produced it. Nodes are flattened with ordered child id
// lists so child order survives a round trip.
type Snapshot struct {
	Version   int            `json:"version"`
	RootID    string         `json:"rootId"`
	TaskState string         `json:"taskState"`
	Stats     SnapshotStats  `json:"stats"`
	Nodes     []snapshotNode `json:"nodes"`
}

// SnapshotStats carries the running statistics of the owning scan task.
type SnapshotStats struct {
	Files  int64 `json:"files"`
	Dirs   int64 `json:"dirs"`
	Bytes  int64 `json:"bytes"`
	Errors int64 `json:"errors"`
}

type snapshotNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Total    int64    `json:"total"`
	IsDir    bool     `json:"isDir"`
	Children []string `json:"children,omitempty"`
}

// NewSnapshot flattens the tree rooted at root together with the owning
// task's terminal state and statistics.
func NewSnapshot(root *Node, taskState string, stats SnapshotStats) *Snapshot {
	snap := &Snapshot{
		Version:   snapshotVersion,
		RootID:    root.ID(),
		TaskState: taskState,
		Stats:     stats,
	}
	root.Walk(func(n *Node) bool {
		sn := snapshotNode{
			ID:    n.ID(),
			Name:  n.Name(),
			Path:  n.Path(),
			Size:  n.Size(),
			Total: n.TotalSize(),
			IsDir: n.IsDir(),
		}
		for _, c := range n.Children() {
			sn.Children = append(sn.Children, c.ID())
		}
		snap.Nodes = append(snap.Nodes, sn)
		return true
	})
	return snap
}

// Root rebuilds the node tree from the snapshot. Node identities, paths,
// sizes and child order are restored exactly. The recorded totals are
// checked against the rebuilt tree, catching snapshots whose sizes were
// corrupted or edited by hand.
func (s *Snapshot) Root() (*Node, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}

	byID := make(map[string]*Node, len(s.Nodes))
	for _, sn := range s.Nodes {
		byID[sn.ID] = newWithID(sn.ID, sn.Name, sn.Path, sn.Size, sn.IsDir)
	}

	for _, sn := range s.Nodes {
		parent := byID[sn.ID]
		for _, childID := range sn.Children {
			child, ok := byID[childID]
			if !ok {
				return nil, fmt.Errorf("snapshot references unknown node %s", childID)
			}
			parent.Attach(child)
		}
	}

	root, ok := byID[s.RootID]
	if !ok {
		return nil, fmt.Errorf("snapshot root %s not found", s.RootID)
	}

	for _, sn := range s.Nodes {
		if got := byID[sn.ID].TotalSize(); got != sn.Total {
			return nil, fmt.Errorf("snapshot total mismatch on %s: recorded %d, rebuilt %d", sn.Path, sn.Total, got)
		}
	}

	return root, nil
}

// Write encodes the snapshot as indented JSON.
func (s *Snapshot) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot previously produced by Write.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// SaveFile writes the snapshot to path, creating parent directories as
// needed.
func (s *Snapshot) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer f.Close()
	return s.Write(f)
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
