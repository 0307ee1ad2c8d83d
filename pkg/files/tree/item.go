// Package tree models the files of a torrent as a navigable directory tree.
//
// A tree is built once from a flat file list (see Builder) and then handed
// to a Tree engine, which owns it exclusively: navigation, wanted-state and
// priority changes, renames and byte-count updates are all serialized on the
// engine's private worker goroutine. Directory items are aggregates of their
// children and are recomputed bottom-up after every leaf-level change.
package tree

import (
	"fmt"
	"slices"
)

// DirectoryFileID is the FileID of every directory item.
const DirectoryFileID = -1

// WantedState tells the torrent daemon whether to download a file.
type WantedState int

const (
	Wanted WantedState = iota
	Unwanted
	// Mixed is only valid for directories whose children disagree.
	Mixed
)

// WantedStateFromBool converts a plain wanted flag.
func WantedStateFromBool(wanted bool) WantedState {
	if wanted {
		return Wanted
	}
	return Unwanted
}

// String returns the lowercase name of the state.
func (s WantedState) String() string {
	switch s {
	case Wanted:
		return "wanted"
	case Unwanted:
		return "unwanted"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("WantedState(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s WantedState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Priority is the bandwidth priority of a file.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	// PriorityMixed is only valid for directories whose children disagree.
	PriorityMixed
)

// String returns the lowercase name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityMixed:
		return "mixed"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Item describes one file or directory of the tree.
//
// Items are values: a node never modifies the Item it holds, it replaces it.
// An *Item obtained from a node or from published items must be treated as
// read-only.
type Item struct {
	FileID        int         `json:"file_id" yaml:"file_id"`
	Name          string      `json:"name" yaml:"name"`
	Size          int64       `json:"size" yaml:"size"`
	CompletedSize int64       `json:"completed_size" yaml:"completed_size"`
	WantedState   WantedState `json:"wanted" yaml:"wanted"`
	Priority      Priority    `json:"priority" yaml:"priority"`

	// NodePath holds the sibling indexes leading from the root to this item.
	// It is assigned when the node is created and never renumbered.
	NodePath []int `json:"node_path" yaml:"node_path"`
}

// IsDirectory reports whether the item is a directory.
func (i *Item) IsDirectory() bool {
	return i.FileID == DirectoryFileID
}

// Index returns the item's position in its parent's child list, or -1 for
// the root.
func (i *Item) Index() int {
	if len(i.NodePath) == 0 {
		return -1
	}
	return i.NodePath[len(i.NodePath)-1]
}

// Progress returns the completed fraction in [0, 1]. An empty item has no
// progress.
func (i *Item) Progress() float64 {
	if i.Size == 0 {
		return 0
	}
	return float64(i.CompletedSize) / float64(i.Size)
}

// Equal reports whether two items have identical fields.
func (i *Item) Equal(other *Item) bool {
	if i == other {
		return true
	}
	if i == nil || other == nil {
		return false
	}
	return i.FileID == other.FileID &&
		i.Name == other.Name &&
		i.Size == other.Size &&
		i.CompletedSize == other.CompletedSize &&
		i.WantedState == other.WantedState &&
		i.Priority == other.Priority &&
		slices.Equal(i.NodePath, other.NodePath)
}

// withName returns a copy of the item carrying a new name.
func (i Item) withName(name string) *Item {
	i.Name = name
	return &i
}

// withWantedState returns a copy of the item carrying a new wanted state.
func (i Item) withWantedState(state WantedState) *Item {
	i.WantedState = state
	return &i
}

// withPriority returns a copy of the item carrying a new priority.
func (i Item) withPriority(priority Priority) *Item {
	i.Priority = priority
	return &i
}

// calculatedFromChildren returns a copy of the item whose sizes, wanted
// state and priority are aggregated from the direct children.
func (i Item) calculatedFromChildren(children []Node) *Item {
	if len(children) == 0 {
		return &i
	}

	first := children[0].Item()
	i.Size = 0
	i.CompletedSize = 0
	i.WantedState = first.WantedState
	i.Priority = first.Priority

	for _, child := range children {
		item := child.Item()
		i.Size += item.Size
		i.CompletedSize += item.CompletedSize
		if i.WantedState != Mixed && item.WantedState != i.WantedState {
			i.WantedState = Mixed
		}
		if i.Priority != PriorityMixed && item.Priority != i.Priority {
			i.Priority = PriorityMixed
		}
	}

	return &i
}

// itemsEqual compares published item lists; nil entries are the parent
// placeholder.
func itemsEqual(a, b []*Item) bool {
	return slices.EqualFunc(a, b, func(x, y *Item) bool { return x.Equal(y) })
}
