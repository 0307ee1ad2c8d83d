package tree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath is returned for a file without path segments.
	ErrEmptyPath = errors.New("file path is empty")

	// ErrInvalidFileID is returned for a negative file id.
	ErrInvalidFileID = errors.New("invalid file id")

	// ErrInvalidState is returned when a file carries Mixed state or priority.
	ErrInvalidState = errors.New("file state must not be mixed")

	// ErrMultipleTopLevel is returned when files do not share a single
	// top-level directory or file.
	ErrMultipleTopLevel = errors.New("torrent has more than one top-level entry")

	// ErrNameConflict is returned when two entries of one directory share a
	// name, or a file and a directory collide on the same path.
	ErrNameConflict = errors.New("name conflict")
)

// File is one entry of a torrent's flat file list.
type File struct {
	ID            int
	Path          []string
	Size          int64
	CompletedSize int64
	WantedState   WantedState
	Priority      Priority
}

// BuildResult is a fully aggregated tree.
type BuildResult struct {
	Root *DirectoryNode

	// Files holds the leaves indexed by FileID.
	Files []*FileNode
}

// Builder assembles a tree from files added one at a time.
//
// The root has exactly one child: the torrent's top-level directory or, for
// a single-file torrent, the file itself. Directory items only become
// meaningful after Build aggregates them.
type Builder struct {
	root  *DirectoryNode
	files map[int]*FileNode
	maxID int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		root:  NewRootNode(),
		files: make(map[int]*FileNode),
		maxID: -1,
	}
}

// AddFile inserts a file, creating intermediate directories by name.
func (b *Builder) AddFile(f File) error {
	if len(f.Path) == 0 {
		return ErrEmptyPath
	}
	if f.ID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFileID, f.ID)
	}
	if _, exists := b.files[f.ID]; exists {
		return fmt.Errorf("%w: duplicate %d", ErrInvalidFileID, f.ID)
	}
	if f.WantedState == Mixed || f.Priority == PriorityMixed {
		return fmt.Errorf("%w: %s", ErrInvalidState, strings.Join(f.Path, "/"))
	}

	if len(b.root.children) > 0 && b.root.ChildByName(f.Path[0]) == nil {
		return fmt.Errorf("%w: %q", ErrMultipleTopLevel, f.Path[0])
	}

	dir := b.root
	last := len(f.Path) - 1
	for i, segment := range f.Path[:last] {
		switch child := dir.ChildByName(segment).(type) {
		case nil:
			dir = dir.addDirectory(segment)
		case *DirectoryNode:
			dir = child
		default:
			return fmt.Errorf("%w: %q is a file", ErrNameConflict, strings.Join(f.Path[:i+1], "/"))
		}
	}

	if dir.ChildByName(f.Path[last]) != nil {
		return fmt.Errorf("%w: %q already exists", ErrNameConflict, strings.Join(f.Path, "/"))
	}

	b.files[f.ID] = dir.addFile(f.ID, f.Path[last], f.Size, f.CompletedSize, f.WantedState, f.Priority)
	b.maxID = max(b.maxID, f.ID)
	return nil
}

// Build aggregates directory items bottom-up and returns the tree. File ids
// missing from a sparse id range leave nil entries in Files.
func (b *Builder) Build() BuildResult {
	b.root.recalculateRecursively()

	files := make([]*FileNode, b.maxID+1)
	for id, node := range b.files {
		files[id] = node
	}
	return BuildResult{Root: b.root, Files: files}
}

// Build is a convenience wrapper adding every file to a new Builder.
func Build(files []File) (BuildResult, error) {
	b := NewBuilder()
	for _, f := range files {
		if err := b.AddFile(f); err != nil {
			return BuildResult{}, err
		}
	}
	return b.Build(), nil
}
