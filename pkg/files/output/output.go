// Package output provides formatters for printing torrent file trees in
// various output formats (tree, plain, json, yaml, template).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("tree")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.NewResult(root)); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// Entry is one node of a listed tree, in depth-first display order.
type Entry struct {
	// Path is the slash-separated path relative to the listed directory.
	Path string `json:"path" yaml:"path"`

	// Name is the last path element.
	Name string `json:"name" yaml:"name"`

	// Depth is 1 for children of the listed directory.
	Depth int `json:"depth" yaml:"depth"`

	IsDir  bool `json:"is_dir" yaml:"is_dir"`
	FileID int  `json:"file_id" yaml:"file_id"`

	Size          int64  `json:"size" yaml:"size"`
	CompletedSize int64  `json:"completed_size" yaml:"completed_size"`
	SizeHuman     string `json:"size_human" yaml:"size_human"`

	// Progress is the completed fraction in [0, 1].
	Progress float64 `json:"progress" yaml:"progress"`

	Wanted   tree.WantedState `json:"wanted" yaml:"wanted"`
	Priority tree.Priority    `json:"priority" yaml:"priority"`

	// Type is the detected file type, empty for directories.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Last reports whether the entry is the last child of its parent.
	Last bool `json:"-" yaml:"-"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Name is the name of the listed directory.
	Name string `json:"name" yaml:"name"`

	// InfoHash is the torrent's hex info hash, when known.
	InfoHash string `json:"info_hash,omitempty" yaml:"info_hash,omitempty"`

	// Source is the file or RPC response the tree was read from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	Entries []Entry `json:"entries" yaml:"entries"`

	Size          int64 `json:"size" yaml:"size"`
	CompletedSize int64 `json:"completed_size" yaml:"completed_size"`

	// FileCount is the number of file entries.
	FileCount int `json:"file_count" yaml:"file_count"`

	Trackers []string `json:"trackers,omitempty" yaml:"trackers,omitempty"`
}

// NewResult lists the subtree under dir, children ordered the way the tree
// publishes them: directories first, names compared alphanumerically.
func NewResult(dir *tree.DirectoryNode) *Result {
	item := dir.Item()
	r := &Result{
		Name:          item.Name,
		Size:          item.Size,
		CompletedSize: item.CompletedSize,
	}
	r.walk(dir, "", 1)
	return r
}

func (r *Result) walk(dir *tree.DirectoryNode, prefix string, depth int) {
	children := slices.Clone(dir.Children())
	slices.SortStableFunc(children, func(a, b tree.Node) int {
		return tree.CompareItems(a.Item(), b.Item())
	})

	for i, child := range children {
		item := child.Item()
		entry := Entry{
			Path:          path.Join(prefix, item.Name),
			Name:          item.Name,
			Depth:         depth,
			IsDir:         item.IsDirectory(),
			FileID:        item.FileID,
			Size:          item.Size,
			CompletedSize: item.CompletedSize,
			SizeHuman:     humanize.IBytes(uint64(item.Size)),
			Progress:      item.Progress(),
			Wanted:        item.WantedState,
			Priority:      item.Priority,
			Last:          i == len(children)-1,
		}
		if !entry.IsDir {
			entry.Type = tree.DetectFileType(item.Name)
			r.FileCount++
		}
		r.Entries = append(r.Entries, entry)

		if sub, ok := child.(*tree.DirectoryNode); ok {
			r.walk(sub, entry.Path, depth+1)
		}
	}
}

// Files returns the file entries, skipping directories.
func (r *Result) Files() []Entry {
	files := make([]Entry, 0, r.FileCount)
	for _, e := range r.Entries {
		if !e.IsDir {
			files = append(files, e)
		}
	}
	return files
}

// Progress returns the completed fraction of the whole listing.
func (r *Result) Progress() float64 {
	if r.Size == 0 {
		return 0
	}
	return float64(r.CompletedSize) / float64(r.Size)
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any existing
// formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
