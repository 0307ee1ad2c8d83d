package rpcfiles

import (
	"slices"
	"sync"

	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// SetArguments is the file part of a torrent-set request.
type SetArguments struct {
	FilesWanted    []int `json:"files-wanted,omitempty" yaml:"files-wanted,omitempty"`
	FilesUnwanted  []int `json:"files-unwanted,omitempty" yaml:"files-unwanted,omitempty"`
	PriorityHigh   []int `json:"priority-high,omitempty" yaml:"priority-high,omitempty"`
	PriorityNormal []int `json:"priority-normal,omitempty" yaml:"priority-normal,omitempty"`
	PriorityLow    []int `json:"priority-low,omitempty" yaml:"priority-low,omitempty"`
}

// IsEmpty reports whether the arguments change nothing.
func (a SetArguments) IsEmpty() bool {
	return len(a.FilesWanted) == 0 && len(a.FilesUnwanted) == 0 &&
		len(a.PriorityHigh) == 0 && len(a.PriorityNormal) == 0 && len(a.PriorityLow) == 0
}

// RenameArguments is a torrent-rename-path request.
type RenameArguments struct {
	IDs  []string `json:"ids" yaml:"ids"`
	Path string   `json:"path" yaml:"path"`
	Name string   `json:"name" yaml:"name"`
}

// Changes accumulates the changes a tree reports through its callbacks,
// keeping the last value per file.
type Changes struct {
	mu       sync.Mutex
	wanted   map[int]bool
	priority map[int]tree.Priority
	renames  []RenameArguments
}

// NewChanges returns an empty accumulator.
func NewChanges() *Changes {
	return &Changes{
		wanted:   make(map[int]bool),
		priority: make(map[int]tree.Priority),
	}
}

// Callbacks returns tree callbacks recording into c.
func (c *Changes) Callbacks() tree.Callbacks {
	return tree.Callbacks{
		OnSetFilesWanted:   c.SetWanted,
		OnSetFilesPriority: c.SetPriority,
	}
}

// SetWanted records a wanted change.
func (c *Changes) SetWanted(ids []int, wanted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.wanted[id] = wanted
	}
}

// SetPriority records a priority change.
func (c *Changes) SetPriority(ids []int, priority tree.Priority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.priority[id] = priority
	}
}

// Rename records a rename of the node at path within torrent hash.
func (c *Changes) Rename(hash, path, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renames = append(c.renames, RenameArguments{IDs: []string{hash}, Path: path, Name: name})
}

// Renames returns the recorded renames in order.
func (c *Changes) Renames() []RenameArguments {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.renames)
}

// Arguments returns the accumulated changes with sorted ids.
func (c *Changes) Arguments() SetArguments {
	c.mu.Lock()
	defer c.mu.Unlock()

	var args SetArguments
	for id, wanted := range c.wanted {
		if wanted {
			args.FilesWanted = append(args.FilesWanted, id)
		} else {
			args.FilesUnwanted = append(args.FilesUnwanted, id)
		}
	}
	for id, priority := range c.priority {
		switch PriorityToRPC(priority) {
		case PriorityHigh:
			args.PriorityHigh = append(args.PriorityHigh, id)
		case PriorityLow:
			args.PriorityLow = append(args.PriorityLow, id)
		default:
			args.PriorityNormal = append(args.PriorityNormal, id)
		}
	}

	for _, ids := range [][]int{args.FilesWanted, args.FilesUnwanted, args.PriorityHigh, args.PriorityNormal, args.PriorityLow} {
		slices.Sort(ids)
	}
	return args
}
