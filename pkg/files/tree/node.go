package tree

import (
	"slices"
	"sync/atomic"
)

// Node is a file or directory of the tree.
//
// Nodes hold no reference to their parent; ancestry is recovered by walking
// from the root along Path.
type Node interface {
	// Item returns the node's current item. It must not be modified.
	Item() *Item

	// Path returns the sibling indexes from the root to the node. It must
	// not be modified.
	Path() []int

	setItem(item *Item)
	setWantedRecursively(state WantedState, ids *[]int)
	setPriorityRecursively(priority Priority, ids *[]int)
}

type baseNode struct {
	item atomic.Pointer[Item]
	path []int
}

func (n *baseNode) Item() *Item {
	return n.item.Load()
}

func (n *baseNode) Path() []int {
	return n.path
}

func (n *baseNode) setItem(item *Item) {
	n.item.Store(item)
}

// FileNode is a leaf of the tree.
type FileNode struct {
	baseNode
}

func (n *FileNode) setWantedRecursively(state WantedState, ids *[]int) {
	item := n.Item()
	n.setItem(item.withWantedState(state))
	*ids = append(*ids, item.FileID)
}

func (n *FileNode) setPriorityRecursively(priority Priority, ids *[]int) {
	item := n.Item()
	n.setItem(item.withPriority(priority))
	*ids = append(*ids, item.FileID)
}

// DirectoryNode owns an ordered, append-only list of children.
type DirectoryNode struct {
	baseNode
	children       []Node
	childrenByName map[string]Node
}

// NewRootNode returns an empty root directory.
func NewRootNode() *DirectoryNode {
	return newDirectoryNode(&Item{FileID: DirectoryFileID, WantedState: Wanted, Priority: PriorityNormal}, nil)
}

func newDirectoryNode(item *Item, path []int) *DirectoryNode {
	n := &DirectoryNode{
		baseNode:       baseNode{path: path},
		childrenByName: make(map[string]Node),
	}
	n.setItem(item)
	return n
}

// Children returns the node's children in insertion order. The slice must
// not be modified.
func (n *DirectoryNode) Children() []Node {
	return n.children
}

// ChildByName returns the child with the given name, or nil.
func (n *DirectoryNode) ChildByName(name string) Node {
	return n.childrenByName[name]
}

// RecalculateFromChildren replaces the node's item with one aggregated from
// its direct children. Children must already be up to date.
func (n *DirectoryNode) RecalculateFromChildren() {
	n.setItem(n.Item().calculatedFromChildren(n.children))
}

// recalculateRecursively aggregates the whole subtree depth-first, each
// directory after all of its descendants.
func (n *DirectoryNode) recalculateRecursively() {
	for _, child := range n.children {
		if dir, ok := child.(*DirectoryNode); ok {
			dir.recalculateRecursively()
		}
	}
	n.RecalculateFromChildren()
}

func (n *DirectoryNode) setWantedRecursively(state WantedState, ids *[]int) {
	n.setItem(n.Item().withWantedState(state))
	for _, child := range n.children {
		child.setWantedRecursively(state, ids)
	}
}

func (n *DirectoryNode) setPriorityRecursively(priority Priority, ids *[]int) {
	n.setItem(n.Item().withPriority(priority))
	for _, child := range n.children {
		child.setPriorityRecursively(priority, ids)
	}
}

func (n *DirectoryNode) childPath() []int {
	path := make([]int, len(n.path), len(n.path)+1)
	copy(path, n.path)
	return append(path, len(n.children))
}

func (n *DirectoryNode) addFile(fileID int, name string, size, completedSize int64, state WantedState, priority Priority) *FileNode {
	path := n.childPath()
	node := &FileNode{baseNode: baseNode{path: path}}
	node.setItem(&Item{
		FileID:        fileID,
		Name:          name,
		Size:          size,
		CompletedSize: completedSize,
		WantedState:   state,
		Priority:      priority,
		NodePath:      path,
	})
	n.addChild(name, node)
	return node
}

func (n *DirectoryNode) addDirectory(name string) *DirectoryNode {
	path := n.childPath()
	node := newDirectoryNode(&Item{
		FileID:      DirectoryFileID,
		Name:        name,
		WantedState: Wanted,
		Priority:    PriorityNormal,
		NodePath:    path,
	}, path)
	n.addChild(name, node)
	return node
}

func (n *DirectoryNode) addChild(name string, node Node) {
	n.children = append(n.children, node)
	n.childrenByName[name] = node
}

// renameChild renames child and keeps the name index in sync. An index
// entry already held by a sibling under newName is left alone.
func (n *DirectoryNode) renameChild(child Node, newName string) {
	item := child.Item()
	if n.childrenByName[item.Name] == child {
		delete(n.childrenByName, item.Name)
	}
	if _, taken := n.childrenByName[newName]; !taken {
		n.childrenByName[newName] = child
	}
	child.setItem(item.withName(newName))
}

// findNodeByPath resolves an index path from root. It returns nil if any
// index is out of range or passes through a file.
func findNodeByPath(root *DirectoryNode, path []int) Node {
	var node Node = root
	for _, index := range path {
		dir, ok := node.(*DirectoryNode)
		if !ok || index < 0 || index >= len(dir.children) {
			return nil
		}
		node = dir.children[index]
	}
	return node
}

// ancestorDirectories returns the directories from root down to the node at
// path, excluding that node itself.
func ancestorDirectories(root *DirectoryNode, path []int) []*DirectoryNode {
	if len(path) == 0 {
		return nil
	}
	dirs := make([]*DirectoryNode, 0, len(path))
	dir := root
	dirs = append(dirs, dir)
	for _, index := range path[:len(path)-1] {
		if index < 0 || index >= len(dir.children) {
			break
		}
		next, ok := dir.children[index].(*DirectoryNode)
		if !ok {
			break
		}
		dir = next
		dirs = append(dirs, dir)
	}
	return dirs
}

func clonePath(path []int) []int {
	return slices.Clone(path)
}
