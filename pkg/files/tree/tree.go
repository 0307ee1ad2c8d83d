package tree

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/tfiles/pkg/files/alphanum"
	"github.com/jamesainslie/tfiles/pkg/files/flow"
	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

// ErrDestroyed is returned by Sync once the tree has been destroyed.
var ErrDestroyed = errors.New("tree destroyed")

// DefaultStateKey is the saved-state key holding the current directory.
const DefaultStateKey = "tree.current_path"

// StateHandle persists small values across process restarts.
type StateHandle interface {
	// Get returns the value stored under key.
	Get(key string) ([]int, bool)
	// SetProvider registers a function queried when state is saved.
	SetProvider(key string, provider func() []int)
}

// Callbacks receive the file ids affected by a wanted or priority change,
// so they can be forwarded to the torrent daemon.
type Callbacks struct {
	OnSetFilesWanted   func(ids []int, wanted bool)
	OnSetFilesPriority func(ids []int, priority Priority)
}

// FileUpdate carries fresh daemon-side values for one file.
type FileUpdate struct {
	ID            int
	CompletedSize int64
	WantedState   WantedState
	Priority      Priority
}

// Option configures a Tree.
type Option func(*Tree)

// WithCallbacks sets the change callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(t *Tree) {
		t.callbacks = cb
	}
}

// WithCallbackExecutor sets where callbacks run. By default they run on the
// tree's worker goroutine.
func WithCallbackExecutor(exec func(func())) Option {
	return func(t *Tree) {
		if exec != nil {
			t.runCallback = exec
		}
	}
}

// WithStateKey overrides DefaultStateKey.
func WithStateKey(key string) Option {
	return func(t *Tree) {
		t.stateKey = key
	}
}

// Tree is the engine owning a torrent file tree.
//
// Mutations are submitted to a single worker goroutine and executed in
// order; the caller returns immediately. The directory listing of the
// current directory is published through Items, sorted with the parent
// placeholder (a nil entry) first, then directories, then files, names in
// alphanumeric order. Call Sync to wait for submitted work.
type Tree struct {
	worker      *worker
	callbacks   Callbacks
	runCallback func(func())
	stateKey    string
	logger      *logging.Logger

	root    atomic.Pointer[DirectoryNode]
	files   atomic.Pointer[[]*FileNode]
	current atomic.Pointer[DirectoryNode]
	inited  atomic.Bool

	// navMu guards cursor, the directory most recently requested by a
	// navigation call. current catches up once the worker has published it.
	navMu  sync.Mutex
	cursor *DirectoryNode

	// pubMu orders publication against Reset.
	pubMu  sync.Mutex
	items  *flow.State[[]*Item]
	atRoot *flow.State[bool]
}

// New returns an uninitialized, empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{
		worker:      newWorker(),
		runCallback: func(fn func()) { fn() },
		stateKey:    DefaultStateKey,
		logger:      logging.Get("tree"),
		items:       flow.NewState([]*Item{}, itemsEqual),
		atRoot:      flow.NewState(true, func(a, b bool) bool { return a == b }),
	}
	for _, opt := range opts {
		opt(t)
	}

	root := NewRootNode()
	t.root.Store(root)
	t.current.Store(root)
	t.cursor = root
	return t
}

// Items publishes the listing of the current directory.
func (t *Tree) Items() *flow.State[[]*Item] {
	return t.items
}

// IsAtRoot publishes whether the current directory is the root.
func (t *Tree) IsAtRoot() *flow.State[bool] {
	return t.atRoot
}

// Root returns the root directory.
func (t *Tree) Root() *DirectoryNode {
	return t.root.Load()
}

// IsEmpty reports whether the tree has no files.
func (t *Tree) IsEmpty() bool {
	return len(t.root.Load().Children()) == 0
}

// IsInitialized reports whether Init was called since the last Reset.
func (t *Tree) IsInitialized() bool {
	return t.inited.Load()
}

// CurrentPath returns the index path of the most recently requested
// directory.
func (t *Tree) CurrentPath() []int {
	t.navMu.Lock()
	defer t.navMu.Unlock()
	return clonePath(t.cursor.Path())
}

// Init installs root and navigates to the directory saved in handle, or to
// the root if none was saved or it no longer resolves. Work still queued
// for a previous tree is cancelled. handle may be nil.
func (t *Tree) Init(root *DirectoryNode, handle StateHandle) {
	t.init(root, nil, handle)
}

// InitFiles is Init for a built tree, also enabling UpdateFiles.
func (t *Tree) InitFiles(result BuildResult, handle StateHandle) {
	t.init(result.Root, result.Files, handle)
}

func (t *Tree) init(root *DirectoryNode, files []*FileNode, handle StateHandle) {
	t.pubMu.Lock()
	t.worker.cancelPending()
	t.pubMu.Unlock()

	t.root.Store(root)
	t.files.Store(&files)
	t.inited.Store(true)

	target := root
	if handle != nil {
		if path, ok := handle.Get(t.stateKey); ok {
			if dir, ok := findNodeByPath(root, path).(*DirectoryNode); ok {
				target = dir
			} else {
				t.logger.Warn("saved directory no longer exists", "path", path)
			}
		}
		handle.SetProvider(t.stateKey, t.CurrentPath)
	}

	t.navMu.Lock()
	t.cursor = target
	t.navigateTo(target)
	t.navMu.Unlock()
}

// NavigateUp moves to the parent of the current directory. It reports
// false at the root or before Init.
func (t *Tree) NavigateUp() bool {
	if !t.inited.Load() {
		t.logger.Warn("navigate up on uninitialized tree")
		return false
	}

	t.navMu.Lock()
	defer t.navMu.Unlock()

	path := t.cursor.Path()
	if len(path) == 0 {
		return false
	}
	parent, ok := findNodeByPath(t.root.Load(), path[:len(path)-1]).(*DirectoryNode)
	if !ok {
		t.logger.Error("parent directory not found", "path", path)
		return false
	}

	t.cursor = parent
	t.navigateTo(parent)
	return true
}

// NavigateDown moves into the directory described by item. It reports false
// for files and unresolvable items.
func (t *Tree) NavigateDown(item *Item) bool {
	if !t.inited.Load() {
		t.logger.Warn("navigate down on uninitialized tree")
		return false
	}
	if item == nil || !item.IsDirectory() {
		return false
	}

	dir, ok := findNodeByPath(t.root.Load(), item.NodePath).(*DirectoryNode)
	if !ok {
		t.logger.Error("directory not found", "path", item.NodePath)
		return false
	}

	t.navMu.Lock()
	t.cursor = dir
	t.navigateTo(dir)
	t.navMu.Unlock()
	return true
}

func (t *Tree) navigateTo(dir *DirectoryNode) {
	t.worker.submit(func(ctx context.Context) {
		items := sortedItems(dir, dir != t.root.Load())
		t.commit(ctx, func() {
			t.items.Set(items)
			t.current.Store(dir)
			t.atRoot.Set(len(dir.Path()) == 0)
		})
	})
}

// SetItemsWanted changes the wanted state of the current directory's
// children at the given indexes, recursively for directories. Indexes are
// positions in the directory's child list, see Item.Index.
func (t *Tree) SetItemsWanted(indexes []int, wanted bool) {
	state := WantedStateFromBool(wanted)
	t.updateChildren("set wanted", indexes,
		func(n Node, ids *[]int) { n.setWantedRecursively(state, ids) },
		func(ids []int) {
			if cb := t.callbacks.OnSetFilesWanted; cb != nil {
				cb(ids, wanted)
			}
		})
}

// SetItemsPriority changes the priority of the current directory's
// children at the given indexes. PriorityMixed is ignored.
func (t *Tree) SetItemsPriority(indexes []int, priority Priority) {
	if priority == PriorityMixed {
		t.logger.Warn("ignoring mixed priority")
		return
	}
	t.updateChildren("set priority", indexes,
		func(n Node, ids *[]int) { n.setPriorityRecursively(priority, ids) },
		func(ids []int) {
			if cb := t.callbacks.OnSetFilesPriority; cb != nil {
				cb(ids, priority)
			}
		})
}

func (t *Tree) updateChildren(op string, indexes []int, apply func(Node, *[]int), notify func([]int)) {
	if !t.inited.Load() {
		t.logger.Warn(op + " on uninitialized tree")
		return
	}

	indexes = slices.Clone(indexes)
	t.worker.submit(func(ctx context.Context) {
		dir := t.current.Load()
		children := dir.Children()

		var ids []int
		for _, index := range indexes {
			if ctx.Err() != nil {
				return
			}
			if index < 0 || index >= len(children) {
				t.logger.Warn(op+": child index out of range", "index", index, "children", len(children))
				continue
			}
			apply(children[index], &ids)
		}

		dir.RecalculateFromChildren()
		ancestors := ancestorDirectories(t.root.Load(), dir.Path())
		for i := len(ancestors) - 1; i >= 0; i-- {
			ancestors[i].RecalculateFromChildren()
		}

		items := refreshedItems(t.items.Load(), dir)
		if !t.commit(ctx, func() { t.items.Set(items) }) {
			return
		}
		if len(ids) > 0 {
			t.runCallback(func() { notify(ids) })
		}
	})
}

// RenameFile renames the node at path, a "/"-separated name path from the
// root such as "Movie/Subs/en.srt". Unknown paths are ignored.
func (t *Tree) RenameFile(path, newName string) {
	if !t.inited.Load() {
		t.logger.Warn("rename on uninitialized tree")
		return
	}
	if newName == "" || strings.Contains(newName, "/") {
		t.logger.Warn("invalid new name", "name", newName)
		return
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		return
	}

	t.worker.submit(func(ctx context.Context) {
		current := t.current.Load()

		var (
			node          Node = t.root.Load()
			parent        *DirectoryNode
			passesCurrent bool
		)
		for _, segment := range segments {
			dir, ok := node.(*DirectoryNode)
			if !ok {
				t.logger.Warn("rename path passes through a file", "path", path)
				return
			}
			if dir == current {
				passesCurrent = true
			}
			child := dir.ChildByName(segment)
			if child == nil {
				t.logger.Warn("rename path not found", "path", path)
				return
			}
			parent, node = dir, child
		}

		parent.renameChild(node, newName)
		t.logger.Debug("renamed", "path", path, "name", newName)

		if passesCurrent {
			items := sortedItems(current, current != t.root.Load())
			t.commit(ctx, func() { t.items.Set(items) })
		}
	})
}

// ItemNamePath returns the "/"-joined names from the root to item. It
// reports false for the root and for items that do not resolve.
func (t *Tree) ItemNamePath(item *Item) (string, bool) {
	if item == nil || len(item.NodePath) == 0 {
		return "", false
	}

	names := make([]string, 0, len(item.NodePath))
	var node Node = t.root.Load()
	for _, index := range item.NodePath {
		dir, ok := node.(*DirectoryNode)
		if !ok || index < 0 || index >= len(dir.children) {
			return "", false
		}
		node = dir.children[index]
		names = append(names, node.Item().Name)
	}
	return strings.Join(names, "/"), true
}

// UpdateFiles applies daemon-side changes to files and recalculates the
// affected directories. It requires a tree installed with InitFiles.
func (t *Tree) UpdateFiles(updates []FileUpdate) {
	if !t.inited.Load() {
		t.logger.Warn("update on uninitialized tree")
		return
	}

	updates = slices.Clone(updates)
	t.worker.submit(func(ctx context.Context) {
		var files []*FileNode
		if p := t.files.Load(); p != nil {
			files = *p
		}

		var changed []Node
		for _, u := range updates {
			if u.ID < 0 || u.ID >= len(files) || files[u.ID] == nil {
				t.logger.Warn("update for unknown file", "id", u.ID)
				continue
			}
			node := files[u.ID]
			item := *node.Item()
			if item.CompletedSize == u.CompletedSize && item.WantedState == u.WantedState && item.Priority == u.Priority {
				continue
			}
			item.CompletedSize = u.CompletedSize
			item.WantedState = u.WantedState
			item.Priority = u.Priority
			node.setItem(&item)
			changed = append(changed, node)
		}
		if len(changed) == 0 || ctx.Err() != nil {
			return
		}

		recalculated := recalculateAncestors(t.root.Load(), changed)
		current := t.current.Load()
		if slices.Contains(recalculated, current) {
			items := refreshedItems(t.items.Load(), current)
			t.commit(ctx, func() { t.items.Set(items) })
		}
	})
}

// Sync waits until all work submitted before it has finished.
func (t *Tree) Sync(ctx context.Context) error {
	return t.worker.sync(ctx)
}

// Reset cancels pending work and returns the tree to its uninitialized,
// empty state.
func (t *Tree) Reset() {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()

	t.worker.cancelPending()

	root := NewRootNode()
	t.root.Store(root)
	t.current.Store(root)
	t.files.Store(nil)
	t.inited.Store(false)

	t.navMu.Lock()
	t.cursor = root
	t.navMu.Unlock()

	t.items.Set([]*Item{})
	t.atRoot.Set(true)
}

// Destroy stops the worker and closes the published states. The tree must
// not be used afterwards. It is idempotent.
func (t *Tree) Destroy() {
	t.worker.close()
	t.items.Close()
	t.atRoot.Close()
}

// commit runs fn unless ctx was cancelled, atomically with respect to Reset.
func (t *Tree) commit(ctx context.Context, fn func()) bool {
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

// sortedItems lists dir's children in display order.
func sortedItems(dir *DirectoryNode, withParent bool) []*Item {
	children := dir.Children()
	items := make([]*Item, 0, len(children)+1)
	if withParent {
		items = append(items, nil)
	}
	for _, child := range children {
		items = append(items, child.Item())
	}
	slices.SortStableFunc(items, CompareItems)
	return items
}

// refreshedItems replaces every entry of a published listing of dir with
// its child's current item, keeping the order.
func refreshedItems(old []*Item, dir *DirectoryNode) []*Item {
	children := dir.Children()
	items := make([]*Item, len(old))
	for i, item := range old {
		if item == nil {
			continue
		}
		index := item.Index()
		if index >= 0 && index < len(children) {
			items[i] = children[index].Item()
		} else {
			items[i] = item
		}
	}
	return items
}

// CompareItems orders listings: the nil parent placeholder first, then
// directories, then files, names compared alphanumerically.
func CompareItems(a, b *Item) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if a.IsDirectory() != b.IsDirectory() {
		if a.IsDirectory() {
			return -1
		}
		return 1
	}
	return alphanum.Compare(a.Name, b.Name)
}

// recalculateAncestors recalculates each directory on the way from the root
// to every node (and the node itself when it is a directory), each once and
// after all of its recalculated descendants. It returns the directories.
func recalculateAncestors(root *DirectoryNode, nodes []Node) []*DirectoryNode {
	var ordered []*DirectoryNode
	seen := make(map[*DirectoryNode]struct{})
	add := func(dir *DirectoryNode) {
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			ordered = append(ordered, dir)
		}
	}

	for _, node := range nodes {
		for _, dir := range ancestorDirectories(root, node.Path()) {
			add(dir)
		}
		if dir, ok := node.(*DirectoryNode); ok {
			add(dir)
		}
	}

	// Every directory was added after its ancestors.
	for i := len(ordered) - 1; i >= 0; i-- {
		ordered[i].RecalculateFromChildren()
	}
	return ordered
}

func splitPath(path string) []string {
	return slices.DeleteFunc(strings.Split(path, "/"), func(s string) bool { return s == "" })
}
