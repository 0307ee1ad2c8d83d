// Package navigator browses the local filesystem for .torrent files,
// listing one directory at a time the way the torrent file tree does:
// a parent placeholder first, then directories, then torrent files.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/tfiles/pkg/files/alphanum"
	"github.com/jamesainslie/tfiles/pkg/files/flow"
	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

// TorrentExt is the extension of listed files.
const TorrentExt = ".torrent"

// ErrNotDirectory is returned when navigating to a file.
var ErrNotDirectory = errors.New("not a directory")

// Entry is a listed directory or torrent file.
type Entry struct {
	Name    string    `json:"name" yaml:"name"`
	Path    string    `json:"path" yaml:"path"`
	IsDir   bool      `json:"is_dir" yaml:"is_dir"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Navigator holds the current directory and publishes its listing through
// Items. A nil entry is the parent placeholder.
type Navigator struct {
	mu      sync.Mutex
	current string

	items   *flow.State[[]*Entry]
	changed chan struct{}
	logger  *logging.Logger
}

// New returns a navigator starting at start, or the home directory if
// start is empty. Call Init to publish the first listing.
func New(start string) (*Navigator, error) {
	if start == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		start = home
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}

	return &Navigator{
		current: abs,
		items:   flow.NewState([]*Entry{}, entriesEqual),
		changed: make(chan struct{}, 1),
		logger:  logging.Get("navigator"),
	}, nil
}

// Items publishes the current listing.
func (n *Navigator) Items() *flow.State[[]*Entry] {
	return n.items
}

// CurrentDir returns the current directory.
func (n *Navigator) CurrentDir() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Init lists the starting directory.
func (n *Navigator) Init(ctx context.Context) error {
	return n.navigateTo(ctx, n.CurrentDir(), true)
}

// Refresh lists the current directory again.
func (n *Navigator) Refresh(ctx context.Context) error {
	return n.navigateTo(ctx, n.CurrentDir(), true)
}

// NavigateUp moves to the parent directory. It reports false at the
// filesystem root. A parent without directories or torrents is not entered,
// though NavigateUp still reports true.
func (n *Navigator) NavigateUp(ctx context.Context) (bool, error) {
	current := n.CurrentDir()
	parent := filepath.Dir(current)
	if parent == current {
		return false, nil
	}
	return true, n.navigateTo(ctx, parent, false)
}

// NavigateDown enters a directory entry. Files are ignored.
func (n *Navigator) NavigateDown(ctx context.Context, entry *Entry) error {
	if entry == nil || !entry.IsDir {
		return nil
	}
	return n.navigateTo(ctx, entry.Path, true)
}

// NavigateTo enters dir.
func (n *Navigator) NavigateTo(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return n.navigateTo(ctx, abs, true)
}

func (n *Navigator) navigateTo(ctx context.Context, dir string, allowEmpty bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries, err := List(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 && !allowEmpty {
		n.logger.Debug("not entering empty directory", "dir", dir)
		return nil
	}

	items := make([]*Entry, 0, len(entries)+1)
	if filepath.Dir(dir) != dir {
		items = append(items, nil)
	}
	items = append(items, entries...)
	slices.SortStableFunc(items, CompareEntries)

	if err := ctx.Err(); err != nil {
		return err
	}

	moved := n.current != dir
	n.current = dir
	n.items.Set(items)
	if moved {
		select {
		case n.changed <- struct{}{}:
		default:
		}
	}
	n.logger.Debug("listed directory", "dir", dir, "entries", len(entries))
	return nil
}

// List returns the subdirectories and torrent files of dir, unsorted.
// Unreadable directories list as empty.
func List(dir string) ([]*Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		logging.Get("navigator").Warn("failed to read directory", "dir", dir, "error", err)
		return nil, nil
	}

	entries := make([]*Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		path := filepath.Join(dir, d.Name())

		var info fs.FileInfo
		if d.Type()&fs.ModeSymlink != 0 {
			info, err = os.Stat(path)
		} else {
			info, err = d.Info()
		}
		if err != nil {
			continue
		}

		if !info.IsDir() && !IsTorrentFile(d.Name()) {
			continue
		}
		entries = append(entries, &Entry{
			Name:    d.Name(),
			Path:    path,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// IsTorrentFile reports whether name has the torrent extension.
func IsTorrentFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), TorrentExt)
}

// CompareEntries orders listings: the nil parent placeholder first, then
// directories, then files, names compared alphanumerically.
func CompareEntries(a, b *Entry) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if a.IsDir != b.IsDir {
		if a.IsDir {
			return -1
		}
		return 1
	}
	return alphanum.Compare(a.Name, b.Name)
}

func entriesEqual(a, b []*Entry) bool {
	return slices.EqualFunc(a, b, func(x, y *Entry) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	})
}
