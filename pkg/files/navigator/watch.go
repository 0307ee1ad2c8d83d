package navigator

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch refreshes the listing whenever an entry of the current directory
// is created, removed or renamed, following the navigator as it moves. It
// blocks until ctx is cancelled.
func (n *Navigator) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := ""
	rewatch := func() {
		dir := n.CurrentDir()
		if dir == watched {
			return
		}
		if watched != "" {
			_ = w.Remove(watched)
			watched = ""
		}
		if err := w.Add(dir); err != nil {
			n.logger.Warn("failed to add watch", "dir", dir, "error", err)
			return
		}
		watched = dir
	}
	rewatch()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-n.changed:
			rewatch()

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !n.relevant(event, watched) {
				continue
			}
			if err := n.Refresh(ctx); err != nil && ctx.Err() == nil {
				n.logger.Warn("failed to refresh listing", "dir", watched, "error", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			n.logger.Error("watcher error", "error", err)
		}
	}
}

// relevant reports whether event changes the listing of dir. Writes only
// change sizes and are ignored.
func (n *Navigator) relevant(event fsnotify.Event, dir string) bool {
	if filepath.Dir(event.Name) != dir {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
