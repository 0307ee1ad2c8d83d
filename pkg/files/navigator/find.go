package navigator

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// FindTorrents returns every torrent file below root, sorted by path.
// Hidden directories are skipped and unreadable ones ignored.
func FindTorrents(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		found []string
	)

	conf := fastwalk.Config{
		Follow: false,
	}
	walkErr := fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return fastwalk.SkipDir
			}
			return nil
		}
		if IsTorrentFile(d.Name()) {
			mu.Lock()
			found = append(found, path)
			mu.Unlock()
		}
		return nil
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	slices.Sort(found)
	return found, nil
}
