package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/tfiles/pkg/files/rpcfiles"
	"github.com/jamesainslie/tfiles/pkg/files/torrentfile"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// source is a torrent file tree loaded from disk.
type source struct {
	Path     string
	Name     string
	InfoHash string
	Trackers []string
	Result   tree.BuildResult
}

// scope names the torrent in the saved-state store.
func (s *source) scope() string {
	if s.InfoHash != "" {
		return s.InfoHash
	}
	return s.Name
}

// loadSource reads a .torrent file or, for .json files, a Transmission
// torrent-get response. Either is limited to maxSize bytes.
func loadSource(path string, maxSize int64) (*source, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadRPCResponse(path, maxSize)
	}

	t, err := torrentfile.ParseFile(path, torrentfile.WithMaxSize(maxSize))
	if err != nil {
		return nil, err
	}
	result, err := torrentfile.CreateFilesTree(t)
	if err != nil {
		return nil, err
	}

	src := &source{Path: path, Name: t.Name, InfoHash: t.InfoHash, Result: result}
	for _, tier := range t.Trackers() {
		src.Trackers = append(src.Trackers, tier...)
	}
	return src, nil
}

func loadRPCResponse(path string, maxSize int64) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := rpcfiles.Decode(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	result, err := rpcfiles.Build(t.Files, t.FileStats)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree of %s: %w", path, err)
	}
	return &source{Path: path, Name: t.Name, InfoHash: t.HashString, Result: result}, nil
}

// subdirectory resolves a "/"-separated name path below root.
func subdirectory(root *tree.DirectoryNode, path string) (*tree.DirectoryNode, error) {
	dir := root
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if name == "" {
			continue
		}
		child, ok := dir.ChildByName(name).(*tree.DirectoryNode)
		if !ok {
			return nil, fmt.Errorf("no directory %q in %q", name, path)
		}
		dir = child
	}
	return dir, nil
}
