// Package rpcfiles maps the file records a Transmission daemon reports in
// torrent-get responses onto tree input, and tree changes back onto
// torrent-set and torrent-rename-path arguments.
package rpcfiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// Daemon priority values.
const (
	PriorityLow    = -1
	PriorityNormal = 0
	PriorityHigh   = 1
)

// ErrLengthMismatch is returned when files and fileStats differ in length.
var ErrLengthMismatch = errors.New("'files' and 'fileStats' arrays must have the same size")

// ErrNoTorrent is returned when a response holds no torrent.
var ErrNoTorrent = errors.New("response contains no torrent")

// ErrResponseTooLarge is returned by Decode for responses over its limit.
var ErrResponseTooLarge = errors.New("response is too large")

// File is an entry of a torrent's "files" field.
type File struct {
	Name           string `json:"name"`
	Length         int64  `json:"length"`
	BytesCompleted int64  `json:"bytesCompleted"`
}

// FileStat is an entry of a torrent's "fileStats" field.
type FileStat struct {
	BytesCompleted int64 `json:"bytesCompleted"`
	Wanted         bool  `json:"wanted"`
	Priority       int   `json:"priority"`
}

// Torrent holds the file fields of one torrent.
type Torrent struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	HashString string     `json:"hashString"`
	Files      []File     `json:"files"`
	FileStats  []FileStat `json:"fileStats"`
}

type response struct {
	Arguments *struct {
		Torrents []Torrent `json:"torrents"`
	} `json:"arguments"`
}

// Decode reads a torrent-get response, taking its first torrent, or a bare
// torrent object. Responses longer than maxSize bytes are rejected.
func Decode(r io.Reader, maxSize int64) (*Torrent, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrResponseTooLarge
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Arguments != nil {
		if len(resp.Arguments.Torrents) == 0 {
			return nil, ErrNoTorrent
		}
		return &resp.Arguments.Torrents[0], nil
	}

	var t Torrent
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding torrent: %w", err)
	}
	if t.Files == nil {
		return nil, ErrNoTorrent
	}
	return &t, nil
}

// Merge pairs files with their stats. A file's id is its index.
func Merge(files []File, stats []FileStat) ([]tree.File, error) {
	if len(files) != len(stats) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(files), len(stats))
	}

	out := make([]tree.File, len(files))
	for i, f := range files {
		out[i] = tree.File{
			ID:            i,
			Path:          SplitPath(f.Name),
			Size:          f.Length,
			CompletedSize: stats[i].BytesCompleted,
			WantedState:   tree.WantedStateFromBool(stats[i].Wanted),
			Priority:      PriorityFromRPC(stats[i].Priority),
		}
	}
	return out, nil
}

// Build merges files with stats and builds the tree.
func Build(files []File, stats []FileStat) (tree.BuildResult, error) {
	merged, err := Merge(files, stats)
	if err != nil {
		return tree.BuildResult{}, err
	}
	return tree.Build(merged)
}

// Updates converts fresh stats into tree updates.
func Updates(stats []FileStat) []tree.FileUpdate {
	updates := make([]tree.FileUpdate, len(stats))
	for i, s := range stats {
		updates[i] = tree.FileUpdate{
			ID:            i,
			CompletedSize: s.BytesCompleted,
			WantedState:   tree.WantedStateFromBool(s.Wanted),
			Priority:      PriorityFromRPC(s.Priority),
		}
	}
	return updates
}

// SplitPath splits a daemon file name on "/", dropping empty segments.
func SplitPath(name string) []string {
	parts := strings.Split(name, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PriorityFromRPC converts a daemon priority. Unknown values are normal.
func PriorityFromRPC(p int) tree.Priority {
	switch p {
	case PriorityLow:
		return tree.PriorityLow
	case PriorityHigh:
		return tree.PriorityHigh
	default:
		return tree.PriorityNormal
	}
}

// PriorityToRPC converts a tree priority. Mixed maps to normal.
func PriorityToRPC(p tree.Priority) int {
	switch p {
	case tree.PriorityLow:
		return PriorityLow
	case tree.PriorityHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
