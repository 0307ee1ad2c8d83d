// Package torrentfile reads BitTorrent metainfo (.torrent) files and magnet
// links and turns a torrent's file list into a tree.
package torrentfile

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackpal/bencode-go"

	"github.com/jamesainslie/tfiles/pkg/files/logging"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// MaxFileSize is the default input size limit (10 MiB).
const MaxFileSize = 10 * 1024 * 1024

// File is one entry of a multi-file torrent.
type File struct {
	Length int64    `json:"length" yaml:"length"`
	Path   []string `json:"path" yaml:"path"`
}

// TorrentFile is the parsed metainfo.
type TorrentFile struct {
	Name     string `json:"name" yaml:"name"`
	InfoHash string `json:"info_hash" yaml:"info_hash"`

	// Length is set for single-file torrents only.
	Length *int64 `json:"length,omitempty" yaml:"length,omitempty"`
	// Files is nil for single-file torrents.
	Files []File `json:"files,omitempty" yaml:"files,omitempty"`

	PieceLength  int64      `json:"piece_length" yaml:"piece_length"`
	Private      bool       `json:"private" yaml:"private"`
	Announce     string     `json:"announce,omitempty" yaml:"announce,omitempty"`
	AnnounceList [][]string `json:"announce_list,omitempty" yaml:"announce_list,omitempty"`
	Comment      string     `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreationDate time.Time  `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
}

// IsMultiFile reports whether the torrent has a files list.
func (t *TorrentFile) IsMultiFile() bool {
	return t.Files != nil
}

// TotalSize returns the sum of all file lengths.
func (t *TorrentFile) TotalSize() int64 {
	if !t.IsMultiFile() {
		if t.Length == nil {
			return 0
		}
		return *t.Length
	}
	var total int64
	for _, f := range t.Files {
		total += f.Length
	}
	return total
}

// Trackers returns the announce tiers, falling back to Announce.
func (t *TorrentFile) Trackers() [][]string {
	if len(t.AnnounceList) > 0 {
		return t.AnnounceList
	}
	if t.Announce != "" {
		return [][]string{{t.Announce}}
	}
	return nil
}

type options struct {
	maxSize int64
}

// Option configures parsing.
type Option func(*options)

// WithMaxSize overrides MaxFileSize.
func WithMaxSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// Parse reads a torrent from r. size is the input length if known, or a
// negative value; known oversized inputs are rejected before reading.
func Parse(r io.Reader, size int64, opts ...Option) (*TorrentFile, error) {
	o := options{maxSize: MaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.Get("torrentfile")

	if size > o.maxSize {
		logger.Error("file is too large", "size", size, "max", o.maxSize)
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, o.maxSize+1))
	if err != nil {
		logger.Error("failed to read file", "error", err)
		return nil, &ReadError{Err: err}
	}
	if int64(len(data)) > o.maxSize {
		logger.Error("file is too large", "max", o.maxSize)
		return nil, ErrFileTooLarge
	}

	decoded, err := bencode.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Error("failed to parse bencode structure", "error", err)
		return nil, &ParseError{Err: err}
	}

	t, err := fromDict(decoded)
	if err != nil {
		logger.Error("invalid torrent structure", "error", err)
		return nil, err
	}
	return t, nil
}

// ParseFile reads the torrent at path.
func ParseFile(path string, opts ...Option) (*TorrentFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return Parse(f, size, opts...)
}

func fromDict(decoded interface{}) (*TorrentFile, error) {
	root, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, parseErrorf("top level is not a dictionary")
	}
	info, ok := root["info"].(map[string]interface{})
	if !ok {
		return nil, parseErrorf("missing info dictionary")
	}

	t := &TorrentFile{}
	var err error

	if t.Name, err = requiredString(info, "name"); err != nil {
		return nil, err
	}
	if t.PieceLength, _, err = optionalInt(info, "piece length"); err != nil {
		return nil, err
	}
	private, _, err := optionalInt(info, "private")
	if err != nil {
		return nil, err
	}
	t.Private = private == 1

	if length, ok, err := optionalInt(info, "length"); err != nil {
		return nil, err
	} else if ok {
		t.Length = &length
	}

	if raw, ok := info["files"]; ok {
		if t.Files, err = parseFiles(raw); err != nil {
			return nil, err
		}
	}

	if t.Announce, err = optionalString(root, "announce"); err != nil {
		return nil, err
	}
	if t.AnnounceList, err = parseTiers(root["announce-list"]); err != nil {
		return nil, err
	}
	if t.Comment, err = optionalString(root, "comment"); err != nil {
		return nil, err
	}
	if t.CreatedBy, err = optionalString(root, "created by"); err != nil {
		return nil, err
	}
	if date, ok, err := optionalInt(root, "creation date"); err != nil {
		return nil, err
	} else if ok {
		t.CreationDate = time.Unix(date, 0).UTC()
	}

	if t.InfoHash, err = infoHash(info); err != nil {
		return nil, err
	}

	return t, nil
}

func parseFiles(raw interface{}) ([]File, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, parseErrorf("field 'files' is not a list")
	}

	files := make([]File, 0, len(list))
	for i, entry := range list {
		dict, ok := entry.(map[string]interface{})
		if !ok {
			return nil, parseErrorf("file %d is not a dictionary", i)
		}
		length, ok, err := optionalInt(dict, "length")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, parseErrorf("file %d has no length", i)
		}
		path, err := stringList(dict["path"])
		if err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
		if len(path) == 0 {
			return nil, parseErrorf("file %d has an empty path", i)
		}
		files = append(files, File{Length: length, Path: path})
	}
	return files, nil
}

func parseTiers(raw interface{}) ([][]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, parseErrorf("field 'announce-list' is not a list")
	}
	tiers := make([][]string, 0, len(list))
	for _, tier := range list {
		urls, err := stringList(tier)
		if err != nil {
			return nil, err
		}
		if len(urls) > 0 {
			tiers = append(tiers, urls)
		}
	}
	return tiers, nil
}

func stringList(raw interface{}) ([]string, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, parseErrorf("expected a list of strings")
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, parseErrorf("expected a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func requiredString(dict map[string]interface{}, key string) (string, error) {
	raw, ok := dict[key]
	if !ok {
		return "", parseErrorf("field '%s' is missing", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", parseErrorf("field '%s' is not a string", key)
	}
	return s, nil
}

func optionalString(dict map[string]interface{}, key string) (string, error) {
	if _, ok := dict[key]; !ok {
		return "", nil
	}
	return requiredString(dict, key)
}

func optionalInt(dict map[string]interface{}, key string) (int64, bool, error) {
	raw, ok := dict[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := raw.(int64)
	if !ok {
		return 0, false, parseErrorf("field '%s' is not an integer", key)
	}
	return n, true, nil
}

// infoHash is the hex SHA-1 of the re-encoded info dictionary. Dictionary
// keys are encoded sorted, matching canonical metainfo.
func infoHash(info map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, info); err != nil {
		return "", &ParseError{Msg: "encoding info dictionary", Err: err}
	}
	sum := sha1.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// CreateFilesTree builds the file tree of t. Every file starts wanted,
// with normal priority and nothing downloaded. File ids are positions in
// the files list, or 0 for a single-file torrent.
func CreateFilesTree(t *TorrentFile) (tree.BuildResult, error) {
	b := tree.NewBuilder()

	if !t.IsMultiFile() {
		if t.Length == nil {
			return tree.BuildResult{}, parseErrorf("field 'length' must be present for single-file torrent")
		}
		if err := b.AddFile(newFile(0, []string{t.Name}, *t.Length)); err != nil {
			return tree.BuildResult{}, &ParseError{Err: err}
		}
		return b.Build(), nil
	}

	if len(t.Files) == 0 {
		return tree.BuildResult{}, parseErrorf("field 'files' must not be empty")
	}
	for i, f := range t.Files {
		path := make([]string, 0, len(f.Path)+1)
		path = append(path, t.Name)
		path = append(path, f.Path...)
		if err := b.AddFile(newFile(i, path, f.Length)); err != nil {
			return tree.BuildResult{}, &ParseError{Err: err}
		}
	}
	return b.Build(), nil
}

func newFile(id int, path []string, length int64) tree.File {
	return tree.File{
		ID:          id,
		Path:        path,
		Size:        length,
		WantedState: tree.Wanted,
		Priority:    tree.PriorityNormal,
	}
}
