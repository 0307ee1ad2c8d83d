package torrentfile_test

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackpal/bencode-go"
	"github.com/jamesainslie/tfiles/pkg/files/torrentfile"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, v interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bencode.Marshal(&buf, v))
	return buf.Bytes()
}

func singleFileInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":         "ubuntu.iso",
		"length":       4096,
		"piece length": 16384,
		"pieces":       "01234567890123456789",
	}
}

func multiFileInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":         "Album",
		"piece length": 32768,
		"pieces":       "01234567890123456789",
		"private":      1,
		"files": []interface{}{
			map[string]interface{}{"length": 100, "path": []interface{}{"CD1", "01 Intro.flac"}},
			map[string]interface{}{"length": 200, "path": []interface{}{"CD1", "02 Song.flac"}},
			map[string]interface{}{"length": 300, "path": []interface{}{"cover.jpg"}},
		},
	}
}

func parse(t *testing.T, data []byte) *torrentfile.TorrentFile {
	t.Helper()
	tf, err := torrentfile.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return tf
}

func TestParse(t *testing.T) {
	t.Run("single-file torrent", func(t *testing.T) {
		tf := parse(t, encode(t, map[string]interface{}{
			"announce": "http://tracker.example/announce",
			"info":     singleFileInfo(),
		}))

		assert.Equal(t, "ubuntu.iso", tf.Name)
		require.NotNil(t, tf.Length)
		assert.Equal(t, int64(4096), *tf.Length)
		assert.False(t, tf.IsMultiFile())
		assert.Equal(t, int64(4096), tf.TotalSize())
		assert.Equal(t, int64(16384), tf.PieceLength)
		assert.False(t, tf.Private)
		assert.Equal(t, [][]string{{"http://tracker.example/announce"}}, tf.Trackers())
	})

	t.Run("multi-file torrent with metadata", func(t *testing.T) {
		tf := parse(t, encode(t, map[string]interface{}{
			"announce": "http://a.example/announce",
			"announce-list": []interface{}{
				[]interface{}{"http://a.example/announce", "http://b.example/announce"},
				[]interface{}{"udp://c.example:80"},
			},
			"comment":       "test torrent",
			"created by":    "mktorrent 1.1",
			"creation date": 1700000000,
			"info":          multiFileInfo(),
		}))

		assert.True(t, tf.IsMultiFile())
		require.Len(t, tf.Files, 3)
		assert.Equal(t, []string{"CD1", "02 Song.flac"}, tf.Files[1].Path)
		assert.Equal(t, int64(600), tf.TotalSize())
		assert.True(t, tf.Private)
		assert.Equal(t, "test torrent", tf.Comment)
		assert.Equal(t, "mktorrent 1.1", tf.CreatedBy)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), tf.CreationDate)
		assert.Len(t, tf.Trackers(), 2)
		assert.Equal(t, "udp://c.example:80", tf.Trackers()[1][0])
	})

	t.Run("computes the info hash", func(t *testing.T) {
		info := multiFileInfo()
		tf := parse(t, encode(t, map[string]interface{}{"info": info}))

		sum := sha1.Sum(encode(t, info))
		assert.Equal(t, hex.EncodeToString(sum[:]), tf.InfoHash)
	})

	t.Run("rejects inputs over the size limit", func(t *testing.T) {
		_, err := torrentfile.Parse(bytes.NewReader(nil), torrentfile.MaxFileSize+1)
		assert.ErrorIs(t, err, torrentfile.ErrFileTooLarge)

		data := encode(t, map[string]interface{}{"info": singleFileInfo()})
		_, err = torrentfile.Parse(bytes.NewReader(data), -1, torrentfile.WithMaxSize(16))
		assert.ErrorIs(t, err, torrentfile.ErrFileTooLarge)
	})

	t.Run("wraps read failures", func(t *testing.T) {
		cause := errors.New("disk on fire")
		_, err := torrentfile.Parse(failingReader{err: cause}, -1)

		var readErr *torrentfile.ReadError
		require.ErrorAs(t, err, &readErr)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("reports malformed input", func(t *testing.T) {
		inputs := map[string][]byte{
			"garbage":          []byte("this is not bencode"),
			"not a dictionary": encode(t, []interface{}{"a"}),
			"no info":          encode(t, map[string]interface{}{"announce": "x"}),
			"no name":          encode(t, map[string]interface{}{"info": map[string]interface{}{"length": 1}}),
			"files not a list": encode(t, map[string]interface{}{
				"info": map[string]interface{}{"name": "x", "files": "nope"},
			}),
			"file without length": encode(t, map[string]interface{}{
				"info": map[string]interface{}{
					"name":  "x",
					"files": []interface{}{map[string]interface{}{"path": []interface{}{"a"}}},
				},
			}),
		}

		for name, data := range inputs {
			t.Run(name, func(t *testing.T) {
				_, err := torrentfile.Parse(bytes.NewReader(data), int64(len(data)))
				var parseErr *torrentfile.ParseError
				assert.ErrorAs(t, err, &parseErr)
			})
		}
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.torrent")
	require.NoError(t, os.WriteFile(path, encode(t, map[string]interface{}{"info": singleFileInfo()}), 0o644))

	tf, err := torrentfile.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ubuntu.iso", tf.Name)

	_, err = torrentfile.ParseFile(filepath.Join(t.TempDir(), "missing.torrent"))
	var readErr *torrentfile.ReadError
	assert.ErrorAs(t, err, &readErr)
}

func TestCreateFilesTree(t *testing.T) {
	t.Run("single file becomes the only top-level node", func(t *testing.T) {
		tf := parse(t, encode(t, map[string]interface{}{"info": singleFileInfo()}))

		result, err := torrentfile.CreateFilesTree(tf)
		require.NoError(t, err)

		children := result.Root.Children()
		require.Len(t, children, 1)
		item := children[0].Item()
		assert.Equal(t, 0, item.FileID)
		assert.Equal(t, "ubuntu.iso", item.Name)
		assert.Equal(t, int64(4096), item.Size)
		assert.Equal(t, int64(0), item.CompletedSize)
		assert.Equal(t, tree.Wanted, item.WantedState)
		assert.Equal(t, tree.PriorityNormal, item.Priority)
		require.Len(t, result.Files, 1)
	})

	t.Run("multi-file torrent nests under the torrent name", func(t *testing.T) {
		tf := parse(t, encode(t, map[string]interface{}{"info": multiFileInfo()}))

		result, err := torrentfile.CreateFilesTree(tf)
		require.NoError(t, err)

		album, ok := result.Root.ChildByName("Album").(*tree.DirectoryNode)
		require.True(t, ok)
		assert.Equal(t, int64(600), album.Item().Size)

		cd1, ok := album.ChildByName("CD1").(*tree.DirectoryNode)
		require.True(t, ok)
		assert.Len(t, cd1.Children(), 2)

		require.Len(t, result.Files, 3)
		assert.Equal(t, "cover.jpg", result.Files[2].Item().Name)
		assert.Equal(t, 1, result.Files[1].Item().FileID)
		assert.Equal(t, int64(600), result.Root.Item().Size)
	})

	t.Run("single file without length", func(t *testing.T) {
		tf := parse(t, encode(t, map[string]interface{}{
			"info": map[string]interface{}{"name": "x", "piece length": 1},
		}))

		_, err := torrentfile.CreateFilesTree(tf)
		var parseErr *torrentfile.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("multi-file torrent without files", func(t *testing.T) {
		tf := &torrentfile.TorrentFile{Name: "empty", Files: []torrentfile.File{}}

		_, err := torrentfile.CreateFilesTree(tf)
		var parseErr *torrentfile.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("duplicate files", func(t *testing.T) {
		info := multiFileInfo()
		info["files"] = []interface{}{
			map[string]interface{}{"length": 1, "path": []interface{}{"a"}},
			map[string]interface{}{"length": 2, "path": []interface{}{"a"}},
		}
		tf := parse(t, encode(t, map[string]interface{}{"info": info}))

		_, err := torrentfile.CreateFilesTree(tf)
		var parseErr *torrentfile.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.ErrorIs(t, err, tree.ErrNameConflict)
	})
}

type failingReader struct {
	err error
}

func (r failingReader) Read([]byte) (int, error) {
	return 0, r.err
}
