package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tfiles/pkg/files/output"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

func showTree(t *testing.T) *tree.DirectoryNode {
	t.Helper()
	result, err := tree.Build([]tree.File{
		{ID: 0, Path: []string{"Show", "Season 1", "b.srt"}, Size: 100, CompletedSize: 50},
		{ID: 1, Path: []string{"Show", "Season 1", "a.mkv"}, Size: 200, WantedState: tree.Unwanted, Priority: tree.PriorityHigh},
		{ID: 2, Path: []string{"Show", "E10.mkv"}, Size: 300, CompletedSize: 300},
		{ID: 3, Path: []string{"Show", "E2.mkv"}, Size: 400, CompletedSize: 100},
	})
	require.NoError(t, err)
	show, ok := result.Root.ChildByName("Show").(*tree.DirectoryNode)
	require.True(t, ok)
	return show
}

func TestNewResult(t *testing.T) {
	r := output.NewResult(showTree(t))

	assert.Equal(t, "Show", r.Name)
	assert.Equal(t, int64(1000), r.Size)
	assert.Equal(t, int64(450), r.CompletedSize)
	assert.Equal(t, 4, r.FileCount)
	assert.InDelta(t, 0.45, r.Progress(), 1e-9)

	var paths []string
	for _, e := range r.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"Season 1",
		"Season 1/a.mkv",
		"Season 1/b.srt",
		"E2.mkv",
		"E10.mkv",
	}, paths)

	season := r.Entries[0]
	assert.True(t, season.IsDir)
	assert.Equal(t, 1, season.Depth)
	assert.Equal(t, tree.Mixed, season.Wanted)
	assert.False(t, season.Last)
	assert.Empty(t, season.Type)

	sub := r.Entries[2]
	assert.Equal(t, 2, sub.Depth)
	assert.True(t, sub.Last)
	assert.Equal(t, "Subtitles", sub.Type)

	last := r.Entries[4]
	assert.Equal(t, 2, last.FileID)
	assert.True(t, last.Last)
	assert.Equal(t, "300 B", last.SizeHuman)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)

	assert.Len(t, r.Files(), 4)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "jsonl", "plain", "template", "tree", "yaml"}, output.Available())

	_, err := output.Get("xml")
	assert.Error(t, err)

	reg := output.NewRegistry()
	reg.Register("plain", func() output.Formatter { return &output.PlainFormatter{} })
	f, err := reg.Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &output.PlainFormatter{}, f)
}

func format(t *testing.T, name string, r *output.Result) string {
	t.Helper()
	f, err := output.Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestTreeFormatter(t *testing.T) {
	out := format(t, "tree", output.NewResult(showTree(t)))

	assert.Contains(t, out, "Show")
	assert.Contains(t, out, "├── ")
	assert.Contains(t, out, "│   ├── ")
	assert.Contains(t, out, "│   └── ")
	assert.Contains(t, out, "└── ")
	assert.Contains(t, out, "Season 1/")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "4 files")
	assert.Contains(t, out, "45% done")
	assert.True(t, strings.Index(out, "E2.mkv") < strings.Index(out, "E10.mkv"))
}

func TestPlainFormatter(t *testing.T) {
	out := format(t, "plain", output.NewResult(showTree(t)))
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Len(t, lines, 5)
	assert.Equal(t, []string{"ID", "SIZE", "DONE", "WANTED", "PRIORITY", "PATH"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "200", "B", "0%", "unwanted", "high", "Season", "1/a.mkv"}, strings.Fields(lines[1]))
	assert.True(t, strings.HasSuffix(lines[4], "E10.mkv"))
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, "json", output.NewResult(showTree(t)))

	var decoded struct {
		Name      string `json:"name"`
		FileCount int    `json:"file_count"`
		Entries   []struct {
			Path     string `json:"path"`
			Wanted   string `json:"wanted"`
			Priority string `json:"priority"`
			Last     *bool  `json:"last"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "Show", decoded.Name)
	assert.Equal(t, 4, decoded.FileCount)
	require.Len(t, decoded.Entries, 5)
	assert.Equal(t, "Season 1/a.mkv", decoded.Entries[1].Path)
	assert.Equal(t, "unwanted", decoded.Entries[1].Wanted)
	assert.Equal(t, "high", decoded.Entries[1].Priority)
	assert.Nil(t, decoded.Entries[0].Last)

	t.Run("empty listing", func(t *testing.T) {
		out := format(t, "json", &output.Result{Name: "x"})
		assert.Contains(t, out, `"entries": []`)
	})
}

func TestJSONLFormatter(t *testing.T) {
	out := format(t, "jsonl", output.NewResult(showTree(t)))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var e map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &e))
	assert.Equal(t, "Season 1/a.mkv", e["path"])
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, "yaml", output.NewResult(showTree(t)))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "Show", decoded["name"])
	entries, ok := decoded["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 5)
	assert.Contains(t, out, "wanted: mixed")
}

func TestTemplateFormatter(t *testing.T) {
	r := output.NewResult(showTree(t))

	out := format(t, "template", r)
	assert.Contains(t, out, "200 B\tSeason 1/a.mkv\n")

	f := output.NewTemplateFormatter(`{{.Name}} {{bytes .Size}} {{percent .Progress}}`)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	assert.Equal(t, "Show 1000 B 45%", buf.String())

	f.SetTemplate(`{{.Broken`)
	buf.Reset()
	assert.Error(t, f.Format(&buf, r))
}
