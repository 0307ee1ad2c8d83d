package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/tfiles/pkg/files/rpcfiles"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

func newBrowser(t *testing.T) (Model, *tree.Tree, *rpcfiles.Changes) {
	t.Helper()

	result, err := tree.Build([]tree.File{
		{ID: 0, Path: []string{"Show", "Season 1", "b.srt"}, Size: 100, CompletedSize: 50},
		{ID: 1, Path: []string{"Show", "Season 1", "a.mkv"}, Size: 200, WantedState: tree.Unwanted, Priority: tree.PriorityHigh},
		{ID: 2, Path: []string{"Show", "E10.mkv"}, Size: 300, CompletedSize: 300},
		{ID: 3, Path: []string{"Show", "E2.mkv"}, Size: 400, CompletedSize: 100},
	})
	require.NoError(t, err)

	changes := rpcfiles.NewChanges()
	tr := tree.New(tree.WithCallbacks(changes.Callbacks()))
	t.Cleanup(tr.Destroy)
	tr.InitFiles(result, nil)
	settle(t, tr)

	m := New(Options{Title: "Show", InfoHash: "abc", Tree: tr, Changes: changes})
	t.Cleanup(m.Close)
	return m, tr, changes
}

func settle(t *testing.T, tr *tree.Tree) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tr.Sync(ctx))
}

// press sends a key, waits for the tree, and feeds the latest listing back
// to the model.
func press(t *testing.T, m Model, tr *tree.Tree, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
		settle(t, tr)
		updated, _ = m.Update(itemsMsg(tr.Items().Load()))
		m = updated.(Model)
	}
	return m
}

func itemNames(items []*tree.Item) []string {
	names := make([]string, len(items))
	for i, item := range items {
		if item == nil {
			names[i] = ".."
		} else {
			names[i] = item.Name
		}
	}
	return names
}

func TestBrowserNavigation(t *testing.T) {
	m, tr, _ := newBrowser(t)

	assert.Equal(t, []string{"Show"}, itemNames(m.items))

	m = press(t, m, tr, "enter")
	assert.Equal(t, []string{"..", "Season 1", "E2.mkv", "E10.mkv"}, itemNames(m.items))
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, []string{"Show"}, breadcrumb(tr))

	m = press(t, m, tr, "j", "enter")
	assert.Equal(t, []string{"..", "a.mkv", "b.srt"}, itemNames(m.items))
	assert.Equal(t, []string{"Show", "Season 1"}, breadcrumb(tr))

	// Entering the parent entry goes up.
	m = press(t, m, tr, "enter")
	assert.Equal(t, []string{"Show"}, breadcrumb(tr))

	m = press(t, m, tr, "backspace")
	assert.Equal(t, []string{"Show"}, itemNames(m.items))
	assert.Empty(t, breadcrumb(tr))

	// Cursor stays within the listing.
	m = press(t, m, tr, "j", "j", "k", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestBrowserToggleAndPriority(t *testing.T) {
	m, tr, changes := newBrowser(t)
	m = press(t, m, tr, "enter", "j", "enter")

	// a.mkv is unwanted; toggling makes it wanted.
	m = press(t, m, tr, "j", "space")
	item, _ := m.selected()
	require.NotNil(t, item)
	assert.Equal(t, "a.mkv", item.Name)
	assert.Equal(t, tree.Wanted, item.WantedState)

	// b.srt: normal -> high -> low.
	m = press(t, m, tr, "j", "p", "p")
	item, _ = m.selected()
	require.NotNil(t, item)
	assert.Equal(t, tree.PriorityLow, item.Priority)

	args := changes.Arguments()
	assert.Equal(t, []int{1}, args.FilesWanted)
	assert.Equal(t, []int{0}, args.PriorityLow)

	// Toggling a directory applies to all its files.
	m = press(t, m, tr, "backspace", "j", "space")
	assert.Equal(t, []int{0, 1}, changes.Arguments().FilesUnwanted)
}

func TestBrowserIgnoresChangesUntilListingArrives(t *testing.T) {
	m, tr, changes := newBrowser(t)
	m = press(t, m, tr, "enter", "j")

	// Enter "Season 1" but keep the old listing: the cursor row now points
	// at index 0 of the old directory.
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	settle(t, tr)
	assert.Equal(t, []string{"..", "Season 1", "E2.mkv", "E10.mkv"}, itemNames(m.items))

	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("j")},
		{Type: tea.KeySpace, Runes: []rune{' '}},
		{Type: tea.KeyRunes, Runes: []rune("p")},
		{Type: tea.KeyRunes, Runes: []rune("r")},
	} {
		updated, _ = m.Update(msg)
		m = updated.(Model)
	}
	settle(t, tr)
	assert.False(t, m.renaming)
	assert.True(t, changes.Arguments().IsEmpty())

	// Once the new listing arrives, changes apply again.
	updated, _ = m.Update(itemsMsg(tr.Items().Load()))
	m = updated.(Model)
	assert.Equal(t, []string{"..", "a.mkv", "b.srt"}, itemNames(m.items))

	m = press(t, m, tr, "space")
	assert.Equal(t, []int{1}, changes.Arguments().FilesWanted)
}

func TestListingPath(t *testing.T) {
	assert.Empty(t, listingPath(nil))
	assert.Empty(t, listingPath([]*tree.Item{nil}))
	assert.Equal(t, []int{0, 1}, listingPath([]*tree.Item{nil, {NodePath: []int{0, 1, 3}}}))
}

func TestBrowserRename(t *testing.T) {
	m, tr, changes := newBrowser(t)
	m = press(t, m, tr, "enter", "j", "j")

	item, _ := m.selected()
	require.NotNil(t, item)
	require.Equal(t, "E2.mkv", item.Name)

	m = press(t, m, tr, "r")
	require.True(t, m.renaming)
	assert.Equal(t, "E2.mkv", m.input.Value())

	m.input.SetValue("E02.mkv")
	m = press(t, m, tr, "enter")
	assert.False(t, m.renaming)
	assert.Equal(t, []string{"..", "Season 1", "E02.mkv", "E10.mkv"}, itemNames(m.items))
	assert.Equal(t, []rpcfiles.RenameArguments{
		{IDs: []string{"abc"}, Path: "Show/E2.mkv", Name: "E02.mkv"},
	}, changes.Renames())

	t.Run("invalid name", func(t *testing.T) {
		m := press(t, m, tr, "r")
		m.input.SetValue("a/b")
		m = press(t, m, tr, "enter")
		assert.True(t, m.failed)
		assert.Contains(t, m.View(), "invalid name")
		assert.Len(t, changes.Renames(), 1)
	})

	t.Run("escape cancels", func(t *testing.T) {
		m := press(t, m, tr, "r")
		m.input.SetValue("other")
		m = press(t, m, tr, "esc")
		assert.False(t, m.renaming)
		assert.Len(t, changes.Renames(), 1)
	})
}

func TestBrowserView(t *testing.T) {
	m, tr, _ := newBrowser(t)
	m = press(t, m, tr, "enter")

	view := m.View()
	assert.Contains(t, view, "Show")
	assert.Contains(t, view, "..")
	assert.Contains(t, view, "Season 1/")
	assert.Contains(t, view, "[~]")
	assert.Contains(t, view, "[x]")
	assert.Contains(t, view, "400 B")
	assert.Contains(t, view, "450 B of 1000 B done")
	assert.True(t, strings.Index(view, "E2.mkv") < strings.Index(view, "E10.mkv"))
}

func TestBrowserQuit(t *testing.T) {
	m, _, _ := newBrowser(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBrowserScrolling(t *testing.T) {
	m, tr, _ := newBrowser(t)
	m = press(t, m, tr, "enter")

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 8})
	m = updated.(Model)
	require.Equal(t, 2, m.visibleRows())

	m = press(t, m, tr, "j", "j", "j")
	assert.Equal(t, 3, m.cursor)
	assert.Equal(t, 2, m.offset)
	assert.NotContains(t, m.View(), "Season 1/")
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, tree.PriorityNormal, nextPriority(tree.PriorityLow))
	assert.Equal(t, tree.PriorityHigh, nextPriority(tree.PriorityNormal))
	assert.Equal(t, tree.PriorityLow, nextPriority(tree.PriorityHigh))
	assert.Equal(t, tree.PriorityNormal, nextPriority(tree.PriorityMixed))
}
