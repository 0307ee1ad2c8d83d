package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tfiles/pkg/files/flow"
	"github.com/jamesainslie/tfiles/pkg/files/logging"
	"github.com/jamesainslie/tfiles/pkg/files/rpcfiles"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// Options configures the browser.
type Options struct {
	// Title is shown in the header, usually the torrent name.
	Title string

	// InfoHash identifies the torrent in recorded renames.
	InfoHash string

	// Tree must already be initialized.
	Tree *tree.Tree

	// Changes receives renames. Wanted and priority changes reach it through
	// the tree's callbacks. May be nil.
	Changes *rpcfiles.Changes
}

// itemsMsg carries a newly published listing.
type itemsMsg []*tree.Item

// Model is the Bubble Tea model of the torrent file browser.
type Model struct {
	opts   Options
	tree   *tree.Tree
	sub    *flow.Subscription[[]*tree.Item]
	logger *logging.Logger

	items  []*tree.Item
	cursor int
	offset int

	// stale is set between a navigation and the arrival of the new
	// directory's listing. Index-based changes are refused meanwhile.
	stale bool

	renaming bool
	input    textinput.Model
	status   string
	failed   bool

	keys keyMap
	help help.Model

	width  int
	height int
}

// New creates a browser subscribed to the tree's listing.
func New(opts Options) Model {
	input := textinput.New()
	input.Prompt = "rename: "
	input.CharLimit = 255

	return Model{
		opts:   opts,
		tree:   opts.Tree,
		sub:    opts.Tree.Items().Subscribe(),
		logger: logging.Get("tui"),
		items:  opts.Tree.Items().Load(),
		input:  input,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  80,
		height: 24,
	}
}

// Init starts listening for listings.
func (m Model) Init() tea.Cmd {
	return m.waitForItems()
}

func (m Model) waitForItems() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	values := m.sub.Values
	return func() tea.Msg {
		items, ok := <-values
		if !ok {
			return nil
		}
		return itemsMsg(items)
	}
}

// Close stops the listing subscription.
func (m Model) Close() {
	if m.sub != nil {
		m.tree.Items().Unsubscribe(m.sub.ID)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ensureVisible()
		return m, nil

	case itemsMsg:
		m.setItems(msg)
		return m, m.waitForItems()

	case tea.KeyMsg:
		if m.renaming {
			return m.handleRenameKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) setItems(items []*tree.Item) {
	m.items = items
	if m.stale && slices.Equal(listingPath(items), m.tree.CurrentPath()) {
		m.stale = false
	}
	if m.cursor >= len(items) {
		m.cursor = max(len(items)-1, 0)
	}
	m.ensureVisible()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor = max(m.cursor-m.visibleRows(), 0)

	case key.Matches(msg, m.keys.PageDown):
		m.cursor = max(min(m.cursor+m.visibleRows(), len(m.items)-1), 0)

	case key.Matches(msg, m.keys.Open):
		item, ok := m.selected()
		if !ok {
			break
		}
		if item == nil {
			m.navigateUp()
		} else if m.tree.NavigateDown(item) {
			m.cursor, m.offset = 0, 0
			m.stale = true
		}

	case key.Matches(msg, m.keys.Back):
		m.navigateUp()

	case key.Matches(msg, m.keys.Toggle):
		if item, ok := m.selected(); ok && item != nil && !m.stale {
			m.tree.SetItemsWanted([]int{item.Index()}, item.WantedState != tree.Wanted)
		}

	case key.Matches(msg, m.keys.Priority):
		if item, ok := m.selected(); ok && item != nil && !m.stale {
			m.tree.SetItemsPriority([]int{item.Index()}, nextPriority(item.Priority))
		}

	case key.Matches(msg, m.keys.Rename):
		if item, ok := m.selected(); ok && item != nil && !m.stale {
			m.renaming = true
			m.input.SetValue(item.Name)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	}

	m.ensureVisible()
	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.renaming = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.renaming = false
		m.input.Blur()
		m.rename(strings.TrimSpace(m.input.Value()))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) rename(name string) {
	item, ok := m.selected()
	if !ok || item == nil || name == item.Name {
		return
	}
	if name == "" || strings.Contains(name, "/") {
		m.setStatus(fmt.Sprintf("invalid name %q", name), true)
		return
	}

	path, ok := m.tree.ItemNamePath(item)
	if !ok {
		return
	}
	m.tree.RenameFile(path, name)
	if m.opts.Changes != nil {
		m.opts.Changes.Rename(m.opts.InfoHash, path, name)
	}
	m.logger.Debug("rename requested", "path", path, "name", name)
	m.setStatus(fmt.Sprintf("renamed %s to %s", item.Name, name), false)
}

func (m *Model) setStatus(status string, failed bool) {
	m.status = status
	m.failed = failed
}

func (m *Model) navigateUp() {
	if m.tree.NavigateUp() {
		m.cursor, m.offset = 0, 0
		m.stale = true
	}
}

// listingPath returns the index path of the directory items were listed
// from. An empty listing is the root of an empty tree.
func listingPath(items []*tree.Item) []int {
	for _, item := range items {
		if item != nil {
			return item.NodePath[:len(item.NodePath)-1]
		}
	}
	return []int{}
}

// selected returns the item under the cursor; a nil item is the parent
// entry.
func (m Model) selected() (*tree.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil, false
	}
	return m.items[m.cursor], true
}

// nextPriority cycles low, normal, high.
func nextPriority(p tree.Priority) tree.Priority {
	switch p {
	case tree.PriorityLow:
		return tree.PriorityNormal
	case tree.PriorityNormal:
		return tree.PriorityHigh
	case tree.PriorityHigh:
		return tree.PriorityLow
	default:
		return tree.PriorityNormal
	}
}

func (m Model) visibleRows() int {
	// header, breadcrumb, divider, divider, status, help
	return max(m.height-6, 1)
}

func (m *Model) ensureVisible() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.opts.Title))
	b.WriteString("\n")
	b.WriteString(breadcrumbStyle.Render("/" + strings.Join(breadcrumb(m.tree), "/")))
	b.WriteString("\n")

	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	b.WriteString(divider)
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(mutedTextStyle.Render("  (empty)"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.visibleRows(), len(m.items))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.items[i], i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString(divider)
	b.WriteString("\n")

	switch {
	case m.renaming:
		b.WriteString(m.input.View())
	case m.status != "" && m.failed:
		b.WriteString(errorTextStyle.Render(m.status))
	case m.status != "":
		b.WriteString(successTextStyle.Render(m.status))
	default:
		b.WriteString(m.summary())
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderRow(item *tree.Item, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}

	if item == nil {
		name := directoryStyle.Render("..")
		if selected {
			name = selectedItemStyle.Render("..")
		}
		return cursor + "    " + name
	}

	var check string
	switch item.WantedState {
	case tree.Wanted:
		check = checkedStyle.Render("[x]")
	case tree.Unwanted:
		check = uncheckedStyle.Render("[ ]")
	default:
		check = mixedStyle.Render("[~]")
	}

	name := item.Name
	style := normalItemStyle
	switch {
	case selected:
		style = selectedItemStyle
	case item.IsDirectory():
		style = directoryStyle
	case item.WantedState == tree.Unwanted:
		style = unwantedItemStyle
	}
	if item.IsDirectory() {
		name += "/"
	}

	columns := []string{
		cursor + check + " " + style.Render(name),
		fileSizeStyle.Render(humanize.IBytes(uint64(item.Size))),
		progressStyle.Render(fmt.Sprintf("%d%%", int(item.Progress()*100))),
	}
	switch item.Priority {
	case tree.PriorityHigh:
		columns = append(columns, highPriorityStyle.Render(" high"))
	case tree.PriorityLow:
		columns = append(columns, lowPriorityStyle.Render(" low"))
	case tree.PriorityMixed:
		columns = append(columns, mutedTextStyle.Render(" mixed"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m Model) summary() string {
	root := m.tree.Root()
	if root == nil {
		return ""
	}
	item := root.Item()
	return mutedTextStyle.Render(fmt.Sprintf("%s of %s done",
		humanize.IBytes(uint64(item.CompletedSize)), humanize.IBytes(uint64(item.Size))))
}

// breadcrumb returns the names of the directories from the root to the
// current directory.
func breadcrumb(t *tree.Tree) []string {
	root := t.Root()
	if root == nil {
		return nil
	}

	var names []string
	var node tree.Node = root
	for _, index := range t.CurrentPath() {
		dir, ok := node.(*tree.DirectoryNode)
		if !ok {
			break
		}
		children := dir.Children()
		if index < 0 || index >= len(children) {
			break
		}
		node = children[index]
		names = append(names, node.Item().Name)
	}
	return names
}
