package main

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/tfiles/cmd/tfiles/tui"
	"github.com/jamesainslie/tfiles/pkg/files/logging"
	"github.com/jamesainslie/tfiles/pkg/files/rpcfiles"
	"github.com/jamesainslie/tfiles/pkg/files/savedstate"
	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

var browseCmd = &cobra.Command{
	Use:   "browse <file.torrent|response.json>",
	Short: "Browse the file tree of a torrent interactively",
	Long: `Browse the file tree of a torrent, choosing which files to download,
their priorities and their names.

Keys:
  enter/backspace  open directory / go back
  space            toggle wanted
  p                cycle priority (low, normal, high)
  r                rename
  q                quit

On quit the chosen changes are printed as torrent-set and
torrent-rename-path arguments. The directory you were in is remembered
per torrent unless --no-state is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := logging.Get("cli")

	maxSize, err := cfg.MaxTorrentBytes()
	if err != nil {
		return err
	}
	src, err := loadSource(args[0], maxSize)
	if err != nil {
		return err
	}
	logger = logger.With("torrent", src.Name)

	changes := rpcfiles.NewChanges()
	t := tree.New(tree.WithCallbacks(changes.Callbacks()))
	defer t.Destroy()

	var handle *savedstate.Handle
	if stateEnabled() {
		store, err := savedstate.OpenBadgerStore(cfg.State.Path)
		if err != nil {
			logger.Warn("saved state unavailable", "path", cfg.State.Path, "error", err)
		} else {
			defer func() { _ = store.Close() }()
			if handle, err = savedstate.Open(store, src.scope()); err != nil {
				logger.Warn("failed to load saved state", "scope", src.scope(), "error", err)
				handle = nil
			}
		}
	}

	if handle != nil {
		t.InitFiles(src.Result, handle)
	} else {
		t.InitFiles(src.Result, nil)
	}
	if err := t.Sync(cmd.Context()); err != nil {
		return err
	}

	model := tui.New(tui.Options{
		Title:    src.Name,
		InfoHash: src.InfoHash,
		Tree:     t,
		Changes:  changes,
	})
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}

	if handle != nil {
		if err := handle.Save(); err != nil {
			logger.Warn("failed to save state", "scope", handle.Scope(), "error", err)
		}
	}

	return printChanges(cmd.OutOrStdout(), changes)
}

// changeSummary is printed after browsing.
type changeSummary struct {
	Set     rpcfiles.SetArguments      `yaml:"torrent-set,omitempty"`
	Renames []rpcfiles.RenameArguments `yaml:"torrent-rename-path,omitempty"`
}

func printChanges(w io.Writer, changes *rpcfiles.Changes) error {
	summary := changeSummary{Set: changes.Arguments(), Renames: changes.Renames()}
	if summary.Set.IsEmpty() && len(summary.Renames) == 0 {
		_, err := fmt.Fprintln(w, "No changes.")
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(summary); err != nil {
		return err
	}
	return encoder.Close()
}
