package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/tfiles/pkg/files/navigator"
)

var lsWatch bool

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List directories and .torrent files",
	Long: `List the sub-directories and .torrent files of a directory, directories
first, names compared naturally ("E2" before "E10").

With --watch (or navigator.watch: true) the listing is printed again
whenever the directory changes, until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsWatch, "watch", "w", false, "print the listing again on changes")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	dir := cfg.Navigator.StartDir
	if len(args) > 0 {
		dir = args[0]
	}

	nav, err := navigator.New(dir)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := nav.Init(ctx); err != nil {
		return err
	}

	watch := cfg.Navigator.Watch
	if cmd.Flags().Changed("watch") {
		watch = lsWatch
	}

	w := cmd.OutOrStdout()
	if !watch {
		return writeEntries(w, nav.CurrentDir(), nav.Items().Load())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchListing(ctx, w, nav)
}

// watchListing prints every listing nav publishes until ctx is done.
func watchListing(ctx context.Context, w io.Writer, nav *navigator.Navigator) error {
	sub := nav.Items().Subscribe()
	if sub == nil {
		return nil
	}
	defer nav.Items().Unsubscribe(sub.ID)

	watchErr := make(chan error, 1)
	go func() { watchErr <- nav.Watch(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			return err
		case entries, ok := <-sub.Values:
			if !ok {
				return nil
			}
			if err := writeEntries(w, nav.CurrentDir(), entries); err != nil {
				return err
			}
		}
	}
}

func writeEntries(w io.Writer, dir string, entries []*navigator.Entry) error {
	if _, err := fmt.Fprintf(w, "%s:\n", dir); err != nil {
		return err
	}
	for _, e := range entries {
		var err error
		switch {
		case e == nil:
			_, err = fmt.Fprintln(w, "  ../")
		case e.IsDir:
			_, err = fmt.Fprintf(w, "  %s/\n", e.Name)
		default:
			_, err = fmt.Fprintf(w, "  %s  %s\n", e.Name, humanize.IBytes(uint64(e.Size)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
