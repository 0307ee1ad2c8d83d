package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/tfiles/pkg/files/logging"
	"github.com/jamesainslie/tfiles/pkg/files/navigator"
	"github.com/jamesainslie/tfiles/pkg/files/torrentfile"
)

var findSummary bool

var findCmd = &cobra.Command{
	Use:   "find [dir]",
	Short: "Find .torrent files below a directory",
	Long: `Recursively list .torrent files below a directory (default: the
configured navigator.start_dir, or the current directory). Hidden
directories are skipped.

With --summary every file is parsed and its name, file count and size
are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().BoolVarP(&findSummary, "summary", "s", false, "parse each torrent and print a summary")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	dir := "."
	if cfg.Navigator.StartDir != "" {
		dir = cfg.Navigator.StartDir
	}
	if len(args) > 0 {
		dir = args[0]
	}

	paths, err := navigator.FindTorrents(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("failed to search %s: %w", dir, err)
	}

	w := cmd.OutOrStdout()
	if !findSummary {
		for _, p := range paths {
			if _, err := fmt.Fprintln(w, p); err != nil {
				return err
			}
		}
		return nil
	}

	maxSize, err := cfg.MaxTorrentBytes()
	if err != nil {
		return err
	}
	summaries, err := summarize(cmd.Context(), paths, maxSize)
	if err != nil {
		return err
	}
	return writeSummaries(w, summaries)
}

// torrentSummary describes one found torrent. Err is set when it could not
// be parsed.
type torrentSummary struct {
	Path  string
	Name  string
	Files int
	Size  int64
	Err   error
}

// summarize parses paths concurrently. Parse failures are reported per
// file; only cancellation fails the whole run.
func summarize(ctx context.Context, paths []string, maxSize int64) ([]torrentSummary, error) {
	logger := logging.Get("cli")
	summaries := make([]torrentSummary, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = torrentSummary{Path: p}
			fileLogger := logger.With("path", p)

			t, err := torrentfile.ParseFile(p, torrentfile.WithMaxSize(maxSize))
			if err != nil {
				fileLogger.Debug("skipping unparsable torrent", "error", err)
				summaries[i].Err = err
				return nil
			}
			summaries[i].Name = t.Name
			summaries[i].Size = t.TotalSize()
			summaries[i].Files = max(len(t.Files), 1)
			fileLogger.Debug("parsed torrent", "name", t.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func writeSummaries(w io.Writer, summaries []torrentSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "SIZE\tFILES\tNAME\tPATH"); err != nil {
		return err
	}
	for _, s := range summaries {
		var err error
		if s.Err != nil {
			_, err = fmt.Fprintf(tw, "-\t-\t(error: %v)\t%s\n", s.Err, s.Path)
		} else {
			_, err = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", humanize.IBytes(uint64(s.Size)), s.Files, s.Name, s.Path)
		}
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}
