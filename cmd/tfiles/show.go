package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/tfiles/pkg/files/output"
)

var (
	showPath     string
	showTemplate string
)

var showCmd = &cobra.Command{
	Use:   "show <file.torrent|response.json>",
	Short: "Print the file tree of a torrent",
	Long: `Print the file tree of a .torrent file or of the first torrent of a
Transmission torrent-get response (.json) saved to disk.

Examples:
  tfiles show movie.torrent
  tfiles show --path "Show/Season 1" show.torrent
  tfiles show -f plain response.json
  tfiles show -f template --template '{{range .Files}}{{.FileID}} {{.Path}}{{"\n"}}{{end}}' movie.torrent`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPath, "path", "", "list from this sub-directory (e.g. \"Show/Season 1\")")
	showCmd.Flags().StringVar(&showTemplate, "template", "", "template for --format template")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	maxSize, err := cfg.MaxTorrentBytes()
	if err != nil {
		return err
	}
	src, err := loadSource(args[0], maxSize)
	if err != nil {
		return err
	}

	dir, err := subdirectory(src.Result.Root, showPath)
	if err != nil {
		return err
	}

	result := output.NewResult(dir)
	if dir == src.Result.Root {
		result.Name = src.Name
	}
	result.InfoHash = src.InfoHash
	result.Source = src.Path
	result.Trackers = src.Trackers

	formatter, err := newFormatter(cfg.Output.Format, showTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// newFormatter returns the named formatter, applying tmpl to the template
// formatter.
func newFormatter(name, tmpl string) (output.Formatter, error) {
	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, output.Available())
	}
	if tf, ok := formatter.(*output.TemplateFormatter); ok && tmpl != "" {
		tf.SetTemplate(tmpl)
	}
	return formatter, nil
}
