package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats the file entries as an aligned table without
// styling. Directories are omitted; paths identify each file.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprintln(tw, "ID\tSIZE\tDONE\tWANTED\tPRIORITY\tPATH"); err != nil {
		return err
	}

	for _, e := range r.Files() {
		_, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.FileID, e.SizeHuman, formatPercent(e.Progress), e.Wanted, e.Priority, e.Path)
		if err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
