package output

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// TreeFormatter draws the listing as an indented tree with sizes, progress
// and wanted/priority markers, styled with lipgloss.
type TreeFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TreeFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(TitleStyle.Render(r.Name))
	w.WriteString("\n")

	// lasts[d] reports whether the open ancestor at depth d+1 was the last
	// of its siblings.
	var lasts []bool
	for _, e := range r.Entries {
		lasts = append(lasts[:e.Depth-1], e.Last)

		var prefix strings.Builder
		for _, last := range lasts[:len(lasts)-1] {
			if last {
				prefix.WriteString("    ")
			} else {
				prefix.WriteString("│   ")
			}
		}
		if e.Last {
			prefix.WriteString("└── ")
		} else {
			prefix.WriteString("├── ")
		}

		w.WriteString(MutedStyle.Render(prefix.String()))
		w.WriteString(f.formatName(e))
		w.WriteString(" ")
		w.WriteString(f.formatDetails(e))
		w.WriteString("\n")
	}

	footer := fmt.Sprintf("%d files, %s, %s done",
		r.FileCount,
		humanize.IBytes(uint64(r.Size)),
		formatPercent(r.Progress()))
	w.WriteString(FooterBox.Render(footer))
	w.WriteString("\n")
	return nil
}

func (f *TreeFormatter) formatName(e Entry) string {
	switch {
	case e.IsDir:
		return DirStyle.Render(e.Name + "/")
	case e.Wanted == tree.Unwanted:
		return UnwantedStyle.Render(e.Name)
	default:
		return FileStyle.Render(e.Name)
	}
}

func (f *TreeFormatter) formatDetails(e Entry) string {
	parts := []string{SizeStyle.Render(e.SizeHuman)}

	progress := formatPercent(e.Progress)
	if e.Size > 0 && e.CompletedSize == e.Size {
		parts = append(parts, CompleteStyle.Render(progress))
	} else {
		parts = append(parts, MutedStyle.Render(progress))
	}

	if e.Wanted == tree.Mixed {
		parts = append(parts, MutedStyle.Render("partial"))
	}
	if e.Priority != tree.PriorityNormal {
		parts = append(parts, PriorityStyle(e.Priority).Render(e.Priority.String()))
	}

	return MutedStyle.Render("(") + strings.Join(parts, MutedStyle.Render(", ")) + MutedStyle.Render(")")
}

// formatPercent renders a fraction as a whole percentage, rounded down so
// that only complete items show 100%.
func formatPercent(fraction float64) string {
	return fmt.Sprintf("%d%%", int(math.Floor(fraction*100+1e-9)))
}

func init() {
	Register("tree", func() Formatter {
		return &TreeFormatter{}
	})
}

// Ensure TreeFormatter implements Formatter.
var _ Formatter = (*TreeFormatter)(nil)
