package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/tfiles/pkg/files/tree"
)

// Colors from the ANSI 256-color palette.
const (
	ColorPrimary = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorDanger  = lipgloss.Color("196")
	ColorMuted   = lipgloss.Color("245")
)

var (
	// TitleStyle renders the listed directory's name.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	DirStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	FileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// UnwantedStyle dims files that will not be downloaded.
	UnwantedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Strikethrough(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SizeStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	HighPriorityStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	LowPriorityStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	// FooterBox holds the totals line.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// PriorityStyle returns the style used for a priority marker.
func PriorityStyle(p tree.Priority) lipgloss.Style {
	switch p {
	case tree.PriorityHigh:
		return HighPriorityStyle
	case tree.PriorityLow:
		return LowPriorityStyle
	default:
		return MutedStyle
	}
}
