// Package tui provides the interactive torrent file browser of tfiles.
// It uses Charmbracelet's Bubble Tea, Lip Gloss, and Bubbles.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")

	mutedColor     = lipgloss.Color("#666666")
	borderColor    = lipgloss.Color("#333333")
	highlightColor = lipgloss.Color("#1A1A2E")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// breadcrumbStyle renders the current directory path.
	breadcrumbStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	dividerStyle = lipgloss.NewStyle().
			Foreground(borderColor)

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	successTextStyle = lipgloss.NewStyle().
				Foreground(successColor)
)

// Listing styles.
var (
	selectedItemStyle = lipgloss.NewStyle().
				Background(highlightColor).
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	directoryStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	unwantedItemStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	checkedStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	uncheckedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	mixedStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	fileSizeStyle = lipgloss.NewStyle().
			Width(10).
			Align(lipgloss.Right).
			Foreground(accentColor)

	progressStyle = lipgloss.NewStyle().
			Width(5).
			Align(lipgloss.Right).
			Foreground(mutedColor)

	highPriorityStyle = lipgloss.NewStyle().
				Foreground(warningColor).
				Bold(true)

	lowPriorityStyle = lipgloss.NewStyle().
				Foreground(mutedColor)

	cursorStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)
