// Package tui provides the interactive terminal interface for the arbor
// outline client. It uses Charmbracelet's Bubble Tea, Lip Gloss, and
// Bubbles for the terminal UI.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the TUI.
var (
	// Primary colors
	primaryColor = lipgloss.Color("#7D56F4")
	accentColor  = lipgloss.Color("#00D9FF")

	// Status colors
	successColor = lipgloss.Color("#28A745")
	warningColor = lipgloss.Color("#FFC107")
	dangerColor  = lipgloss.Color("#DC3545")

	// Neutral colors
	mutedColor     = lipgloss.Color("#666666")
	borderColor    = lipgloss.Color("#333333")
	highlightColor = lipgloss.Color("#1A1A2E")
)

// Box styles for containers.
var (
	// outerBoxStyle is the main container style.
	outerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	// dialogBoxStyle frames confirmation dialogs.
	dialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dangerColor).
			Padding(1, 2)
)

// Text styles.
var (
	// titleStyle for main titles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// mutedTextStyle for less important text.
	mutedTextStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// errorTextStyle for error messages.
	errorTextStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	// statusTextStyle for transient status line messages.
	statusTextStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)

// Outline item styles.
var (
	// selectedItemStyle for the currently selected node.
	selectedItemStyle = lipgloss.NewStyle().
				Background(highlightColor).
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	// normalItemStyle for non-selected nodes.
	normalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	// doneItemStyle for completed tasks.
	doneItemStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Strikethrough(true)

	// tagStyle for node tags.
	tagStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// dueStyle for task due dates.
	dueStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// overdueStyle for past-due tasks.
	overdueStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	// checkedStyle for completed checkboxes.
	checkedStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// focusCrumbStyle for the focus mode breadcrumb.
	focusCrumbStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// helpStyle for the key hint bar.
	helpStyle = lipgloss.NewStyle().
			Foreground(borderColor)
)
