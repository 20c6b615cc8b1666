package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette for the leaderboard view.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
	}
}

// Styles contains pre-configured lipgloss styles for the board.
type Styles struct {
	// Title style for the board header.
	Title lipgloss.Style

	// Header style for the table header row.
	Header lipgloss.Style

	// Normal style for regular rows.
	Normal lipgloss.Style

	// Leader style for the top-ranked row.
	Leader lipgloss.Style

	// Muted style for progress and footer text.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style
}

// DefaultStyles returns styles built from the default theme.
func DefaultStyles() *Styles {
	theme := DefaultTheme()
	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),
		Header: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(theme.Border),
		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Leader: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),
	}
}
