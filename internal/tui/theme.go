package tui

import (
	"github.com/Veraticus/toxref/internal/cli"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style of the browser.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Selected  lipgloss.Style
	Hazard    lipgloss.Style
	Warning   lipgloss.Style
	Footer    lipgloss.Style
	FilterBox lipgloss.Style
	Primary   lipgloss.Color
	Border    lipgloss.Color
	Muted     lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: cli.Accent,
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Selected: lipgloss.NewStyle().
		Background(cli.Accent).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Hazard: lipgloss.NewStyle().
		Foreground(cli.Danger).
		Bold(true),
	Warning: lipgloss.NewStyle().
		Foreground(cli.Caution),
	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	FilterBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
}
