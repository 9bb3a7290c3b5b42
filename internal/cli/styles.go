// Package cli renders lookup results and progress for the terminal.
package cli

import "github.com/charmbracelet/lipgloss"

// Palette colors shared by the command output.
var (
	Accent  = lipgloss.Color("#5B8DEF")
	Danger  = lipgloss.Color("#FF6B6B")
	Caution = lipgloss.Color("#FFE66D")
	Calm    = lipgloss.Color("#4ECDC4")
	Note    = lipgloss.Color("#95E1D3")
	Dim     = lipgloss.Color("#666666")
	Frame   = lipgloss.Color("#333333")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	successStyle = lipgloss.NewStyle().Foreground(Calm)

	// WarningStyle marks PE/Sens categories and warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(Caution)
	// HazardStyle marks CMR categories.
	HazardStyle = lipgloss.NewStyle().Bold(true).Foreground(Danger)
	// InfoStyle heads each source table.
	InfoStyle   = lipgloss.NewStyle().Foreground(Note)
	SubtleStyle = lipgloss.NewStyle().Foreground(Dim)
	BoldStyle   = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Frame).
			Padding(1, 2)
)

const (
	SuccessIcon = "✓"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	FlaskIcon   = "🧪"
)

func withIcon(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

func FormatSuccess(message string) string { return withIcon(successStyle, SuccessIcon, message) }

func FormatWarning(message string) string { return withIcon(WarningStyle, WarningIcon, message) }

func FormatInfo(message string) string { return withIcon(InfoStyle, InfoIcon, message) }

// FormatTitle renders a section title, followed by a blank line.
func FormatTitle(title string) string {
	return withIcon(titleStyle.MarginBottom(1), FlaskIcon, title)
}

// RenderBox frames content under a bold title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content))
}
