package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode == modeDetail {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.detail.View(),
			m.theme.Footer.Render(fmt.Sprintf("%3.f%%  esc back  q quit", m.detail.ScrollPercent()*100)),
		)
	}

	var filter string
	if m.mode == modeFilter {
		filter = m.theme.FilterBox.Render(m.filter.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		filter,
		m.table.View(),
		m.help.View(m.keymap),
	)
}

func (m Model) header() string {
	status := fmt.Sprintf("%d of %d substances", len(m.filtered), len(m.records))
	if hazards := m.hazardCount(); hazards > 0 {
		status += "  " + m.theme.Hazard.Render(fmt.Sprintf("%d CMR", hazards))
	}
	if m.query != "" {
		status += "  " + m.theme.Warning.Render(fmt.Sprintf("filter: %q", m.query))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render(m.title),
		m.theme.Subtitle.Render(status),
	)
}

func (m Model) hazardCount() int {
	n := 0
	for _, rec := range m.filtered {
		if len(rec.CMR.Sorted()) > 0 {
			n++
		}
	}
	return n
}
