// Package tui provides an interactive terminal browser for classification
// results.
package tui

import (
	"strings"

	"github.com/Veraticus/toxref/internal/cli"
	"github.com/Veraticus/toxref/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// mode is what the browser is currently showing.
type mode int

const (
	modeList mode = iota
	modeFilter
	modeDetail
)

// chrome is the number of lines used around the table.
const chrome = 7

// Model is the bubbletea model of the browser.
type Model struct {
	theme    Theme
	title    string
	keymap   KeyMap
	records  []model.ClassificationRecord
	filtered []model.ClassificationRecord
	table    table.Model
	filter   textinput.Model
	detail   viewport.Model
	help     help.Model
	query    string
	mode     mode
	width    int
	height   int
	quitting bool
}

// New creates a browser over records.
func New(records []model.ClassificationRecord, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(max(cfg.Height-chrome, 3)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cfg.Theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = cfg.Theme.Selected
	t.SetStyles(s)

	filter := textinput.New()
	filter.Placeholder = "CAS, name or source..."
	filter.Prompt = "/ "
	filter.CharLimit = 64

	m := Model{
		theme:   cfg.Theme,
		title:   cfg.Title,
		keymap:  DefaultKeyMap(),
		records: records,
		table:   t,
		filter:  filter,
		detail:  viewport.New(cfg.Width, max(cfg.Height-4, 3)),
		help:    help.New(),
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.applyFilter("")
	return m
}

func columns(width int) []table.Column {
	name := max(width-12-18-18-22-10, 16)
	return []table.Column{
		{Title: "CAS", Width: 12},
		{Title: "Name", Width: name},
		{Title: "CMR", Width: 18},
		{Title: "PE/Sens", Width: 18},
		{Title: "Sources", Width: 22},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keymap.Filter):
		m.mode = modeFilter
		m.filter.SetValue(m.query)
		cmd := m.filter.Focus()
		return m, cmd
	case key.Matches(msg, m.keymap.Clear):
		if m.query != "" {
			m.applyFilter("")
		}
		return m, nil
	case key.Matches(msg, m.keymap.Open):
		rec, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.mode = modeDetail
		m.detail.SetContent(cli.RenderRecord(rec))
		m.detail.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = modeList
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeList
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter("")
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter(m.filter.Value())
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Back):
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-chrome, 3))
	m.detail.Width = width
	m.detail.Height = max(height-4, 3)
	m.help.Width = width
}

// applyFilter keeps the records whose CAS, name or sources contain query,
// ignoring case.
func (m *Model) applyFilter(query string) {
	m.query = strings.TrimSpace(query)
	needle := strings.ToLower(m.query)

	m.filtered = m.filtered[:0:0]
	for _, rec := range m.records {
		if needle == "" || matches(rec, needle) {
			m.filtered = append(m.filtered, rec)
		}
	}

	rows := make([]table.Row, len(m.filtered))
	for i, rec := range m.filtered {
		rows[i] = row(rec)
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func matches(rec model.ClassificationRecord, needle string) bool {
	if strings.Contains(strings.ToLower(rec.CAS), needle) ||
		strings.Contains(strings.ToLower(rec.SubstanceName), needle) {
		return true
	}
	for _, s := range rec.Sources {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func row(rec model.ClassificationRecord) table.Row {
	return table.Row{
		rec.CAS,
		rec.SubstanceName,
		labels(rec.CMR),
		labels(rec.PESens),
		strings.Join(rec.Sources, ", "),
	}
}

func labels(set model.CategorySet) string {
	cats := set.Sorted()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Label()
	}
	return strings.Join(out, ", ")
}

// Selected returns the record under the cursor.
func (m Model) Selected() (model.ClassificationRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return model.ClassificationRecord{}, false
	}
	return m.filtered[i], true
}

// Visible returns the number of records passing the current filter.
func (m Model) Visible() int {
	return len(m.filtered)
}
