// Package browse is an interactive terminal table of reconciled cables.
// Enter toggles a detail pane for the selected cable; q, esc and ctrl+c quit.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"cablesweep/internal/render"
	"cablesweep/internal/sweep"
)

const (
	defaultHeight = 12
	detailWrap    = 72
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	detailStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is the bubbletea model of the browser.
type Model struct {
	view     render.View
	cables   []sweep.CableReport
	table    table.Model
	markdown *glamour.TermRenderer
	detail   bool
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithMarkdownStyle selects the glamour style used for the detail pane,
// e.g. "dark", "light" or "notty". The default is "notty".
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		if r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(detailWrap)); err == nil {
			m.markdown = r
		}
	}
}

// withAutoStyle picks dark or light from the terminal background.
func withAutoStyle() Option {
	return func(m *Model) {
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(detailWrap)); err == nil {
			m.markdown = r
		}
	}
}

// New builds a browser over the cables of v.
func New(v render.View, opts ...Option) Model {
	cables := v.Cables()
	rows := make([]table.Row, 0, len(cables))
	for _, c := range cables {
		r := v.Row(c)
		rows = append(rows, table.Row{r.Tag, r.Finished, r.Length, r.VSWR, r.RL})
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Tag", Width: 16},
			{Title: "T+", Width: 16},
			{Title: "Length", Width: 8},
			{Title: "VSWR", Width: 8},
			{Title: "RL", Width: 8},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(defaultHeight, len(rows)+3)),
	)

	m := Model{view: v, cables: cables, table: t}
	WithMarkdownStyle("notty")(&m)
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.detail = !m.detail
			return m, nil
		}
	case tea.WindowSizeMsg:
		if h := msg.Height - 4; h > 0 && h < m.table.Height() {
			m.table.SetHeight(h)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d cables", len(m.cables))) + "\n")
	b.WriteString(m.table.View() + "\n")
	if c, ok := m.Selected(); ok && m.detail {
		b.WriteString(detailStyle.Render(m.renderDetail(c)) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter details • q quit") + "\n")
	return b.String()
}

// renderDetail formats the detail markdown for the terminal, falling back to
// the raw markdown if glamour fails.
func (m Model) renderDetail(c sweep.CableReport) string {
	md := render.Detail(m.view, c)
	if m.markdown != nil {
		if out, err := m.markdown.Render(md); err == nil {
			md = out
		}
	}
	return strings.Trim(md, "\n")
}

// Selected returns the cable under the cursor.
func (m Model) Selected() (sweep.CableReport, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.cables) {
		return sweep.CableReport{}, false
	}
	return m.cables[i], true
}

// DetailShown reports whether the detail pane is open.
func (m Model) DetailShown() bool { return m.detail }

// Run shows the browser on the terminal until the user quits.
func Run(v render.View) error {
	if len(v.Cables()) == 0 {
		return fmt.Errorf("browse: no cables to show")
	}
	_, err := tea.NewProgram(New(v, withAutoStyle()), tea.WithAltScreen()).Run()
	return err
}
