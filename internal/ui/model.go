// Package ui is the terminal display surface for the dashboard. It renders
// the snapshots the view controller computes and forwards user actions back
// to it; no dashboard state lives here.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hookview/dashboard/internal/view"
)

type tab int

const (
	tabUser tab = iota
	tabSystem
)

type mode int

const (
	modeNormal mode = iota
	modeFilter
	modeConfirmDelete
)

// snapshotMsg carries a controller snapshot into the bubbletea loop.
type snapshotMsg struct{ snap view.Snapshot }

// Renderer implements view.Renderer by sending snapshots to the program.
type Renderer struct{ program *tea.Program }

// NewRenderer wraps a running program.
func NewRenderer(p *tea.Program) *Renderer { return &Renderer{program: p} }

// Render forwards a snapshot; safe to call from the controller goroutine.
func (r *Renderer) Render(s view.Snapshot) {
	r.program.Send(snapshotMsg{snap: s})
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	controller *view.Controller
	appID      int

	snap    view.Snapshot
	haveRaw bool

	activeTab tab
	mode      mode

	viewport    viewport.Model
	filterInput textinput.Model
	spin        spinner.Model
	width       int
	height      int
	ready       bool
}

// NewModel creates the model bound to a controller.
func NewModel(controller *view.Controller, appID int) Model {
	ti := textinput.New()
	ti.Placeholder = `event:Login status:Valid free text...`
	ti.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		controller:  controller,
		appID:       appID,
		filterInput: ti,
		spin:        sp,
	}
}

// Init starts the waiting spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles terminal events and controller snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = msg.snap
		m.haveRaw = true
		if m.ready {
			m.refreshContent()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - 7
		if bodyHeight < 3 {
			bodyHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
		m.refreshContent()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeFilter:
		switch msg.Type {
		case tea.KeyEnter:
			expr := strings.TrimSpace(m.filterInput.Value())
			m.mode = modeNormal
			m.filterInput.Blur()
			if expr != "" {
				m.controller.ApplyFilter(ParseCriteria(expr))
			}
			return m, nil
		case tea.KeyEsc:
			m.mode = modeNormal
			m.filterInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd

	case modeConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.mode = modeNormal
			m.controller.DeleteAllLogs()
		default:
			m.mode = modeNormal
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.activeTab == tabUser {
			m.activeTab = tabSystem
		} else {
			m.activeTab = tabUser
		}
		m.refreshContent()
	case "f":
		m.mode = modeFilter
		m.filterInput.SetValue("")
		m.filterInput.Focus()
	case "c":
		m.controller.ClearFilter()
	case "e":
		m.controller.Export(view.ReportResults)
	case "v":
		m.controller.Export(view.ReportValidEvents)
	case "d":
		m.mode = modeConfirmDelete
	case "m":
		if m.snap.HasMore {
			m.controller.LoadMore()
		}
	case "x":
		m.controller.DismissAlert()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	rows := m.snap.UserRows
	if m.activeTab == tabSystem {
		rows = m.snap.SystemRows
	}
	m.viewport.SetContent(renderRows(rows, m.viewport.Width))
}

// View draws the whole dashboard.
func (m Model) View() string {
	if !m.ready || !m.haveRaw {
		return fmt.Sprintf("\n  %s loading dashboard...\n", m.spin.View())
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render(fmt.Sprintf("hookview / app %d", m.appID))

	conn := disconnected
	if m.snap.Connected {
		conn = connectedMark
	}

	userTab := tabStyle
	systemTab := tabStyle
	if m.activeTab == tabUser {
		userTab = activeTabStyle
	} else {
		systemTab = activeTabStyle
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top,
		userTab.Render(fmt.Sprintf("User Events (%d)", m.snap.UserCount)),
		systemTab.Render(fmt.Sprintf("System Events (%d)", m.snap.SystemCount)),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", conn, "  ", tabs)
}

func (m Model) statusView() string {
	s := m.snap
	parts := []string{
		fmt.Sprintf("stats: %d total / %d valid / %d invalid", s.Stats.Total, s.Stats.Valid, s.Stats.Invalid),
		fmt.Sprintf("coverage: %d/%d captured", s.Coverage.Captured, s.Coverage.Total),
		fmt.Sprintf("buffer: %d", s.BufferLen),
	}
	if len(s.Coverage.MissingEvents) > 0 {
		missing := strings.Join(s.Coverage.MissingEvents, ", ")
		if len(missing) > 60 {
			missing = missing[:57] + "..."
		}
		parts = append(parts, "missing: "+missing)
	}
	line := statusBarStyle.Render(strings.Join(parts, "  │  "))

	if s.FilterActive {
		line = lipgloss.JoinHorizontal(lipgloss.Top, filterBadge.Render("FILTERED"), " ", line)
	}
	return line
}

func (m Model) footerView() string {
	switch m.mode {
	case modeFilter:
		return "filter> " + m.filterInput.View()
	case modeConfirmDelete:
		return confirmStyle.Render("Delete ALL logs for this app? This cannot be undone. [y/N]")
	}

	if m.snap.Alert != "" {
		return alertStyle.Render(m.snap.Alert) + dimStyle.Render("  (x to dismiss)")
	}

	keys := "tab switch  f filter  c clear  e export  v valid-only  d delete  q quit"
	if m.snap.HasMore {
		keys = "m load more  " + keys
	}
	return dimStyle.Render(keys)
}

// renderRows draws table rows as viewport content.
func renderRows(rows []view.Row, width int) string {
	if len(rows) == 0 {
		return dimStyle.Render("  no events yet")
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(renderRow(r, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(r view.Row, width int) string {
	switch r.Kind {
	case view.RowHeader:
		return headerRowStyle.Render(fmt.Sprintf("▶ %s  %s", r.Timestamp, r.EventName))
	case view.RowSystem:
		return systemRowStyle.Render(fmt.Sprintf("%s  %-24s %s", r.Timestamp, r.EventName, r.Message))
	default:
		res := r.Result
		line := fmt.Sprintf("    %-20s %-18s %-10s %-10s %s",
			truncate(res.Key, 20),
			truncate(view.ValueString(res.Value), 18),
			truncate(res.ExpectedType, 10),
			truncate(res.ReceivedType, 10),
			statusStyle(res.ValidationStatus).Render(string(res.ValidationStatus)),
		)
		if res.Comment != "" {
			line += dimStyle.Render("  # " + res.Comment)
		}
		return line
	}
}

// truncate shortens to n runes so multi-byte names are never cut mid-rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
