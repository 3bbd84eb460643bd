// Package ui implements the interactive terminal view of a sync run: a
// spinner, a tail of recent operations, and an aggregated summary footer.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bjpolzin/calibre2yac/internal/cli/hooks"
	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

// recentOpsShown bounds the operation tail so the view stays a fixed height.
const recentOpsShown = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// opLine is one rendered entry in the operation tail.
type opLine struct {
	target  string
	kind    syncer.OpKind
	status  syncer.Status
	message string
}

// Summary holds the aggregated statistics displayed in the footer.
type Summary struct {
	Tag          string
	Planned      int
	Materialized int
	Removed      int
	Failed       int
	StartTime    time.Time
}

// Model represents the state of the TUI application. Hook messages arrive via
// Program.Send from worker goroutines; mutable collections are guarded by mu.
type Model struct {
	spinner  spinner.Model
	width    int
	quitting bool
	done     bool

	mu      sync.Mutex
	recent  []opLine
	summary Summary
	passes  []syncer.Report
}

// NewModel creates the initial TUI model.
func NewModel() *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{spinner: sp, summary: Summary{StartTime: time.Now()}}
}

// Reports returns the reports of all completed passes, for final rendering
// after the program exits.
func (m *Model) Reports() []syncer.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]syncer.Report(nil), m.passes...)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case hooks.PlanReadyMsg:
		m.mu.Lock()
		m.summary.Tag = msg.Tag
		m.summary.Planned = msg.Materialize + msg.Remove
		m.mu.Unlock()
		return m, nil

	case hooks.OpStatusMsg:
		m.mu.Lock()
		m.recent = append(m.recent, opLine{
			target:  msg.Target,
			kind:    msg.Kind,
			status:  msg.Status,
			message: msg.Message,
		})
		if len(m.recent) > recentOpsShown {
			m.recent = m.recent[len(m.recent)-recentOpsShown:]
		}
		switch msg.Status {
		case syncer.StatusMaterialized:
			m.summary.Materialized++
		case syncer.StatusRemoved:
			m.summary.Removed++
		case syncer.StatusFailed:
			m.summary.Failed++
		}
		m.mu.Unlock()
		return m, nil

	case hooks.PassCompleteMsg:
		m.mu.Lock()
		m.passes = append(m.passes, msg.Report)
		m.mu.Unlock()
		return m, nil

	case RunDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// RunDoneMsg signals that all passes are complete and the TUI should exit.
type RunDoneMsg struct{}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	header := fmt.Sprintf("%s calibre2yac", m.spinner.View())
	if m.summary.Tag != "" {
		header += subtleStyle.Render(fmt.Sprintf("  syncing '%s'", m.summary.Tag))
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, op := range m.recent {
		b.WriteString(renderOp(op))
		b.WriteString("\n")
	}

	done := m.summary.Materialized + m.summary.Removed + m.summary.Failed
	footer := fmt.Sprintf("%d/%d ops  %d materialized  %d removed  %d failed  %s",
		done, m.summary.Planned,
		m.summary.Materialized, m.summary.Removed, m.summary.Failed,
		time.Since(m.summary.StartTime).Round(time.Second))
	b.WriteString(summaryStyle.Render(subtleStyle.Render(footer)))
	b.WriteString("\n")
	return b.String()
}

func renderOp(op opLine) string {
	name := filepath.Base(op.target)
	switch {
	case op.status == syncer.StatusFailed:
		return failStyle.Render(fmt.Sprintf("  ✗ %s (%s)", name, op.message))
	case op.kind == syncer.OpRemove:
		return removeStyle.Render(fmt.Sprintf("  - %s", name))
	default:
		return okStyle.Render(fmt.Sprintf("  ✓ %s", name))
	}
}
