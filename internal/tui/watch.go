// Package tui renders the live watch dashboard: a self-refreshing issue list
// with per-second assigned-time counters.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/assignwatch/assignwatch/internal/assignment"
	"github.com/assignwatch/assignwatch/internal/model"
	"github.com/assignwatch/assignwatch/internal/rank"
)

// reloadEvery is how often the watch view refetches upstream data. The
// counters themselves advance every second without touching the network.
const reloadEvery = 30 * time.Second

// Snapshot is one loaded view of the repository.
type Snapshot struct {
	Repo   *model.RepoMeta
	Issues []rank.RankedIssue
	Stale  int
}

// LoadFunc produces a fresh snapshot. It is invoked off the UI goroutine.
type LoadFunc func(ctx context.Context) (*Snapshot, error)

type snapshotMsg struct{ snapshot *Snapshot }
type errMsg struct{ err error }
type tickMsg time.Time

// Model is the Bubble Tea model for the watch dashboard.
type Model struct {
	ctx  context.Context
	load LoadFunc

	spinner  spinner.Model
	snapshot *Snapshot
	err      error

	now        time.Time
	staleAfter time.Duration
	lastLoaded time.Time
	loading    bool

	windowWidth  int
	windowHeight int
}

// NewModel creates a watch model.
func NewModel(ctx context.Context, load LoadFunc, staleAfter time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ctx:        ctx,
		load:       load,
		spinner:    s,
		now:        time.Now(),
		staleAfter: staleAfter,
		loading:    true,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(), tick())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.loadCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.now = time.Time(msg)
		cmds := []tea.Cmd{tick()}
		if !m.loading && m.now.Sub(m.lastLoaded) >= reloadEvery {
			m.loading = true
			cmds = append(cmds, m.loadCmd())
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.err = nil
		m.loading = false
		m.lastLoaded = m.now
		return m, nil

	case errMsg:
		m.err = msg.err
		m.loading = false
		m.lastLoaded = m.now // back off until the next reload window
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	switch {
	case m.snapshot == nil && m.err == nil:
		b.WriteString(fmt.Sprintf("\n  %s Loading issues...\n", m.spinner.View()))
	case m.err != nil && m.snapshot == nil:
		b.WriteString(fmt.Sprintf("\n  %s\n", errorStyle.Render(m.err.Error())))
	default:
		m.renderSnapshot(&b)
		if m.err != nil {
			b.WriteString(fmt.Sprintf("\n  %s\n",
				errorStyle.Render("refresh failed, showing last data: "+m.err.Error())))
		}
	}

	footer := "\n  q quit · r refresh"
	if m.loading && m.snapshot != nil {
		footer += " · " + m.spinner.View() + " refreshing"
	}
	b.WriteString(footerStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderSnapshot(b *strings.Builder) {
	s := m.snapshot

	if s.Repo != nil {
		b.WriteString("\n  " + headerStyle.Render(s.Repo.FullName))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ★ %d · %d open", s.Repo.Stars, s.Repo.OpenIssues)))
		b.WriteString("\n")
	}
	if s.Stale > 0 {
		b.WriteString("  " + staleStyle.Render(fmt.Sprintf("%d stale issues need attention", s.Stale)) + "\n")
	}
	b.WriteString("\n")

	if len(s.Issues) == 0 {
		b.WriteString(dimStyle.Render("  No issues found.") + "\n")
		return
	}

	titleWidth := 44
	if m.windowWidth > 0 && m.windowWidth < 100 {
		titleWidth = max(20, m.windowWidth-50)
	}

	for i := range s.Issues {
		ri := &s.Issues[i]
		issue := &ri.Issue

		title := runewidth.Truncate(issue.Title, titleWidth, "...")
		title = runewidth.FillRight(title, titleWidth)

		status := assignment.Classify(issue, m.now, m.staleAfter)
		label := assignment.StatusLabel(issue, m.now, m.staleAfter)
		switch status {
		case assignment.StatusStale:
			label = staleStyle.Render(label)
		case assignment.StatusInProgress:
			label = inProgressStyle.Render(label)
		default:
			label = dimStyle.Render(label)
		}

		line := fmt.Sprintf("  #%-5d %s %s", issue.Number, title, label)

		if issue.Assignee != nil {
			line += dimStyle.Render(" @" + issue.Assignee.Login)
			if ri.AssignedAt != nil {
				elapsed := assignment.FormatElapsed(assignment.Elapsed(*ri.AssignedAt, m.now))
				line += " " + counterStyle.Render(elapsed)
			}
		}

		b.WriteString(line + "\n")
	}
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.load(m.ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

// tick drives the per-second counter updates.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
