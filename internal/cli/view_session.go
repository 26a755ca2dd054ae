package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/insession/internal/cli/formatter"
	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tickMsg refreshes the live elapsed counter.
type tickMsg time.Time

// snapshotMsg carries a record change pushed by the store.
type snapshotMsg service.Snapshot

// dbChangedMsg signals that another process wrote the database.
type dbChangedMsg struct{}

// transitionMsg reports the outcome of a transition or reload.
type transitionMsg struct {
	action string
	from   domain.SessionState
	err    error
}

// sessionModel is the live view of the current session.
type sessionModel struct {
	ctx      context.Context
	sessions service.SessionService
	tick     time.Duration

	snap      service.Snapshot
	input     textinput.Model
	composing bool
	notice    string
	width     int
}

func newSessionModel(ctx context.Context, sessions service.SessionService, tick time.Duration) sessionModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.Prompt = "› "
	ti.CharLimit = 200
	ti.PromptStyle = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	ti.TextStyle = formatter.StyleFg

	if tick <= 0 {
		tick = time.Second
	}
	return sessionModel{
		ctx:      ctx,
		sessions: sessions,
		tick:     tick,
		snap:     sessions.Snapshot(),
		input:    ti,
	}
}

func (m sessionModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m sessionModel) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// run executes a store operation off the update loop.
func (m sessionModel) run(action string, op func(context.Context) error) tea.Cmd {
	from := m.snap.State
	return func() tea.Msg {
		return transitionMsg{action: action, from: from, err: op(m.ctx)}
	}
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.snap = m.sessions.Snapshot()
		return m, m.tickCmd()

	case snapshotMsg:
		m.snap = service.Snapshot(msg)
		return m, nil

	case dbChangedMsg:
		return m, m.run("reload", m.sessions.Reload)

	case transitionMsg:
		m.snap = m.sessions.Snapshot()
		m.notice = ""
		if msg.err != nil {
			m.notice = formatter.FormatRejection(msg.action, msg.from, msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.composing {
			return m.updateComposing(msg)
		}
		return m.updateKeys(msg)
	}

	if m.composing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m sessionModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case " ", "p":
		return m, m.run("toggle", m.sessions.Toggle)
	case "e":
		return m, m.run("end", m.sessions.End)
	case "s":
		if m.snap.State != domain.SessionInactive {
			m.notice = formatter.FormatRejection("start", m.snap.State, domain.ErrInvalidTransition)
			return m, nil
		}
		m.notice = ""
		m.composing = true
		m.input.Reset()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m sessionModel) updateComposing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		m.input.Reset()
		return m, nil
	case tea.KeyEnter:
		task := strings.TrimSpace(m.input.Value())
		if task == "" {
			return m, nil
		}
		m.composing = false
		m.input.Blur()
		m.input.Reset()
		return m, m.run("start", func(ctx context.Context) error {
			return m.sessions.Start(ctx, task)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m sessionModel) View() string {
	var b strings.Builder

	if m.snap.State == domain.SessionInactive {
		b.WriteString(formatter.StateBadge(m.snap.State))
		b.WriteString("\n\n")
		b.WriteString(formatter.Dim("No focus session running."))
	} else {
		fmt.Fprintf(&b, "%s  %s\n\n", formatter.StateBadge(m.snap.State), formatter.Bold(m.snap.Task))
		elapsed := formatter.StateStyle(m.snap.State).Bold(true).Render(formatter.FormatElapsed(m.snap.Total))
		b.WriteString(elapsed)
	}

	if m.composing {
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
	}
	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.notice)
	}

	b.WriteString("\n\n")
	b.WriteString(m.helpLine())

	return formatter.RenderBox("insession", b.String())
}

func (m sessionModel) helpLine() string {
	if m.composing {
		return formatter.Dim("enter start · esc cancel")
	}
	primary := strings.ToLower(m.snap.State.Label())
	switch m.snap.State {
	case domain.SessionActive:
		return formatter.Dim("space pause · e " + primary + " · q quit")
	case domain.SessionPaused:
		return formatter.Dim("space " + primary + " · e end · q quit")
	default:
		return formatter.Dim("s " + primary + " · q quit")
	}
}
