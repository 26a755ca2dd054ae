package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type doneMsg string

// recorderModel records every doneMsg it receives. "f" runs a fast Cmd,
// "s" a slow one, "q" quits.
type recorderModel struct {
	delay time.Duration
	got   []string
}

func (m recorderModel) Init() tea.Cmd { return nil }

func (m recorderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.got = append(m.got, string(msg))
	case tea.KeyMsg:
		switch msg.String() {
		case "f":
			return m, func() tea.Msg { return doneMsg("fast") }
		case "s":
			delay := m.delay
			return m, func() tea.Msg {
				time.Sleep(delay)
				return doneMsg("slow")
			}
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m recorderModel) View() string { return "" }

func received(d *Driver) []string {
	return d.Model.(recorderModel).got
}

func TestDriver_FastCmdIsDeliveredInline(t *testing.T) {
	d := New(t, recorderModel{})
	d.PressKey('f')
	assert.Equal(t, []string{"fast"}, received(d))
}

func TestDriver_SlowCmdIsParkedUntilSettle(t *testing.T) {
	d := New(t, recorderModel{delay: 5 * cmdTimeout})
	d.PressKey('s')
	assert.Empty(t, received(d))

	assert.Zero(t, d.Settle(time.Second))
	assert.Equal(t, []string{"slow"}, received(d))
}

func TestDriver_SlowCmdIsDeliveredBeforeNextMessage(t *testing.T) {
	d := New(t, recorderModel{delay: 3 * cmdTimeout})
	d.PressKey('s')
	time.Sleep(10 * cmdTimeout)

	d.PressKey('f')
	assert.Equal(t, []string{"slow", "fast"}, received(d))
}

func TestDriver_QuitStopsDelivery(t *testing.T) {
	d := New(t, recorderModel{})
	d.PressKey('q')
	assert.True(t, d.Quitting)

	d.PressKey('f')
	assert.Empty(t, received(d))
}
