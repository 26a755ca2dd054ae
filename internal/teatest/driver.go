// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned Cmds are executed inline. A Cmd that
// does not return within a short timeout (cursor blink, tea.Tick, a slow
// store call) is parked rather than dropped: its message is delivered on the
// next Send once it finishes, or when the test calls Settle. Timer messages
// are usually better sent explicitly.
package teatest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDrainDepth bounds how many chained Cmds a single message may trigger.
const MaxDrainDepth = 100

// cmdTimeout separates immediate Cmds (store calls, message factories) from
// timer-backed ones.
const cmdTimeout = 10 * time.Millisecond

// Driver holds a model and feeds it messages.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a Cmd yields tea.QuitMsg.
	Quitting bool

	// pending holds results of Cmds that outlived cmdTimeout.
	pending []chan tea.Msg
}

// New returns a Driver for model. Call DrainInit to run Init.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Option configures a Driver.
type Option func(*Driver)

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.T.Helper()
		updated, _ := d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
		d.Model = updated
	}
}

// DrainInit runs the model's Init Cmd and everything it leads to.
func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drainCmd(d.Model.Init(), 0)
}

// Send delivers msg and drains the resulting Cmds. Ignored after quit.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	d.collect()
	if d.Quitting {
		return
	}
	updated, cmd := d.Model.Update(msg)
	d.Model = updated
	d.drainCmd(cmd, 0)
}

// Settle delivers parked Cmds as they finish, for up to max. It returns how
// many are still running, which includes any pending timers.
func (d *Driver) Settle(max time.Duration) int {
	d.T.Helper()
	deadline := time.Now().Add(max)
	for {
		d.collect()
		if len(d.pending) == 0 || time.Now().After(deadline) {
			return len(d.pending)
		}
		time.Sleep(time.Millisecond)
	}
}

// collect delivers messages from parked Cmds that have finished meanwhile.
func (d *Driver) collect() {
	d.T.Helper()
	still := d.pending[:0]
	var ready []tea.Msg
	for _, ch := range d.pending {
		select {
		case msg := <-ch:
			ready = append(ready, msg)
		default:
			still = append(still, ch)
		}
	}
	d.pending = still
	for _, msg := range ready {
		d.handleMsg(msg, 0)
	}
}

// PressKey sends a single rune key.
func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func (d *Driver) PressEnter() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyEnter})
}

func (d *Driver) PressEsc() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyEsc})
}

func (d *Driver) PressCtrlC() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
}

// Type sends s one rune at a time.
func (d *Driver) Type(s string) {
	d.T.Helper()
	for _, r := range s {
		d.PressKey(r)
	}
}

// View renders the current model.
func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drainCmd(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest.Driver: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg, ch := execCmdWithTimeout(cmd)
	if ch != nil {
		d.pending = append(d.pending, ch)
		return
	}
	d.handleMsg(msg, depth)
}

func (d *Driver) handleMsg(msg tea.Msg, depth int) {
	d.T.Helper()
	if msg == nil || isCursorBlink(msg) {
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			if sub != nil {
				d.drainCmd(sub, depth+1)
			}
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		updated, _ := d.Model.Update(msg)
		d.Model = updated
		return
	}
	if d.Quitting {
		return
	}

	updated, next := d.Model.Update(msg)
	d.Model = updated
	d.drainCmd(next, depth+1)
}

// execCmdWithTimeout returns cmd's message, or the channel it will arrive
// on when cmd does not finish within cmdTimeout.
func execCmdWithTimeout(cmd tea.Cmd) (tea.Msg, chan tea.Msg) {
	ch := make(chan tea.Msg, 1)
	go func() {
		ch <- cmd()
	}()
	select {
	case msg := <-ch:
		return msg, nil
	case <-time.After(cmdTimeout):
		return nil, ch
	}
}

// isCursorBlink matches the unexported blink message types from bubbles.
func isCursorBlink(msg tea.Msg) bool {
	t := fmt.Sprintf("%T", msg)
	return strings.Contains(t, "Blink") || strings.Contains(t, "blink")
}
