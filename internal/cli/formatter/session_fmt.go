package formatter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/service"
)

// FormatStatus renders a one-shot status block for the CLI.
func FormatStatus(snap service.Snapshot) string {
	if snap.State == domain.SessionInactive {
		return StateBadge(snap.State) + "  " + Dim("No focus session. Start one with `insession start <task>`.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StateBadge(snap.State), Bold(snap.Task))
	fmt.Fprintf(&b, "%s %s", Dim("Elapsed"), StateStyle(snap.State).Render(FormatElapsed(snap.Total)))
	if snap.ActiveSince != nil {
		fmt.Fprintf(&b, "  %s", Dim("(interval started "+HumanTimestampFrom(*snap.ActiveSince, snap.TakenAt)+")"))
	}
	return b.String()
}

// FormatRejection explains why a transition was a no-op.
func FormatRejection(action string, state domain.SessionState, err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTask):
		return Dim("Nothing started: the task is empty.")
	case errors.Is(err, domain.ErrInvalidTransition):
		return Dim(fmt.Sprintf("Cannot %s while %s.", action, stateNoun(state)))
	default:
		return StyleRed.Render(err.Error())
	}
}

func stateNoun(state domain.SessionState) string {
	switch state {
	case domain.SessionActive:
		return "a session is running"
	case domain.SessionPaused:
		return "the session is paused"
	default:
		return "no session is running"
	}
}
