package domain

import "strings"

type SessionState string

const (
	SessionInactive SessionState = "inactive"
	SessionActive   SessionState = "active"
	SessionPaused   SessionState = "paused"
)

// ParseSessionState maps a stored tag back to a SessionState.
// Surrounding whitespace is ignored; anything else must match exactly.
func ParseSessionState(s string) (SessionState, bool) {
	switch st := SessionState(strings.TrimSpace(s)); st {
	case SessionInactive, SessionActive, SessionPaused:
		return st, true
	default:
		return "", false
	}
}

// Label is the verb a primary action button shows for this state.
func (s SessionState) Label() string {
	switch s {
	case SessionActive:
		return "End"
	case SessionPaused:
		return "Resume"
	default:
		return "Start"
	}
}

// IsActive reports whether time is currently being counted.
func (s SessionState) IsActive() bool {
	return s == SessionActive
}
