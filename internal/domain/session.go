package domain

import (
	"fmt"
	"strings"
	"time"
)

// Session is the single focus session record. The zero value is the
// inactive default.
type Session struct {
	Task        string
	State       SessionState
	ActiveSince *time.Time

	// Accumulated is the sum of completed active intervals; the in-progress
	// interval is not included.
	Accumulated time.Duration
}

// NewInactiveSession returns the default record.
func NewInactiveSession() Session {
	return Session{State: SessionInactive}
}

// Start begins a new session. The task is trimmed; a blank task is rejected
// before the state is checked.
func (s *Session) Start(task string, now time.Time) error {
	task = strings.TrimSpace(task)
	if task == "" {
		return ErrEmptyTask
	}
	if s.State != SessionInactive {
		return fmt.Errorf("start from %s: %w", s.State, ErrInvalidTransition)
	}
	s.Task = task
	s.State = SessionActive
	s.ActiveSince = &now
	s.Accumulated = 0
	return nil
}

// Pause closes the current active interval into Accumulated.
func (s *Session) Pause(now time.Time) error {
	if !s.State.IsActive() {
		return fmt.Errorf("pause from %s: %w", s.State, ErrInvalidTransition)
	}
	s.Accumulated += liveInterval(s.ActiveSince, now)
	s.State = SessionPaused
	s.ActiveSince = nil
	return nil
}

// Resume opens a new active interval. Accumulated is unchanged.
func (s *Session) Resume(now time.Time) error {
	if s.State != SessionPaused {
		return fmt.Errorf("resume from %s: %w", s.State, ErrInvalidTransition)
	}
	s.State = SessionActive
	s.ActiveSince = &now
	return nil
}

// End resets the record to the inactive default. Always succeeds.
func (s *Session) End() {
	*s = NewInactiveSession()
}

// TotalDuration returns Accumulated plus the live interval, if any.
// The live interval is clamped at zero so a clock moved backwards never
// produces a negative total.
func (s Session) TotalDuration(now time.Time) time.Duration {
	total := s.Accumulated
	if s.State.IsActive() {
		total += liveInterval(s.ActiveSince, now)
	}
	if total < 0 {
		return 0
	}
	return total
}

// Validate reports the first violated record invariant.
func (s Session) Validate() error {
	switch s.State {
	case SessionInactive:
		if s.Task != "" || s.ActiveSince != nil || s.Accumulated != 0 {
			return fmt.Errorf("inactive session carries data: %w", ErrInconsistentSession)
		}
	case SessionActive, SessionPaused:
		if strings.TrimSpace(s.Task) == "" {
			return fmt.Errorf("%s session without task: %w", s.State, ErrInconsistentSession)
		}
		if s.State.IsActive() != (s.ActiveSince != nil) {
			return fmt.Errorf("%s session with active_since=%v: %w", s.State, s.ActiveSince != nil, ErrInconsistentSession)
		}
	default:
		return fmt.Errorf("unknown state %q: %w", s.State, ErrInconsistentSession)
	}
	if s.Accumulated < 0 {
		return fmt.Errorf("negative accumulated duration %s: %w", s.Accumulated, ErrInconsistentSession)
	}
	return nil
}

// Equal compares two records, treating ActiveSince by instant.
func (s Session) Equal(o Session) bool {
	if s.Task != o.Task || s.State != o.State || s.Accumulated != o.Accumulated {
		return false
	}
	if s.ActiveSince == nil || o.ActiveSince == nil {
		return s.ActiveSince == nil && o.ActiveSince == nil
	}
	return s.ActiveSince.Equal(*o.ActiveSince)
}

func liveInterval(since *time.Time, now time.Time) time.Duration {
	if since == nil {
		return 0
	}
	if d := now.Sub(*since); d > 0 {
		return d
	}
	return 0
}
