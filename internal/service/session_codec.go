package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/repository"
)

// Persisted keys. The first three are shared with earlier releases; the
// accumulated key was added so a paused session keeps its time across
// restarts.
const (
	KeyCurrentTask        = "current_task"
	KeySessionState       = "session_state"
	KeySessionStartTime   = "session_start_time"
	KeySessionAccumulated = "session_accumulated"
)

var sessionKeys = []string{KeyCurrentTask, KeySessionState, KeySessionStartTime, KeySessionAccumulated}

const startTimeLayout = time.RFC3339Nano

// storedSession is the raw, field-by-field view of the persisted keys.
// Fields that were absent or unparseable already hold their defaults.
type storedSession struct {
	task        string
	state       domain.SessionState
	activeSince *time.Time
	accumulated time.Duration

	// notes lists fields that held a value but could not be parsed.
	notes []string
}

// encodeSession turns a record into the batch that persists it. An inactive
// record removes every key; otherwise the start time is written while active
// and removed while paused.
func encodeSession(s domain.Session) repository.Batch {
	if s.State == domain.SessionInactive {
		return repository.Batch{Delete: sessionKeys}
	}
	b := repository.Batch{Set: map[string]string{
		KeyCurrentTask:        s.Task,
		KeySessionState:       string(s.State),
		KeySessionAccumulated: s.Accumulated.String(),
	}}
	if s.ActiveSince != nil {
		b.Set[KeySessionStartTime] = s.ActiveSince.UTC().Format(startTimeLayout)
	} else {
		b.Delete = []string{KeySessionStartTime}
	}
	return b
}

// readStoredSession loads every key in one read. Only storage errors are
// returned; missing or malformed values fall back to defaults per field.
func readStoredSession(ctx context.Context, kv repository.KeyValueRepo) (storedSession, error) {
	stored := storedSession{state: domain.SessionInactive}

	values, err := kv.GetMany(ctx, sessionKeys...)
	if err != nil {
		return storedSession{}, err
	}

	if v, ok := values[KeyCurrentTask]; ok {
		stored.task = v
	}

	if v, ok := values[KeySessionState]; ok {
		if st, valid := domain.ParseSessionState(v); valid {
			stored.state = st
		} else {
			stored.notes = append(stored.notes, fmt.Sprintf("%s=%q unrecognized", KeySessionState, v))
		}
	}

	if v, ok := values[KeySessionStartTime]; ok {
		if ts, perr := time.Parse(startTimeLayout, v); perr == nil {
			ts = ts.UTC()
			stored.activeSince = &ts
		} else {
			stored.notes = append(stored.notes, fmt.Sprintf("%s=%q unparseable", KeySessionStartTime, v))
		}
	}

	if v, ok := values[KeySessionAccumulated]; ok {
		if d, perr := time.ParseDuration(v); perr == nil && d >= 0 {
			stored.accumulated = d
		} else {
			stored.notes = append(stored.notes, fmt.Sprintf("%s=%q invalid", KeySessionAccumulated, v))
		}
	}

	return stored, nil
}

// toSession assembles a record that satisfies every invariant. Leftovers
// that cannot matter are dropped; a record that cannot be repaired becomes
// the inactive default and the reason is returned.
func (st storedSession) toSession() (domain.Session, error) {
	s := domain.Session{
		Task:        st.task,
		State:       st.state,
		ActiveSince: st.activeSince,
		Accumulated: st.accumulated,
	}
	switch s.State {
	case domain.SessionInactive:
		return domain.NewInactiveSession(), nil
	case domain.SessionPaused:
		s.ActiveSince = nil
	}
	if err := s.Validate(); err != nil {
		return domain.NewInactiveSession(), err
	}
	return s, nil
}
