package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/repository"
)

// Snapshot is a point-in-time copy of the session record.
type Snapshot struct {
	Task        string
	State       domain.SessionState
	ActiveSince *time.Time
	Accumulated time.Duration

	// Total is the elapsed time evaluated at TakenAt.
	Total   time.Duration
	TakenAt time.Time
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithClock replaces time.Now. Tests use it to advance time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithObserver(obs UseCaseObserver) Option {
	return func(s *SessionStore) {
		s.observer = useCaseObserverOrNoop([]UseCaseObserver{obs})
	}
}

// SessionStore owns the current focus session. It gates transitions,
// accounts elapsed time, and mirrors every change to a KeyValueRepo.
//
// All record access happens under mu. Persistence also runs under mu so
// writes land in transition order; listeners run after it is released.
type SessionStore struct {
	mu       sync.Mutex
	session  domain.Session
	kv       repository.KeyValueRepo
	now      func() time.Time
	observer UseCaseObserver

	subMu     sync.Mutex
	nextSubID int
	listeners []listener
}

type listener struct {
	id int
	fn func(Snapshot)
}

// NewSessionStore returns a store holding the inactive default. It does not
// read kv; use Restore for that.
func NewSessionStore(kv repository.KeyValueRepo, opts ...Option) *SessionStore {
	s := &SessionStore{
		session:  domain.NewInactiveSession(),
		kv:       kv,
		now:      time.Now,
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rehydrates a store from kv. It never fails: unreadable, missing
// or inconsistent records yield the inactive default.
func Restore(ctx context.Context, kv repository.KeyValueRepo, opts ...Option) *SessionStore {
	s := NewSessionStore(kv, opts...)
	startedAt := s.now()
	fields := map[string]any{}

	sess, err := s.load(ctx, fields)
	s.session = sess
	fields["state"] = string(sess.State)

	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "restore-session",
		StartedAt: startedAt,
		Duration:  s.now().Sub(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
	return s
}

// load reads and normalizes the persisted record. A storage error returns
// the inactive default along with the error.
func (s *SessionStore) load(ctx context.Context, fields map[string]any) (domain.Session, error) {
	stored, err := readStoredSession(ctx, s.kv)
	if err != nil {
		return domain.NewInactiveSession(), fmt.Errorf("reading session: %w", err)
	}
	if len(stored.notes) > 0 {
		fields["ignored"] = strings.Join(stored.notes, "; ")
	}
	sess, invalid := stored.toSession()
	if invalid != nil {
		fields["fallback"] = invalid.Error()
	}
	return sess, nil
}

// Start begins a session for task. Only valid from inactive.
func (s *SessionStore) Start(ctx context.Context, task string) error {
	return s.transition(ctx, "start-session", func(sess *domain.Session, now time.Time) error {
		return sess.Start(task, now)
	})
}

// Pause folds the current active interval into the accumulated time.
func (s *SessionStore) Pause(ctx context.Context) error {
	return s.transition(ctx, "pause-session", func(sess *domain.Session, now time.Time) error {
		return sess.Pause(now)
	})
}

func (s *SessionStore) Resume(ctx context.Context) error {
	return s.transition(ctx, "resume-session", func(sess *domain.Session, now time.Time) error {
		return sess.Resume(now)
	})
}

// Toggle pauses an active session or resumes a paused one, for a single
// pause/resume key. An inactive session cannot be toggled because starting
// needs a task.
func (s *SessionStore) Toggle(ctx context.Context) error {
	return s.transition(ctx, "toggle-session", func(sess *domain.Session, now time.Time) error {
		switch sess.State {
		case domain.SessionActive:
			return sess.Pause(now)
		case domain.SessionPaused:
			return sess.Resume(now)
		default:
			return fmt.Errorf("toggle from %s: %w", sess.State, domain.ErrInvalidTransition)
		}
	})
}

// End resets to the inactive default and removes the persisted record.
// Calling it while inactive is harmless.
func (s *SessionStore) End(ctx context.Context) error {
	return s.transition(ctx, "end-session", func(sess *domain.Session, _ time.Time) error {
		sess.End()
		return nil
	})
}

// Reload replaces the in-memory record with the persisted one, e.g. after
// another process changed it. Unlike Restore, a storage error keeps the
// current record and is returned. The read happens under the record lock so
// a concurrent transition is never overwritten by what was read before it.
func (s *SessionStore) Reload(ctx context.Context) error {
	fields := map[string]any{}

	s.mu.Lock()
	sess, err := s.load(ctx, fields)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := !s.session.Equal(sess)
	s.session = sess
	snap := s.snapshotLocked(s.now())
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
	return nil
}

// TotalDuration returns the elapsed time of the current session, never
// negative.
func (s *SessionStore) TotalDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.TotalDuration(s.now())
}

func (s *SessionStore) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State
}

func (s *SessionStore) Task() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Task
}

func (s *SessionStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.now())
}

// Subscribe registers fn to receive a snapshot after every change to the
// record. Listeners run synchronously, in registration order, outside the
// store's lock, so they may call back into the store.
func (s *SessionStore) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// transition applies fn to a copy of the record. On rejection nothing
// changes. On success the copy replaces the record and is persisted; a
// persistence failure is reported to the observer only.
func (s *SessionStore) transition(ctx context.Context, name string, fn func(*domain.Session, time.Time) error) error {
	s.mu.Lock()
	now := s.now()
	next := s.session
	fields := map[string]any{"from": string(next.State)}

	if err := fn(&next, now); err != nil {
		s.mu.Unlock()
		fields["rejected"] = err.Error()
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: now,
			Success:   false,
			Fields:    fields,
		})
		return err
	}

	changed := !s.session.Equal(next)
	s.session = next
	persistErr := s.persistLocked(ctx, next)
	snap := s.snapshotLocked(now)
	s.mu.Unlock()

	fields["to"] = string(next.State)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: now,
		Duration:  s.now().Sub(now),
		Success:   true,
		Err:       persistErr,
		Fields:    fields,
	})

	if changed {
		s.notify(snap)
	}
	return nil
}

func (s *SessionStore) persistLocked(ctx context.Context, sess domain.Session) error {
	if err := s.kv.Apply(ctx, encodeSession(sess)); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SessionStore) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{
		Task:        s.session.Task,
		State:       s.session.State,
		Accumulated: s.session.Accumulated,
		Total:       s.session.TotalDuration(now),
		TakenAt:     now,
	}
	if s.session.ActiveSince != nil {
		since := *s.session.ActiveSince
		snap.ActiveSince = &since
	}
	return snap
}

func (s *SessionStore) notify(snap Snapshot) {
	s.subMu.Lock()
	ls := make([]listener, len(s.listeners))
	copy(ls, s.listeners)
	s.subMu.Unlock()

	for _, l := range ls {
		l.fn(snap)
	}
}
