package service

import (
	"context"
	"time"

	"github.com/alexanderramin/insession/internal/domain"
)

// SessionService is what a presentation layer needs from the session store.
// Transition methods return nil on success, or an error wrapping
// domain.ErrEmptyTask or domain.ErrInvalidTransition when the call was a
// no-op. Storage failures are never returned from transitions.
type SessionService interface {
	Start(ctx context.Context, task string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Toggle(ctx context.Context) error
	End(ctx context.Context) error
	Reload(ctx context.Context) error

	TotalDuration() time.Duration
	State() domain.SessionState
	Task() string
	Snapshot() Snapshot
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}

var _ SessionService = (*SessionStore)(nil)
