package domain

import "errors"

var (
	// ErrEmptyTask indicates a session was started with a blank task.
	ErrEmptyTask = errors.New("task is empty")

	// ErrInvalidTransition indicates the operation is not allowed from the
	// session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrInconsistentSession indicates a session record violates one of its
	// invariants, e.g. after being rebuilt from corrupt storage.
	ErrInconsistentSession = errors.New("inconsistent session record")
)
