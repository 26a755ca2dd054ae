package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/insession/internal/domain"
	"github.com/alexanderramin/insession/internal/repository"
	"github.com/alexanderramin/insession/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*SessionStore, *repository.MemoryKeyValueRepo, *testutil.FakeClock) {
	t.Helper()
	kv := repository.NewMemoryKeyValueRepo()
	clock := testutil.NewFakeClock(testutil.FixedNow)
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewSessionStore(kv, opts...), kv, clock
}

func assertInactive(t *testing.T, store *SessionStore) {
	t.Helper()
	snap := store.Snapshot()
	assert.Equal(t, domain.SessionInactive, snap.State)
	assert.Empty(t, snap.Task)
	assert.Nil(t, snap.ActiveSince)
	assert.Zero(t, snap.Accumulated)
	assert.Zero(t, snap.Total)
}

func TestStart_BlankTaskIsNoop(t *testing.T) {
	store, kv, _ := newTestStore(t)
	ctx := context.Background()

	for _, task := range []string{"", "   ", "\n\t", " \r\n "} {
		err := store.Start(ctx, task)
		assert.ErrorIs(t, err, domain.ErrEmptyTask, "task=%q", task)
		assertInactive(t, store)
	}
	assert.Zero(t, kv.Len(), "rejected starts must not write")
}

func TestStart_FromInactive(t *testing.T) {
	store, kv, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "Write spec"))

	snap := store.Snapshot()
	assert.Equal(t, domain.SessionActive, snap.State)
	assert.Equal(t, "Write spec", snap.Task)
	require.NotNil(t, snap.ActiveSince)
	assert.Equal(t, testutil.FixedNow, *snap.ActiveSince)
	assert.Zero(t, snap.Accumulated)

	clock.Advance(time.Second)
	d1 := store.TotalDuration()
	clock.Advance(time.Second)
	d2 := store.TotalDuration()
	assert.Equal(t, time.Second, d1)
	assert.Greater(t, d2, d1, "duration grows with the clock")

	task, err := kv.Get(ctx, KeyCurrentTask)
	require.NoError(t, err)
	assert.Equal(t, "Write spec", task)
	state, err := kv.Get(ctx, KeySessionState)
	require.NoError(t, err)
	assert.Equal(t, "active", state)
	_, err = kv.Get(ctx, KeySessionStartTime)
	assert.NoError(t, err)
}

func TestStart_TrimsTask(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.Start(context.Background(), "  Deep work \n"))
	assert.Equal(t, "Deep work", store.Task())
}

func TestStart_DoesNotClobberSession(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "First"))
	clock.Advance(time.Minute)

	err := store.Start(ctx, "Second")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, "First", store.Task())
	assert.Equal(t, time.Minute, store.TotalDuration())

	require.NoError(t, store.Pause(ctx))
	err = store.Start(ctx, "Second")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.SessionPaused, store.State())
}

func TestPauseResume_DurationAccounting(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "X"))
	clock.Advance(5 * time.Second)
	require.NoError(t, store.Pause(ctx))
	assert.Equal(t, 5*time.Second, store.TotalDuration())

	clock.Advance(3 * time.Second)
	assert.Equal(t, 5*time.Second, store.TotalDuration(), "paused time is not counted")

	require.NoError(t, store.Resume(ctx))
	clock.Advance(2 * time.Second)
	assert.Equal(t, 7*time.Second, store.TotalDuration())
}

func TestPause_NoopUnlessActive(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Pause(ctx), domain.ErrInvalidTransition)
	assertInactive(t, store)

	require.NoError(t, store.Start(ctx, "X"))
	clock.Advance(4 * time.Second)
	require.NoError(t, store.Pause(ctx))
	before := store.Snapshot()

	clock.Advance(10 * time.Second)
	assert.ErrorIs(t, store.Pause(ctx), domain.ErrInvalidTransition)
	after := store.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Task, after.Task)
	assert.Equal(t, before.Accumulated, after.Accumulated)
	assert.Equal(t, 4*time.Second, after.Total)
}

func TestResume_NoopUnlessPaused(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Resume(ctx), domain.ErrInvalidTransition)
	assertInactive(t, store)

	require.NoError(t, store.Start(ctx, "X"))
	clock.Advance(3 * time.Second)
	assert.ErrorIs(t, store.Resume(ctx), domain.ErrInvalidTransition)

	snap := store.Snapshot()
	require.NotNil(t, snap.ActiveSince)
	assert.Equal(t, testutil.FixedNow, *snap.ActiveSince, "resume must not restart the active interval")
	assert.Equal(t, 3*time.Second, snap.Total)
}

func TestToggle(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Toggle(ctx), domain.ErrInvalidTransition)

	require.NoError(t, store.Start(ctx, "X"))
	clock.Advance(time.Minute)
	require.NoError(t, store.Toggle(ctx))
	assert.Equal(t, domain.SessionPaused, store.State())

	clock.Advance(time.Minute)
	require.NoError(t, store.Toggle(ctx))
	assert.Equal(t, domain.SessionActive, store.State())
	clock.Advance(time.Minute)
	assert.Equal(t, 2*time.Minute, store.TotalDuration())
}

func TestEnd_FromEveryStateAndIdempotent(t *testing.T) {
	ctx := context.Background()
	setups := map[string]func(*SessionStore){
		"inactive": func(*SessionStore) {},
		"active": func(s *SessionStore) {
			require.NoError(t, s.Start(ctx, "X"))
		},
		"paused": func(s *SessionStore) {
			require.NoError(t, s.Start(ctx, "X"))
			require.NoError(t, s.Pause(ctx))
		},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			store, kv, clock := newTestStore(t)
			setup(store)
			clock.Advance(time.Minute)

			require.NoError(t, store.End(ctx))
			assertInactive(t, store)
			assert.Zero(t, kv.Len(), "end removes every persisted key")

			require.NoError(t, store.End(ctx))
			assertInactive(t, store)
			assert.Zero(t, kv.Len())
		})
	}
}

func TestEnd_AllowsNewSession(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "First"))
	clock.Advance(time.Hour)
	require.NoError(t, store.End(ctx))
	require.NoError(t, store.Start(ctx, "Second"))

	assert.Equal(t, "Second", store.Task())
	assert.Zero(t, store.TotalDuration(), "a new session starts from zero")
}

func TestTotalDuration_BackwardClockClampsAtZero(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "X"))
	clock.Advance(-time.Hour)
	assert.Zero(t, store.TotalDuration())

	clock.Advance(2 * time.Hour)
	require.NoError(t, store.Pause(ctx))
	require.NoError(t, store.Resume(ctx))
	clock.Advance(-time.Minute)
	assert.Equal(t, time.Hour, store.TotalDuration(), "only the live interval is clamped")
}

func TestPersistenceFailure_DoesNotRollBackOrSurface(t *testing.T) {
	kv := &testutil.FailingKV{
		KeyValueRepo: repository.NewMemoryKeyValueRepo(),
		ApplyErr:     errors.New("disk full"),
	}
	obs := &recordingObserver{}
	store := NewSessionStore(kv, WithObserver(obs))
	ctx := context.Background()

	require.NoError(t, store.Start(ctx, "X"))
	assert.Equal(t, domain.SessionActive, store.State())
	require.NoError(t, store.Pause(ctx))
	assert.Equal(t, domain.SessionPaused, store.State())
	require.NoError(t, store.End(ctx))
	assert.Equal(t, domain.SessionInactive, store.State())

	require.Len(t, obs.events, 3)
	for _, ev := range obs.events {
		assert.True(t, ev.Success, ev.Name)
		assert.ErrorContains(t, ev.Err, "disk full", ev.Name)
	}
}

func TestSubscribe_NotifiesOnChangesOnly(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	var got []domain.SessionState
	unsubscribe := store.Subscribe(func(s Snapshot) {
		got = append(got, s.State)
	})

	require.NoError(t, store.End(ctx))
	assert.Empty(t, got, "ending an inactive session changes nothing")

	require.NoError(t, store.Start(ctx, "X"))
	assert.ErrorIs(t, store.Resume(ctx), domain.ErrInvalidTransition)
	clock.Advance(time.Second)
	require.NoError(t, store.Pause(ctx))
	require.NoError(t, store.End(ctx))
	assert.Equal(t, []domain.SessionState{domain.SessionActive, domain.SessionPaused, domain.SessionInactive}, got)

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Start(ctx, "Y"))
	assert.Len(t, got, 3)
}

func TestSubscribe_RegistrationOrderAndReentrancy(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	var order []string
	store.Subscribe(func(Snapshot) { order = append(order, "first") })
	store.Subscribe(func(s Snapshot) {
		order = append(order, "second")
		// Listeners run outside the lock, so reading back must not deadlock.
		assert.Equal(t, s.Task, store.Task())
	})

	require.NoError(t, store.Start(ctx, "X"))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSnapshot_IsACopy(t *testing.T) {
	store, _, _ := newTestStore(t)
	require.NoError(t, store.Start(context.Background(), "X"))

	snap := store.Snapshot()
	require.NotNil(t, snap.ActiveSince)
	*snap.ActiveSince = snap.ActiveSince.Add(-time.Hour)

	again := store.Snapshot()
	assert.Equal(t, testutil.FixedNow, *again.ActiveSince)
}

func TestRejectedTransition_IsObservedAsWarning(t *testing.T) {
	obs := &recordingObserver{}
	store, _, _ := newTestStore(t, WithObserver(obs))

	assert.Error(t, store.Pause(context.Background()))
	require.Len(t, obs.events, 1)
	ev := obs.events[0]
	assert.Equal(t, "pause-session", ev.Name)
	assert.False(t, ev.Success)
	assert.NoError(t, ev.Err)
	assert.Contains(t, ev.Fields["rejected"], "invalid session transition")
}

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, ev UseCaseEvent) {
	r.events = append(r.events, ev)
}
