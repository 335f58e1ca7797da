package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	globalCommon "github.com/oexza/adminfront/common"
	l "github.com/oexza/adminfront/logging"
)

var (
	alice = globalCommon.User{ID: "1", Name: "Alice", Email: "alice@example.com"}
	bob   = globalCommon.User{ID: "2", Name: "Bob", Email: "bob@example.com"}
)

func TestStore_PutAndGet(t *testing.T) {
	store := NewStore(time.Minute)

	users := []globalCommon.User{alice, bob}
	tab, err := store.Put(State{Users: users, Submitting: true})
	require.NoError(t, err)
	require.NotEmpty(t, tab)

	users[0].Name = "changed by caller"

	state, err := store.Get(tab)
	require.NoError(t, err)
	assert.Equal(t, []globalCommon.User{alice, bob}, state.Users)
	assert.Equal(t, Closed{}, state.Dialog)
	assert.False(t, state.Submitting)

	other, err := store.Put(State{})
	require.NoError(t, err)
	assert.NotEqual(t, tab, other)
	assert.Equal(t, 2, store.Len())
}

func TestStore_UnknownTab(t *testing.T) {
	store := NewStore(time.Minute)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTab)

	_, err = store.BeginSubmit("missing", func(*State) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestStore_UpdateFailureLeavesStateUntouched(t *testing.T) {
	store := NewStore(time.Minute)
	tab, err := store.Put(State{Users: []globalCommon.User{alice}})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(tab, func(state *State) error {
		state.RemoveUser(alice.ID)
		state.Dialog = Creating{}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := store.Get(tab)
	require.NoError(t, err)
	assert.Equal(t, []globalCommon.User{alice}, state.Users)
	assert.Equal(t, Closed{}, state.Dialog)
}

func TestStore_SingleFlight(t *testing.T) {
	store := NewStore(time.Minute)
	tab, err := store.Put(State{Users: []globalCommon.User{alice}})
	require.NoError(t, err)

	state, err := store.BeginSubmit(tab, func(*State) error { return nil })
	require.NoError(t, err)
	assert.True(t, state.Submitting)

	_, err = store.BeginSubmit(tab, func(*State) error {
		t.Fatal("check must not run while a request is in flight")
		return nil
	})
	assert.ErrorIs(t, err, ErrBusy)

	state, err = store.FinishSubmit(tab, func(state *State) { state.RemoveUser(alice.ID) })
	require.NoError(t, err)
	assert.False(t, state.Submitting)
	assert.Empty(t, state.Users)

	_, err = store.BeginSubmit(tab, func(*State) error { return nil })
	assert.NoError(t, err)
}

func TestStore_ConcurrentSubmitsAdmitOne(t *testing.T) {
	store := NewStore(time.Minute)
	tab, err := store.Put(State{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.BeginSubmit(tab, func(*State) error { return nil }); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
}

func TestStore_Sweep(t *testing.T) {
	store := NewStore(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle, err := store.Put(State{})
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	active, err := store.Put(State{})
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = store.Get(active)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Sweep())

	_, err = store.Get(idle)
	assert.ErrorIs(t, err, ErrUnknownTab)
	_, err = store.Get(active)
	assert.NoError(t, err)
}

func TestStore_RunSweeperStopsOnCancel(t *testing.T) {
	store := NewStore(time.Nanosecond)
	_, err := store.Put(State{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.RunSweeper(ctx, time.Millisecond, l.NopLogger()) }()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestState_ReplaceAndRemove(t *testing.T) {
	state := State{Users: []globalCommon.User{alice, bob}}

	renamed := globalCommon.User{ID: "2", Name: "Robert", Email: "robert@example.com"}
	assert.True(t, state.ReplaceUser(renamed))
	assert.Equal(t, []globalCommon.User{alice, renamed}, state.Users)
	assert.False(t, state.ReplaceUser(globalCommon.User{ID: "9"}))

	assert.True(t, state.RemoveUser("1"))
	assert.Equal(t, []globalCommon.User{renamed}, state.Users)
	assert.False(t, state.RemoveUser("1"))

	user, ok := state.FindUser("2")
	assert.True(t, ok)
	assert.Equal(t, renamed, user)
	_, ok = state.FindUser("1")
	assert.False(t, ok)
}
