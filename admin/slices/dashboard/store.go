package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	l "github.com/oexza/adminfront/logging"
)

var (
	ErrUnknownTab   = errors.New("unknown or expired dashboard tab")
	ErrBusy         = errors.New("another request is in progress")
	ErrUserNotFound = errors.New("user not found")
	ErrWrongDialog  = errors.New("dialog is not open")
)

// Store keeps the dashboard state of every open tab. Entries idle for longer
// than the ttl are dropped by Sweep.
type Store struct {
	mu     sync.Mutex
	states map[string]*State
	ttl    time.Duration
	now    func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		states: map[string]*State{},
		ttl:    ttl,
		now:    time.Now,
	}
}

// Put stores a fresh state under a new tab id.
func (s *Store) Put(state State) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	tab := id.String()

	fresh := state.clone()
	fresh.Submitting = false

	s.mu.Lock()
	defer s.mu.Unlock()
	fresh.lastSeen = s.now()
	s.states[tab] = &fresh
	return tab, nil
}

func (s *Store) Get(tab string) (State, error) {
	return s.Update(tab, func(*State) error { return nil })
}

// Update runs fn on the tab's state under the store lock and returns a copy of
// the result. The state is left untouched when fn fails.
func (s *Store) Update(tab string, fn func(*State) error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[tab]
	if !ok {
		return State{}, ErrUnknownTab
	}
	state.lastSeen = s.now()

	working := state.clone()
	if err := fn(&working); err != nil {
		return state.clone(), err
	}
	working.lastSeen = state.lastSeen
	*state = working
	return state.clone(), nil
}

// BeginSubmit marks the tab as submitting once check has passed. A tab that
// is already submitting fails with ErrBusy.
func (s *Store) BeginSubmit(tab string, check func(*State) error) (State, error) {
	return s.Update(tab, func(state *State) error {
		if state.Submitting {
			return ErrBusy
		}
		if err := check(state); err != nil {
			return err
		}
		state.Submitting = true
		return nil
	})
}

// FinishSubmit clears the submitting flag and applies the outcome of the
// request.
func (s *Store) FinishSubmit(tab string, apply func(*State)) (State, error) {
	return s.Update(tab, func(state *State) error {
		state.Submitting = false
		apply(state)
		return nil
	})
}

// Sweep drops idle tabs and reports how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for tab, state := range s.states {
		if state.lastSeen.Before(cutoff) {
			delete(s.states, tab)
			evicted++
		}
	}
	return evicted
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, logger l.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("Dashboard state sweeper stopped")
			return nil
		case <-ticker.C:
			if evicted := s.Sweep(); evicted > 0 {
				logger.Debugf("Evicted %d idle dashboard tabs", evicted)
			}
		}
	}
}
