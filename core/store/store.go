// Package store holds the client session state: activity flags, the chat
// transcript and UI preferences. Every mutation is applied under one lock and
// listeners are notified with a copy of the new state afterwards.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/preferences"
)

var ErrInvalidTransition = errors.New("invalid connection transition")

type Store struct {
	state State
	prefs preferences.Store

	listeners      map[int]func(State)
	nextListenerID int

	now   func() time.Time
	newID func() string

	mu sync.Mutex
	// notifyMu keeps listener calls in mutation order.
	notifyMu sync.Mutex
}

type Option func(*Store)

// WithClock replaces the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a store with UI preferences loaded from prefs. A nil prefs keeps
// preferences in memory only.
func New(prefs preferences.Store, opts ...Option) *Store {
	if prefs == nil {
		prefs = preferences.NewMemory()
	}

	s := &Store{
		prefs:     prefs,
		listeners: map[int]func(State){},
		now:       time.Now,
		newID:     newEntryID,
	}
	for _, opt := range opts {
		opt(s)
	}

	userName, _ := prefs.Get(preferences.KeyUserName)
	s.state = State{
		Activity: ActivityState{MicrophoneAccess: audio.AccessUnknown},
		UI: UIState{
			Connection:         ConnectionDisconnected,
			SelectedLanguage:   preferences.Language(prefs),
			UserName:           userName,
			OnboardingComplete: preferences.Flag(prefs, preferences.KeyOnboardingComplete),
			Greeted:            preferences.Flag(prefs, preferences.KeyGreeted),
		},
	}
	return s
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Snapshot returns a copy of the current state that shares nothing with the
// store.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	snapshot := s.state
	snapshot.Chat.Messages = nil
	if err := copier.Copy(&snapshot.Chat.Messages, s.state.Chat.Messages); err != nil {
		logger.Error("failed to copy transcript", "error", err)
		snapshot.Chat.Messages = slices.Clone(s.state.Chat.Messages)
	}
	return snapshot
}

// Subscribe registers listener for state changes and returns a function that
// removes it.
func (s *Store) Subscribe(listener func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// update applies mutate under the lock and notifies listeners when it reports
// a change.
func (s *Store) update(mutate func(state *State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !mutate(&s.state) {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

func (s *Store) persist(key, value string, set bool) error {
	var err error
	if set {
		err = s.prefs.Set(key, value)
	} else {
		err = s.prefs.Delete(key)
	}
	if err != nil {
		logger.Warn("failed to persist preference", "key", key, "error", err)
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}
