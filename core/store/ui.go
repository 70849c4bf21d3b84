package store

import (
	"fmt"
	"strings"

	"github.com/koscakluka/ema-voice/core/preferences"
)

// SetConnection moves the connection state. Transitions other than
// disconnected→connecting→connected or back to disconnected are rejected
// with [ErrInvalidTransition].
func (s *Store) SetConnection(next ConnectionState) error {
	var err error
	s.update(func(state *State) bool {
		current := state.UI.Connection
		if current == next {
			return false
		}
		if !current.CanTransition(next) {
			err = fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, next)
			return false
		}
		state.UI.Connection = next
		return true
	})
	return err
}

// SetSelectedVoice selects a voice by ID. An empty ID leaves the choice to
// voice resolution.
func (s *Store) SetSelectedVoice(voiceID string) {
	s.update(func(state *State) bool {
		state.UI.SelectedVoice = voiceID
		return true
	})
}

func (s *Store) SetUserName(name string) error {
	name = strings.TrimSpace(name)
	s.update(func(state *State) bool {
		state.UI.UserName = name
		return true
	})
	return s.persist(preferences.KeyUserName, name, name != "")
}

func (s *Store) SetOnboardingComplete(complete bool) error {
	s.update(func(state *State) bool {
		state.UI.OnboardingComplete = complete
		return true
	})
	return s.persist(preferences.KeyOnboardingComplete, preferences.True, complete)
}

func (s *Store) SetSelectedLanguage(language string) error {
	if language == "" {
		language = preferences.DefaultLanguage
	}
	s.update(func(state *State) bool {
		state.UI.SelectedLanguage = language
		return true
	})
	return s.persist(preferences.KeySelectedLanguage, language, true)
}

func (s *Store) SetGreeted(greeted bool) error {
	s.update(func(state *State) bool {
		state.UI.Greeted = greeted
		return true
	})
	return s.persist(preferences.KeyGreeted, preferences.True, greeted)
}
