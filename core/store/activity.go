package store

import "github.com/koscakluka/ema-voice/core/audio"

func (s *Store) SetListening(listening bool) {
	s.update(func(state *State) bool {
		state.Activity.Listening = listening
		if !listening {
			state.Activity.Interim = ""
		}
		return true
	})
}

func (s *Store) SetSpeaking(speaking bool) {
	s.update(func(state *State) bool {
		state.Activity.Speaking = speaking
		return true
	})
}

func (s *Store) SetProcessing(processing bool) {
	s.update(func(state *State) bool {
		state.Activity.Processing = processing
		return true
	})
}

// SetInterim shows unfinalized recognizer text. It is never part of the
// transcript.
func (s *Store) SetInterim(text string) {
	s.update(func(state *State) bool {
		if state.Activity.Interim == text {
			return false
		}
		state.Activity.Interim = text
		return true
	})
}

func (s *Store) SetMicrophoneAccess(access audio.Access) {
	s.update(func(state *State) bool {
		state.Activity.MicrophoneAccess = access
		return true
	})
}

func (s *Store) SetActivityError(message string) {
	s.update(func(state *State) bool {
		state.Activity.LastError = message
		return true
	})
}

func (s *Store) ClearActivityError() {
	s.update(func(state *State) bool {
		if state.Activity.LastError == "" {
			return false
		}
		state.Activity.LastError = ""
		return true
	})
}

// ResetActivity returns activity flags to idle and the connection to
// disconnected. Microphone access and the transcript are kept.
func (s *Store) ResetActivity() {
	s.update(func(state *State) bool {
		access := state.Activity.MicrophoneAccess
		state.Activity = ActivityState{MicrophoneAccess: access}
		state.Chat.Loading = false
		state.UI.Connection = ConnectionDisconnected
		return true
	})
}
