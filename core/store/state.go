package store

import (
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one message in the chat transcript. Only the last entry
// may change after it is added, and only while IsStreaming is set.
type TranscriptEntry struct {
	ID          string
	Role        Role
	Content     string
	CreatedAt   time.Time
	IsStreaming bool
	// Interrupted marks an entry that was still streaming when a later entry
	// was added.
	Interrupted bool
}

type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)

// CanTransition reports whether a connection may move from c to next. The
// only accepted moves are disconnected→connecting→connected and any state
// back to disconnected.
func (c ConnectionState) CanTransition(next ConnectionState) bool {
	switch next {
	case ConnectionDisconnected:
		return true
	case ConnectionConnecting:
		return c == ConnectionDisconnected
	case ConnectionConnected:
		return c == ConnectionConnecting
	}
	return false
}

type ActivityState struct {
	Listening        bool
	Speaking         bool
	Processing       bool
	Interim          string
	MicrophoneAccess audio.Access
	LastError        string
}

type ChatState struct {
	Messages []TranscriptEntry
	Loading  bool
	Error    string
}

type UIState struct {
	Connection         ConnectionState
	SelectedVoice      string
	SelectedLanguage   string
	UserName           string
	OnboardingComplete bool
	Greeted            bool
}

type State struct {
	Activity ActivityState
	Chat     ChatState
	UI       UIState
}

// LastMessage returns the trailing transcript entry, if any.
func (s State) LastMessage() (TranscriptEntry, bool) {
	if len(s.Chat.Messages) == 0 {
		return TranscriptEntry{}, false
	}
	return s.Chat.Messages[len(s.Chat.Messages)-1], true
}
