package llms

import (
	"strings"
	"sync"
)

const (
	// DefaultHistoryLimit bounds how many messages a session keeps.
	DefaultHistoryLimit = 20
	// PromptContextMessages is how many of the latest messages are rendered
	// into each prompt.
	PromptContextMessages = 4
)

// Session is the conversational context of one connection. It is created on
// connect and dropped on disconnect.
type Session struct {
	limit   int
	history []Message
	mu      sync.Mutex
}

func NewSession(limit int) *Session {
	if limit < PromptContextMessages {
		limit = PromptContextMessages
	}
	return &Session{limit: limit}
}

// Prompt renders text together with the latest history. Without history the
// prompt is the text itself.
func (s *Session) Prompt(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return text
	}

	recent := s.history[max(0, len(s.history)-PromptContextMessages):]
	lines := make([]string, 0, len(recent))
	for _, message := range recent {
		lines = append(lines, message.Role.Label()+": "+message.Content)
	}

	return strings.Join(lines, "\n") + "\nUser: " + text + "\nAssistant:"
}

// Record appends a completed exchange, trimming the oldest messages past the
// limit.
func (s *Session) Record(prompt, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Message{Role: MessageRoleUser, Content: prompt},
		Message{Role: MessageRoleAssistant, Content: response},
	)
	if overflow := len(s.history) - s.limit; overflow > 0 {
		s.history = append([]Message(nil), s.history[overflow:]...)
	}
}

func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
