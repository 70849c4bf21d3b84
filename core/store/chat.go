package store

// AddMessage appends an entry and returns it. A streaming assistant message
// added while the last entry is a streaming assistant entry replaces that
// entry's content instead. Any other entry added after a streaming one seals
// it and marks it interrupted.
func (s *Store) AddMessage(role Role, content string, streaming bool) TranscriptEntry {
	var added TranscriptEntry
	s.update(func(state *State) bool {
		now := s.now()
		messages := state.Chat.Messages

		if n := len(messages); n > 0 && messages[n-1].IsStreaming {
			last := &messages[n-1]
			if streaming && role == RoleAssistant && last.Role == RoleAssistant {
				last.Content = content
				last.CreatedAt = now
				added = *last
				return true
			}
			last.IsStreaming = false
			last.Interrupted = true
		}

		added = TranscriptEntry{
			ID:          s.newID(),
			Role:        role,
			Content:     content,
			CreatedAt:   now,
			IsStreaming: streaming,
		}
		state.Chat.Messages = append(messages, added)
		return true
	})
	return added
}

// UpdateLastMessage sets the content of the trailing streaming assistant
// entry and seals it unless streaming is set. It reports false, changing
// nothing, when there is no such entry.
func (s *Store) UpdateLastMessage(content string, streaming bool) bool {
	updated := false
	s.update(func(state *State) bool {
		n := len(state.Chat.Messages)
		if n == 0 {
			return false
		}
		last := &state.Chat.Messages[n-1]
		if last.Role != RoleAssistant || !last.IsStreaming {
			return false
		}
		last.Content = content
		last.IsStreaming = streaming
		updated = true
		return true
	})
	return updated
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(state *State) bool {
		state.Chat.Loading = loading
		return true
	})
}

func (s *Store) SetChatError(message string) {
	s.update(func(state *State) bool {
		state.Chat.Error = message
		return true
	})
}

func (s *Store) ClearChatError() {
	s.update(func(state *State) bool {
		if state.Chat.Error == "" {
			return false
		}
		state.Chat.Error = ""
		return true
	})
}

func (s *Store) ClearChat() {
	s.update(func(state *State) bool {
		state.Chat.Messages = nil
		return true
	})
}
