package events

// KindUserTextSubmitted identifies a typed user message.
const KindUserTextSubmitted Kind = "user_input.text_submitted"

// UserTextSubmitted carries a typed user message.
type UserTextSubmitted struct {
	Base
	Text string
}

// NewUserTextSubmitted creates a typed user message event.
func NewUserTextSubmitted(text string) UserTextSubmitted {
	return UserTextSubmitted{Base: NewBase(KindUserTextSubmitted), Text: text}
}
