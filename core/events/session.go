package events

// KindGreetingDue identifies the moment the session greeting should play.
const KindGreetingDue Kind = "session.greeting_due"

// GreetingDue carries the greeting text to add and speak.
type GreetingDue struct {
	Base
	Text string
}

// NewGreetingDue creates a greeting event.
func NewGreetingDue(text string) GreetingDue {
	return GreetingDue{Base: NewBase(KindGreetingDue), Text: text}
}
