package llms

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Label is the speaker prefix used when history is rendered into a prompt.
func (r MessageRole) Label() string {
	if r == MessageRoleUser {
		return "User"
	}
	return "Assistant"
}

type Message struct {
	Role    MessageRole
	Content string
}

// Delivery is one notification of a response being delivered. Partial
// deliveries carry the new Delta and the accumulated Text so far. The final
// delivery carries the full response in Text and has IsFinal set.
type Delivery struct {
	Delta   string
	Text    string
	IsFinal bool
}

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)
