package events

const (
	// KindTurnStateChanged identifies a turn state transition.
	KindTurnStateChanged Kind = "turn_state.changed"
	// KindTurnRejected identifies a request refused in the current state.
	KindTurnRejected Kind = "turn_state.rejected"
)

// TurnStateChanged reports a transition of the turn state machine.
type TurnStateChanged struct {
	Base
	From string
	To   string
}

// NewTurnStateChanged creates a turn state transition event.
func NewTurnStateChanged(from, to string) TurnStateChanged {
	return TurnStateChanged{Base: NewBase(KindTurnStateChanged), From: from, To: to}
}

// TurnRejected reports a request that was dropped without side effects.
type TurnRejected struct {
	Base
	Request Kind
	Reason  error
}

// NewTurnRejected creates a turn rejection event.
func NewTurnRejected(request Kind, reason error) TurnRejected {
	return TurnRejected{Base: NewBase(KindTurnRejected), Request: request, Reason: reason}
}
