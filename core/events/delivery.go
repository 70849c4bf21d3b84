package events

const (
	KindDeliveryReceived Kind = "delivery.received"
	KindInferenceFailed  Kind = "delivery.failed"
)

// DeliveryReceived carries one inference notification for a turn. Text is the
// accumulated response so far, or the full response when IsFinal is set.
type DeliveryReceived struct {
	Base
	Turn    uint64
	Delta   string
	Text    string
	IsFinal bool
}

func NewDeliveryReceived(turn uint64, delta, text string, isFinal bool) DeliveryReceived {
	return DeliveryReceived{
		Base:    NewBase(KindDeliveryReceived),
		Turn:    turn,
		Delta:   delta,
		Text:    text,
		IsFinal: isFinal,
	}
}

type InferenceFailed struct {
	Base
	Turn uint64
	Err  error
}

func NewInferenceFailed(turn uint64, err error) InferenceFailed {
	return InferenceFailed{Base: NewBase(KindInferenceFailed), Turn: turn, Err: err}
}
