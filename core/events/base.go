package events

import (
	"strings"
	"time"
)

// Kind names an event as "<namespace>.<action>", for example
// "capture.partial".
type Kind string

func (k Kind) Namespace() string {
	namespace, _, _ := strings.Cut(string(k), ".")
	return namespace
}

func (k Kind) String() string { return string(k) }

// Event is anything the orchestrator loop dispatches.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base is embedded by every event. Build it with NewBase so the timestamp
// is the creation time.
type Base struct {
	kind Kind
	at   time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, at: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.at }
