package events

const (
	// KindPlaybackCancelRequested identifies a request to stop speaking.
	KindPlaybackCancelRequested Kind = "playback.cancel_requested"
	// KindPlaybackStarted identifies the start of an utterance.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the end of an utterance.
	KindPlaybackEnded Kind = "playback.ended"
	// KindPlaybackFailed identifies an utterance that could not be spoken.
	KindPlaybackFailed Kind = "playback.failed"
)

// PlaybackCancelRequested asks the orchestrator to silence playback.
type PlaybackCancelRequested struct{ Base }

// NewPlaybackCancelRequested creates a playback cancel request event.
func NewPlaybackCancelRequested() PlaybackCancelRequested {
	return PlaybackCancelRequested{Base: NewBase(KindPlaybackCancelRequested)}
}

// PlaybackStarted marks an utterance becoming audible.
type PlaybackStarted struct {
	Base
	Utterance uint64
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(utterance uint64) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Utterance: utterance}
}

// PlaybackEnded marks the end of an utterance, natural or cancelled.
type PlaybackEnded struct {
	Base
	Utterance uint64
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(utterance uint64) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Utterance: utterance}
}

// PlaybackFailed carries the reason an utterance could not be spoken.
type PlaybackFailed struct {
	Base
	Utterance uint64
	Err       error
}

// NewPlaybackFailed creates a playback failure event.
func NewPlaybackFailed(utterance uint64, err error) PlaybackFailed {
	return PlaybackFailed{Base: NewBase(KindPlaybackFailed), Utterance: utterance, Err: err}
}
