package events

const (
	// KindCaptureRequested identifies a request to begin speech capture.
	KindCaptureRequested Kind = "capture.requested"
	// KindCaptureStopRequested identifies a request to end speech capture.
	KindCaptureStopRequested Kind = "capture.stop_requested"
	// KindCapturePartial identifies recognition progress.
	KindCapturePartial Kind = "capture.partial"
	// KindCaptureFailed identifies a recognizer error.
	KindCaptureFailed Kind = "capture.failed"
	// KindCaptureEnded identifies the end of a capture attempt.
	KindCaptureEnded Kind = "capture.ended"
)

// CaptureRequested asks the orchestrator to start listening.
type CaptureRequested struct{ Base }

// NewCaptureRequested creates a capture request event.
func NewCaptureRequested() CaptureRequested {
	return CaptureRequested{Base: NewBase(KindCaptureRequested)}
}

// CaptureStopRequested asks the orchestrator to stop listening gracefully.
type CaptureStopRequested struct{ Base }

// NewCaptureStopRequested creates a capture stop request event.
func NewCaptureStopRequested() CaptureStopRequested {
	return CaptureStopRequested{Base: NewBase(KindCaptureStopRequested)}
}

// CapturePartial carries recognition progress. Interim is display only,
// Final is appended to the attempt buffer.
type CapturePartial struct {
	Base
	Attempt uint64
	Interim string
	Final   string
}

// NewCapturePartial creates a capture progress event.
func NewCapturePartial(attempt uint64, interim, final string) CapturePartial {
	return CapturePartial{Base: NewBase(KindCapturePartial), Attempt: attempt, Interim: interim, Final: final}
}

// CaptureFailed carries a recognizer error.
type CaptureFailed struct {
	Base
	Attempt uint64
	Err     error
}

// NewCaptureFailed creates a capture failure event.
func NewCaptureFailed(attempt uint64, err error) CaptureFailed {
	return CaptureFailed{Base: NewBase(KindCaptureFailed), Attempt: attempt, Err: err}
}

// CaptureEnded marks the end of a capture attempt.
type CaptureEnded struct {
	Base
	Attempt uint64
}

// NewCaptureEnded creates a capture end event.
func NewCaptureEnded(attempt uint64) CaptureEnded {
	return CaptureEnded{Base: NewBase(KindCaptureEnded), Attempt: attempt}
}
