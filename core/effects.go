package orchestration

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

// runtimeEffects runs the side effects of the turn machine in their own
// goroutines. Results are reported back through the event loop, tagged with
// the attempt, turn or utterance they belong to.
type runtimeEffects struct {
	ctx  func() context.Context
	loop *eventLoop

	recognizer speechtotext.Recognizer
	inference  InferenceGateway
	playback   PlaybackGateway

	capture   captureSlot
	captureMu sync.Mutex

	// inflightTurn tags deliveries with the turn being submitted. A turn only
	// starts after the previous one delivered its final text or failed, so
	// deliveries never straddle two turns.
	inflightTurn atomic.Uint64
	turnCancel   context.CancelFunc
	turnMu       sync.Mutex

	// activeUtterance is zeroed on cancel so a Speak call still in progress
	// cancels what it started.
	activeUtterance uint64
	playbackMu      sync.Mutex

	wg sync.WaitGroup
}

type captureSlot struct {
	attempt      uint64
	capture      speechtotext.Capture
	endRequested bool
}

func (e *runtimeEffects) goEffect(f func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		f()
	}()
}

func (e *runtimeEffects) beginCapture(attempt uint64, language string) {
	e.captureMu.Lock()
	e.capture = captureSlot{attempt: attempt}
	e.captureMu.Unlock()

	e.goEffect(func() {
		fail := func(err error) {
			e.loop.enqueue(events.NewCaptureFailed(attempt, err))
			e.loop.enqueue(events.NewCaptureEnded(attempt))
		}

		if e.recognizer == nil {
			fail(errRecognizerMissing)
			return
		}
		capture, err := e.recognizer.Arm(
			speechtotext.WithPartialCallback(func(p speechtotext.Partial) {
				e.loop.enqueue(events.NewCapturePartial(attempt, p.InterimText, p.FinalText))
			}),
			speechtotext.WithErrorCallback(func(err error) {
				e.loop.enqueue(events.NewCaptureFailed(attempt, err))
			}),
			speechtotext.WithEndCallback(func() {
				e.loop.enqueue(events.NewCaptureEnded(attempt))
			}),
			speechtotext.WithLanguage(language),
		)
		if err != nil {
			fail(err)
			return
		}

		if err := capture.Begin(e.ctx()); err != nil {
			fail(err)
			return
		}

		e.captureMu.Lock()
		if e.capture.attempt != attempt {
			e.captureMu.Unlock()
			capture.Abort()
			return
		}
		e.capture.capture = capture
		endRequested := e.capture.endRequested
		e.captureMu.Unlock()

		if endRequested {
			e.stopCapture(capture)
		}
	})
}

func (e *runtimeEffects) endCapture(attempt uint64) {
	e.captureMu.Lock()
	if e.capture.attempt != attempt {
		e.captureMu.Unlock()
		return
	}
	capture := e.capture.capture
	e.capture.endRequested = true
	e.captureMu.Unlock()

	if capture != nil {
		e.goEffect(func() { e.stopCapture(capture) })
	}
}

func (e *runtimeEffects) stopCapture(capture speechtotext.Capture) {
	if err := capture.End(); err != nil {
		logger.Warn("failed to end capture", "error", err)
	}
}

func (e *runtimeEffects) abortCapture() {
	e.captureMu.Lock()
	capture := e.capture.capture
	e.capture = captureSlot{}
	e.captureMu.Unlock()

	if capture != nil {
		capture.Abort()
	}
}

func (e *runtimeEffects) submit(turn uint64, text string) {
	ctx, cancel := context.WithCancel(e.ctx())
	e.turnMu.Lock()
	if e.turnCancel != nil {
		e.turnCancel()
	}
	e.turnCancel = cancel
	e.turnMu.Unlock()
	e.inflightTurn.Store(turn)

	e.goEffect(func() {
		defer cancel()
		if e.inference == nil {
			e.loop.enqueue(events.NewInferenceFailed(turn, errInferenceMissing))
			return
		}
		if _, err := e.inference.Submit(ctx, text); err != nil {
			e.loop.enqueue(events.NewInferenceFailed(turn, err))
		}
	})
}

// deliver is the inference delivery callback.
func (e *runtimeEffects) deliver(delta, text string, isFinal bool) {
	e.loop.enqueue(events.NewDeliveryReceived(e.inflightTurn.Load(), delta, text, isFinal))
}

// dropDelivery cancels the submission in flight. Pacing stops and nothing
// further is delivered for it.
func (e *runtimeEffects) dropDelivery() {
	e.turnMu.Lock()
	defer e.turnMu.Unlock()
	if e.turnCancel != nil {
		e.turnCancel()
		e.turnCancel = nil
	}
}

func (e *runtimeEffects) speak(utterance uint64, text, voiceID, language string) {
	e.playbackMu.Lock()
	e.activeUtterance = utterance
	e.playbackMu.Unlock()

	e.goEffect(func() {
		if e.playback == nil {
			e.loop.enqueue(events.NewPlaybackFailed(utterance, errPlaybackMissing))
			return
		}
		spoken, err := e.playback.Speak(e.ctx(), text,
			func() { e.loop.enqueue(events.NewPlaybackStarted(utterance)) },
			func() { e.loop.enqueue(events.NewPlaybackEnded(utterance)) },
			voiceID,
			texttospeech.WithLanguage(language),
			texttospeech.WithErrorCallback(func(err error) {
				e.loop.enqueue(events.NewPlaybackFailed(utterance, err))
			}),
		)
		if err != nil {
			e.loop.enqueue(events.NewPlaybackFailed(utterance, err))
			return
		}

		e.playbackMu.Lock()
		stale := e.activeUtterance != utterance
		e.playbackMu.Unlock()
		if stale {
			spoken.Cancel()
		}
	})
}

func (e *runtimeEffects) cancelPlayback() {
	e.playbackMu.Lock()
	e.activeUtterance = 0
	e.playbackMu.Unlock()

	if e.playback != nil {
		e.playback.CancelAll()
	}
}

// wait blocks until every effect goroutine has returned.
func (e *runtimeEffects) wait() {
	e.wg.Wait()
}
