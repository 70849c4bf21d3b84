// Package speechtotext turns microphone audio into text. A [Recognizer] arms
// one [Capture] per attempt. While a capture runs, partial results arrive
// through the partial callback, an error may be reported, and the end
// callback fires exactly once when the capture is over.
package speechtotext

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/failures"
)

const (
	MessageRecognitionFailed = "Speech recognition error"
	MessageNoMicrophone      = "No microphone found"
	MessageMicrophoneDenied  = "Microphone access denied"
)

// Partial is one recognition result. FinalText is only set for text the
// recognizer will not revise.
type Partial struct {
	InterimText string
	FinalText   string
}

type Recognizer interface {
	Arm(opts ...CaptureOption) (Capture, error)
}

type Capture interface {
	// Begin starts the attempt.
	Begin(ctx context.Context) error
	// End asks for a graceful stop. Remaining results and the end callback
	// follow asynchronously within a bounded delay.
	End() error
	// Abort stops the attempt without delivering any further callbacks.
	Abort()
}

// AudioSource is the microphone side of a recognizer.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// Gateway fronts an optional recognizer. Without one every capture fails to
// begin with an unsupported capability failure.
type Gateway struct {
	recognizer Recognizer
}

func NewGateway(recognizer Recognizer) *Gateway {
	return &Gateway{recognizer: recognizer}
}

func (g *Gateway) Supported() bool {
	return g != nil && g.recognizer != nil
}

func (g *Gateway) Arm(opts ...CaptureOption) (Capture, error) {
	if !g.Supported() {
		return unsupportedCapture{}, nil
	}

	capture, err := g.recognizer.Arm(opts...)
	if err != nil {
		return nil, asCaptureFailure(err)
	}
	return gatewayCapture{capture}, nil
}

type gatewayCapture struct {
	Capture
}

func (c gatewayCapture) Begin(ctx context.Context) error {
	if err := c.Capture.Begin(ctx); err != nil {
		return asCaptureFailure(err)
	}
	return nil
}

func asCaptureFailure(err error) error {
	var failure *failures.Error
	if errors.As(err, &failure) {
		return err
	}
	message := MessageRecognitionFailed
	switch {
	case errors.Is(err, audio.ErrNoDevice):
		message = MessageNoMicrophone
	case errors.Is(err, audio.ErrPermissionDenied):
		message = MessageMicrophoneDenied
	}
	return failures.Capture(message, err)
}

type unsupportedCapture struct{}

func (unsupportedCapture) Begin(context.Context) error {
	return failures.Unsupported("speech recognition")
}

func (unsupportedCapture) End() error { return nil }
func (unsupportedCapture) Abort()     {}
