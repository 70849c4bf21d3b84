package speechtotext

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/failures"
)

type recognizerStub struct {
	armErr   error
	beginErr error
	options  CaptureOptions
}

func (r *recognizerStub) Arm(opts ...CaptureOption) (Capture, error) {
	if r.armErr != nil {
		return nil, r.armErr
	}
	r.options = NewCaptureOptions(opts...)
	return &captureStub{beginErr: r.beginErr}, nil
}

type captureStub struct {
	beginErr error
	ended    bool
}

func (c *captureStub) Begin(context.Context) error { return c.beginErr }
func (c *captureStub) End() error                  { c.ended = true; return nil }
func (c *captureStub) Abort()                      {}

func TestGatewayWithoutRecognizerFailsToBegin(t *testing.T) {
	gateway := NewGateway(nil)
	if gateway.Supported() {
		t.Fatalf("expected gateway without recognizer to be unsupported")
	}

	capture, err := gateway.Arm()
	if err != nil {
		t.Fatalf("expected arming to succeed, got %v", err)
	}
	err = capture.Begin(context.Background())
	if kind := failures.KindOf(err); kind != failures.KindUnsupportedCapability {
		t.Fatalf("expected unsupported capability, got %q (%v)", kind, err)
	}
	if err := capture.End(); err != nil {
		t.Fatalf("expected ending an unsupported capture to be a no-op, got %v", err)
	}
}

func TestGatewayMapsErrorsToCaptureFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "no device", err: fmt.Errorf("open: %w", audio.ErrNoDevice), message: MessageNoMicrophone},
		{name: "denied", err: audio.ErrPermissionDenied, message: MessageMicrophoneDenied},
		{name: "other", err: errors.New("socket closed"), message: MessageRecognitionFailed},
		{name: "already classified", err: failures.Configuration("Missing key."), message: "Missing key."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture, err := NewGateway(&recognizerStub{beginErr: tt.err}).Arm()
			if err != nil {
				t.Fatalf("expected no arm error, got %v", err)
			}
			err = capture.Begin(context.Background())
			if got := failures.Message(err); got != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, got)
			}
		})
	}
}

func TestGatewayWrapsArmFailure(t *testing.T) {
	_, err := NewGateway(&recognizerStub{armErr: errors.New("unsupported sample rate")}).Arm()
	if kind := failures.KindOf(err); kind != failures.KindCapture {
		t.Fatalf("expected capture failure, got %q", kind)
	}
}

func TestCaptureOptionsDefaults(t *testing.T) {
	options := NewCaptureOptions(WithLanguage(""), WithEncodingInfo(audio.EncodingInfo{}))
	if options.Language != DefaultLanguage {
		t.Fatalf("expected default language, got %q", options.Language)
	}
	if options.EncodingInfo != audio.GetDefaultEncodingInfo() {
		t.Fatalf("expected default encoding, got %+v", options.EncodingInfo)
	}

	// No-op callbacks must be safe to call.
	options.PartialCallback(Partial{FinalText: "x"})
	options.ErrorCallback(errors.New("x"))
	options.EndCallback()
}
