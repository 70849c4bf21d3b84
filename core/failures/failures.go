// Package failures defines the closed set of error kinds surfaced to the user
// and the classifier that turns raw backend errors into a single readable
// message.
package failures

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindUnsupportedCapability means the host lacks speech recognition or
	// speech synthesis.
	KindUnsupportedCapability Kind = "unsupported_capability"
	// KindConfiguration means a credential or setting is missing.
	KindConfiguration Kind = "configuration"
	// KindCapture covers recognition errors and microphone access failures.
	KindCapture Kind = "capture"
	// KindInference covers any failure of the remote generative call.
	KindInference Kind = "inference"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindUnsupportedCapability, KindConfiguration, KindCapture, KindInference:
		return true
	}
	return false
}

// Error is the only error shape that crosses a gateway boundary. Message is
// already fit for display.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Unsupported reports a missing host capability such as "speech recognition".
func Unsupported(capability string) *Error {
	return &Error{
		Kind:    KindUnsupportedCapability,
		Message: fmt.Sprintf("%s is not supported on this device", capability),
	}
}

func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func Capture(message string, err error) *Error {
	return &Error{Kind: KindCapture, Message: message, Err: err}
}

// Inference classifies err right away so the stored message never depends on
// the backend's wording.
func Inference(err error) *Error {
	return &Error{Kind: KindInference, Message: Classify(err), Err: err}
}

// KindOf returns the kind of the first [Error] in err's chain, or "" when
// there is none.
func KindOf(err error) Kind {
	var failure *Error
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}

// Message returns the user facing text for err. Errors that never went through
// a gateway are classified on the spot.
func Message(err error) string {
	var failure *Error
	if errors.As(err, &failure) && failure.Message != "" {
		return failure.Message
	}
	return Classify(err)
}
