package audio

import (
	"context"
	"errors"

	"github.com/koscakluka/ema-voice/core/failures"
)

// Access is the last known microphone permission.
type Access string

const (
	AccessUnknown Access = "unknown"
	AccessGranted Access = "granted"
	AccessDenied  Access = "denied"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoDevice         = errors.New("no capture device")
	ErrDeviceBusy       = errors.New("capture device busy")
)

const (
	MessagePermissionDenied = "Microphone access denied. Please allow microphone access."
	MessageNoDevice         = "No microphone found. Please connect a microphone."
	MessageDeviceBusy       = "Microphone is already in use by another application."
	MessageAccessFailed     = "Failed to access microphone"
)

// PermissionGateway is implemented by audio backends able to probe the
// microphone. The probe must release the device before returning.
type PermissionGateway interface {
	RequestAccess(ctx context.Context) error
}

// RequestAccess probes the microphone through gateway and maps the outcome to
// an [Access] value. Any failure is returned as a capture failure with a
// message fit for display.
func RequestAccess(ctx context.Context, gateway PermissionGateway) (Access, error) {
	if gateway == nil {
		return AccessDenied, failures.Unsupported("microphone access")
	}

	if err := gateway.RequestAccess(ctx); err != nil {
		return AccessDenied, failures.Capture(accessMessage(err), err)
	}
	return AccessGranted, nil
}

func accessMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return MessagePermissionDenied
	case errors.Is(err, ErrNoDevice):
		return MessageNoDevice
	case errors.Is(err, ErrDeviceBusy):
		return MessageDeviceBusy
	}
	return MessageAccessFailed
}
