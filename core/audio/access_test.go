package audio

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/koscakluka/ema-voice/core/failures"
)

type permissionGatewayStub struct {
	err error
}

func (s permissionGatewayStub) RequestAccess(context.Context) error { return s.err }

func TestRequestAccessMapsDeviceErrors(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "denied", err: fmt.Errorf("open: %w", ErrPermissionDenied), expected: MessagePermissionDenied},
		{name: "no device", err: ErrNoDevice, expected: MessageNoDevice},
		{name: "busy", err: fmt.Errorf("start: %w", ErrDeviceBusy), expected: MessageDeviceBusy},
		{name: "other", err: errors.New("boom"), expected: MessageAccessFailed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			access, err := RequestAccess(context.Background(), permissionGatewayStub{err: testCase.err})
			if access != AccessDenied {
				t.Fatalf("expected denied access, got %q", access)
			}
			if failures.KindOf(err) != failures.KindCapture {
				t.Fatalf("expected capture failure, got %v", err)
			}
			if got := failures.Message(err); got != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestRequestAccessGranted(t *testing.T) {
	access, err := RequestAccess(context.Background(), permissionGatewayStub{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if access != AccessGranted {
		t.Fatalf("expected granted access, got %q", access)
	}
}

func TestRequestAccessWithoutGatewayIsUnsupported(t *testing.T) {
	_, err := RequestAccess(context.Background(), nil)
	if failures.KindOf(err) != failures.KindUnsupportedCapability {
		t.Fatalf("expected unsupported capability, got %v", err)
	}
}
