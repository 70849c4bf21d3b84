package speechtotext

import "github.com/koscakluka/ema-voice/core/audio"

const DefaultLanguage = "en-US"

type CaptureOptions struct {
	PartialCallback func(Partial)
	ErrorCallback   func(error)
	EndCallback     func()

	EncodingInfo audio.EncodingInfo
	Language     string
}

type CaptureOption func(*CaptureOptions)

// NewCaptureOptions applies opts over no-op callbacks, the default encoding
// and [DefaultLanguage].
func NewCaptureOptions(opts ...CaptureOption) CaptureOptions {
	options := CaptureOptions{
		PartialCallback: func(Partial) {},
		ErrorCallback:   func(error) {},
		EndCallback:     func() {},
		EncodingInfo:    audio.GetDefaultEncodingInfo(),
		Language:        DefaultLanguage,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithPartialCallback(callback func(Partial)) CaptureOption {
	return func(o *CaptureOptions) {
		if callback != nil {
			o.PartialCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) CaptureOption {
	return func(o *CaptureOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

// WithEndCallback sets the terminal callback. It fires once per capture.
func WithEndCallback(callback func()) CaptureOption {
	return func(o *CaptureOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) CaptureOption {
	return func(o *CaptureOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}

func WithLanguage(language string) CaptureOption {
	return func(o *CaptureOptions) {
		if language != "" {
			o.Language = language
		}
	}
}
