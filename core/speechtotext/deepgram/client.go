package deepgram

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

const (
	listenURL = "wss://api.deepgram.com/v1/listen"

	DefaultModel = "nova-3"
	// DefaultEndGrace bounds how long a capture waits for the socket to close
	// after End before reporting the end itself.
	DefaultEndGrace = 300 * time.Millisecond
)

// TranscriptionClient arms live transcription captures against the Deepgram
// listen endpoint, fed from an audio source.
type TranscriptionClient struct {
	apiKey   string
	source   speechtotext.AudioSource
	url      string
	model    string
	endGrace time.Duration
	dialer   *websocket.Dialer
}

type TranscriptionClientOption func(*TranscriptionClient)

func WithModel(model string) TranscriptionClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithURL points the client at a different listen endpoint.
func WithURL(url string) TranscriptionClientOption {
	return func(c *TranscriptionClient) {
		if url != "" {
			c.url = url
		}
	}
}

func WithEndGrace(grace time.Duration) TranscriptionClientOption {
	return func(c *TranscriptionClient) {
		if grace > 0 {
			c.endGrace = grace
		}
	}
}

func WithDialer(dialer *websocket.Dialer) TranscriptionClientOption {
	return func(c *TranscriptionClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func NewTranscriptionClient(apiKey string, source speechtotext.AudioSource, opts ...TranscriptionClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		apiKey:   apiKey,
		source:   source,
		url:      listenURL,
		model:    DefaultModel,
		endGrace: DefaultEndGrace,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Arm prepares one capture. The encoding of the audio source wins over the
// encoding in opts since that is what will be sent.
func (c *TranscriptionClient) Arm(opts ...speechtotext.CaptureOption) (speechtotext.Capture, error) {
	if c.source != nil {
		opts = append(opts, speechtotext.WithEncodingInfo(c.source.EncodingInfo()))
	}
	options := speechtotext.NewCaptureOptions(opts...)

	encoding, err := newListenEncoding(options.EncodingInfo)
	if err != nil {
		return nil, err
	}

	return &capture{
		client:   c,
		options:  options,
		encoding: encoding,
		done:     make(chan struct{}),
	}, nil
}
