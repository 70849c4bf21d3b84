package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/failures"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const speakURL = "wss://api.deepgram.com/v1/speak"

// AudioSink plays synthesized audio. Mark calls back once everything sent
// before it has been played, or when the buffer holding it is cleared.
type AudioSink interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(name string, callback func(string)) error
	EncodingInfo() audio.EncodingInfo
}

type TextToSpeechClient struct {
	apiKey string
	sink   AudioSink
	url    string
	voice  string
	dialer *websocket.Dialer
}

type TextToSpeechClientOption func(*TextToSpeechClient)

// WithDefaultVoice sets the voice used when none is resolved.
func WithDefaultVoice(voiceID string) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		if voiceID != "" {
			c.voice = voiceID
		}
	}
}

func WithURL(url string) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		if url != "" {
			c.url = url
		}
	}
}

func WithDialer(dialer *websocket.Dialer) TextToSpeechClientOption {
	return func(c *TextToSpeechClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func NewTextToSpeechClient(apiKey string, sink AudioSink, opts ...TextToSpeechClientOption) *TextToSpeechClient {
	client := &TextToSpeechClient{
		apiKey: apiKey,
		sink:   sink,
		url:    speakURL,
		voice:  defaultVoice,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *TextToSpeechClient) Voices(context.Context) ([]texttospeech.Voice, error) {
	return GetAvailableVoices(), nil
}

func (c *TextToSpeechClient) Speak(ctx context.Context, text string, voice *texttospeech.Voice, opts ...texttospeech.SpeakOption) (texttospeech.Utterance, error) {
	if c.apiKey == "" {
		return nil, failures.Configuration("Deepgram API key not found. Please set it in your environment or .env file.")
	}
	if c.sink == nil {
		return nil, fmt.Errorf("no audio output configured")
	}

	voiceID := c.voice
	if voice != nil {
		voiceID = voice.ID
	}

	conn, err := c.connect(ctx, voiceID)
	if err != nil {
		return nil, err
	}

	u := newUtterance(conn, c.sink, texttospeech.NewSpeakOptions(opts...))
	go u.processIncomingMessages()

	if err := u.speak(text); err != nil {
		u.Cancel()
		return nil, err
	}
	return u, nil
}

func (c *TextToSpeechClient) connect(ctx context.Context, voiceID string) (*websocket.Conn, error) {
	encodingInfo := c.sink.EncodingInfo()

	speakURL, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", voiceID)
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}
