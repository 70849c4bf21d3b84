// Package texttospeech speaks assistant replies. The [Gateway] resolves the
// voice, makes sure only one utterance plays at a time and reports start and
// end of playback.
package texttospeech

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-voice/core/failures"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const MessageSpeechFailed = "Speech synthesis error"

// Synthesizer is the host speech capability.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	// Speak starts speaking text. A nil voice leaves the choice to the
	// synthesizer.
	Speak(ctx context.Context, text string, voice *Voice, opts ...SpeakOption) (Utterance, error)
}

type Utterance interface {
	// Cancel stops playback. No callbacks fire after it returns. Calling it
	// more than once is a no-op.
	Cancel()
}

var DefaultPreferredMarkers = []string{"aura-2"}

type Gateway struct {
	synthesizer Synthesizer
	markers     []string

	voices   []Voice
	voicesMu sync.Mutex

	active   *activeUtterance
	activeMu sync.Mutex
}

type GatewayOption func(*Gateway)

// WithPreferredMarkers sets the identifier fragments that mark preferred
// voices when no exact voice is selected.
func WithPreferredMarkers(markers ...string) GatewayOption {
	return func(g *Gateway) { g.markers = markers }
}

func NewGateway(synthesizer Synthesizer, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		synthesizer: synthesizer,
		markers:     DefaultPreferredMarkers,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Supported() bool {
	return g != nil && g.synthesizer != nil
}

// Voices returns the voices of the synthesizer. A successful listing is
// cached.
func (g *Gateway) Voices(ctx context.Context) ([]Voice, error) {
	if !g.Supported() {
		return nil, failures.Unsupported("speech synthesis")
	}

	g.voicesMu.Lock()
	defer g.voicesMu.Unlock()
	if g.voices != nil {
		return g.voices, nil
	}

	voices, err := g.synthesizer.Voices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	g.voices = voices
	return voices, nil
}

// Speak cancels any active utterance and speaks text with the voice resolved
// from voiceID. Failing to list voices is not fatal, the host default voice is
// used instead.
func (g *Gateway) Speak(ctx context.Context, text string, onStart, onEnd func(), voiceID string, opts ...SpeakOption) (Utterance, error) {
	if !g.Supported() {
		return nil, failures.Unsupported("speech synthesis")
	}
	g.CancelAll()

	options := NewSpeakOptions(opts...)

	ctx, span := tracer.Start(ctx, "speak", trace.WithAttributes(
		attribute.Int("speech.text_length", len(text)),
		attribute.String("speech.requested_voice", voiceID),
	))
	defer span.End()

	voices, err := g.Voices(ctx)
	if err != nil {
		logger.Warn("falling back to default voice", "error", err)
	}
	voice := ResolveVoice(voices, voiceID, g.markers, options.Language)
	if voice != nil {
		span.SetAttributes(attribute.String("speech.voice", voice.ID))
	}

	active := &activeUtterance{}
	finish := func() {
		active.finished.Store(true)
		g.activeMu.Lock()
		if g.active == active {
			g.active = nil
		}
		g.activeMu.Unlock()
	}

	utterance, err := g.synthesizer.Speak(ctx, text, voice,
		WithLanguage(options.Language),
		WithStartCallback(func() {
			if onStart != nil {
				onStart()
			}
		}),
		WithEndCallback(func() {
			finish()
			if onEnd != nil {
				onEnd()
			}
		}),
		WithErrorCallback(func(err error) {
			finish()
			options.ErrorCallback(err)
		}),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to speak: %w", err)
	}

	active.set(utterance)
	g.activeMu.Lock()
	if !active.finished.Load() {
		g.active = active
	}
	g.activeMu.Unlock()

	return active, nil
}

// CancelAll stops the active utterance, if any.
func (g *Gateway) CancelAll() {
	if g == nil {
		return
	}
	g.activeMu.Lock()
	active := g.active
	g.active = nil
	g.activeMu.Unlock()

	if active != nil {
		active.Cancel()
	}
}

// Speaking reports whether an utterance is active.
func (g *Gateway) Speaking() bool {
	g.activeMu.Lock()
	defer g.activeMu.Unlock()
	return g.active != nil
}

type activeUtterance struct {
	utterance Utterance
	finished  atomic.Bool
	once      sync.Once
	mu        sync.Mutex
}

func (a *activeUtterance) set(utterance Utterance) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.utterance = utterance
}

func (a *activeUtterance) Cancel() {
	a.once.Do(func() {
		a.mu.Lock()
		utterance := a.utterance
		a.mu.Unlock()
		if utterance != nil {
			utterance.Cancel()
		}
	})
}
