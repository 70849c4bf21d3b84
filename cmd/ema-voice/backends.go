package main

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/audio/miniaudio"
	"github.com/koscakluka/ema-voice/core/audio/portaudio"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/llms/gemini"
	"github.com/koscakluka/ema-voice/core/llms/groq"
	"github.com/koscakluka/ema-voice/core/llms/openai"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	deepgramstt "github.com/koscakluka/ema-voice/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	deepgramtts "github.com/koscakluka/ema-voice/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-voice/internal/config"
)

const portaudioBufferSize = 512

// audioDevice is a local microphone and speaker pair.
type audioDevice interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	SendAudio(audio []byte) error
	ClearBuffer()
	Mark(name string, callback func(string)) error
	EncodingInfo() audio.EncodingInfo
	RequestAccess(ctx context.Context) error
	Close()
}

type backends struct {
	device     audioDevice
	recognizer *speechtotext.Gateway
	inference  *llms.Gateway
	playback   *texttospeech.Gateway
}

func buildBackends(cfg *config.Config) (*backends, error) {
	b := &backends{inference: newInference(cfg)}

	device, err := openAudioDevice(cfg.Audio.Backend)
	if err != nil {
		return nil, err
	}
	if device == nil {
		b.recognizer = speechtotext.NewGateway(nil)
		b.playback = texttospeech.NewGateway(nil)
		return b, nil
	}
	b.device = device

	b.recognizer = speechtotext.NewGateway(deepgramstt.NewTranscriptionClient(
		cfg.Credentials.Deepgram, device,
		deepgramstt.WithModel(cfg.Speech.RecognitionModel),
		deepgramstt.WithEndGrace(cfg.Speech.EndGrace),
	))
	b.playback = texttospeech.NewGateway(
		deepgramtts.NewTextToSpeechClient(cfg.Credentials.Deepgram, device,
			deepgramtts.WithDefaultVoice(cfg.Speech.Voice),
		),
		texttospeech.WithPreferredMarkers(cfg.Speech.PreferredVoiceMarkers...),
	)
	return b, nil
}

func newInference(cfg *config.Config) *llms.Gateway {
	var factory llms.GeneratorFactory
	switch cfg.Inference.Provider {
	case config.ProviderOpenAI:
		factory = openai.Factory(
			openai.WithModel(cfg.Inference.Model),
			openai.WithInstructions(cfg.Inference.Instructions),
		)
	case config.ProviderGroq:
		factory = groq.Factory(
			groq.WithModel(cfg.Inference.Model),
			groq.WithInstructions(cfg.Inference.Instructions),
		)
	default:
		factory = gemini.Factory(
			gemini.WithModel(cfg.Inference.Model),
			gemini.WithSystemInstruction(cfg.Inference.Instructions),
		)
	}

	opts := []llms.GatewayOption{
		llms.WithPacer(llms.WordPacer{Interval: cfg.Inference.WordInterval}),
		llms.WithStreaming(cfg.Inference.Streaming),
	}
	if cfg.Inference.HistoryLimit > 0 {
		opts = append(opts, llms.WithHistoryLimit(cfg.Inference.HistoryLimit))
	}
	return llms.NewGateway(factory, opts...)
}

func openAudioDevice(backend config.AudioBackend) (audioDevice, error) {
	switch backend {
	case config.AudioNone:
		return nil, nil
	case config.AudioPortaudio:
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return nil, fmt.Errorf("open portaudio device: %w", err)
		}
		return client, nil
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, fmt.Errorf("open miniaudio device: %w", err)
		}
		return client, nil
	}
}
