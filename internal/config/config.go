// Package config defines the ema-voice configuration file and the
// environment overrides applied on top of it.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

type InferenceProvider string

const (
	ProviderGemini InferenceProvider = "gemini"
	ProviderOpenAI InferenceProvider = "openai"
	ProviderGroq   InferenceProvider = "groq"
)

func (p InferenceProvider) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderOpenAI, ProviderGroq:
		return true
	}
	return false
}

type AudioBackend string

const (
	AudioMiniaudio AudioBackend = "miniaudio"
	AudioPortaudio AudioBackend = "portaudio"
	// AudioNone runs without a microphone or speaker. Only typed messages
	// work and replies are not spoken.
	AudioNone AudioBackend = "none"
)

func (b AudioBackend) IsValid() bool {
	switch b {
	case AudioMiniaudio, AudioPortaudio, AudioNone:
		return true
	}
	return false
}

type GreetingPolicy string

const (
	GreetingOff              GreetingPolicy = "off"
	GreetingEverySession     GreetingPolicy = "every_session"
	GreetingFirstSessionOnly GreetingPolicy = "first_session_only"
)

func (p GreetingPolicy) IsValid() bool {
	switch p {
	case GreetingOff, GreetingEverySession, GreetingFirstSessionOnly:
		return true
	}
	return false
}

type Config struct {
	LogLevel LogLevel `yaml:"log_level,omitempty" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	// LogFile receives the log output. The terminal belongs to the UI.
	LogFile string `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	// PreferencesFile keeps onboarding, user name and language between runs.
	PreferencesFile string `yaml:"preferences_file,omitempty" json:"preferences_file,omitempty"`
	// MetricsAddress serves Prometheus metrics when set, e.g. ":9464".
	MetricsAddress string `yaml:"metrics_address,omitempty" json:"metrics_address,omitempty"`

	Inference   InferenceConfig   `yaml:"inference" json:"inference"`
	Speech      SpeechConfig      `yaml:"speech" json:"speech"`
	Audio       AudioConfig       `yaml:"audio" json:"audio"`
	Greeting    GreetingConfig    `yaml:"greeting" json:"greeting"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type InferenceConfig struct {
	Provider     InferenceProvider `yaml:"provider" json:"provider" jsonschema:"enum=gemini,enum=openai,enum=groq,default=gemini"`
	Model        string            `yaml:"model,omitempty" json:"model,omitempty"`
	Instructions string            `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	// Streaming forwards backend chunks as they arrive instead of pacing the
	// complete response word by word.
	Streaming    bool          `yaml:"streaming,omitempty" json:"streaming,omitempty"`
	HistoryLimit int           `yaml:"history_limit,omitempty" json:"history_limit,omitempty" jsonschema:"minimum=4"`
	WordInterval time.Duration `yaml:"word_interval,omitempty" json:"word_interval,omitempty"`
}

type SpeechConfig struct {
	RecognitionModel string        `yaml:"recognition_model,omitempty" json:"recognition_model,omitempty"`
	EndGrace         time.Duration `yaml:"end_grace,omitempty" json:"end_grace,omitempty"`
	Voice            string        `yaml:"voice,omitempty" json:"voice,omitempty"`
	// PreferredVoiceMarkers pick a voice when none is selected. A voice
	// whose ID or name contains a marker wins, earlier markers first.
	PreferredVoiceMarkers []string `yaml:"preferred_voice_markers,omitempty" json:"preferred_voice_markers,omitempty"`
}

type AudioConfig struct {
	Backend AudioBackend `yaml:"backend" json:"backend" jsonschema:"enum=miniaudio,enum=portaudio,enum=none,default=miniaudio"`
}

type GreetingConfig struct {
	Policy GreetingPolicy `yaml:"policy" json:"policy" jsonschema:"enum=off,enum=every_session,enum=first_session_only,default=every_session"`
	Delay  time.Duration  `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// CredentialsConfig holds API keys. They are usually taken from the
// environment or a .env file rather than written in the config file.
type CredentialsConfig struct {
	Gemini   string `yaml:"gemini,omitempty" json:"gemini,omitempty"`
	OpenAI   string `yaml:"openai,omitempty" json:"openai,omitempty"`
	Groq     string `yaml:"groq,omitempty" json:"groq,omitempty"`
	Deepgram string `yaml:"deepgram,omitempty" json:"deepgram,omitempty"`
}

// InferenceKey returns the API key of the configured inference provider.
func (c *Config) InferenceKey() string {
	switch c.Inference.Provider {
	case ProviderOpenAI:
		return c.Credentials.OpenAI
	case ProviderGroq:
		return c.Credentials.Groq
	default:
		return c.Credentials.Gemini
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:        LogLevelInfo,
		LogFile:         "ema-voice.log",
		PreferencesFile: defaultPreferencesFile(),
		Inference: InferenceConfig{
			Provider:     ProviderGemini,
			HistoryLimit: llms.DefaultHistoryLimit,
			WordInterval: llms.DefaultWordInterval,
		},
		Speech: SpeechConfig{
			EndGrace:              deepgram.DefaultEndGrace,
			PreferredVoiceMarkers: slices.Clone(texttospeech.DefaultPreferredMarkers),
		},
		Audio:    AudioConfig{Backend: AudioMiniaudio},
		Greeting: GreetingConfig{Policy: GreetingEverySession, Delay: time.Second},
	}
}

func defaultPreferencesFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".ema-voice-preferences.yaml"
	}
	return filepath.Join(dir, "ema-voice", "preferences.yaml")
}
