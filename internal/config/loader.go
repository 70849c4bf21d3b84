package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables holding API keys. Each credential takes the first
// variable that is set.
var credentialVariables = map[string][]string{
	"gemini":   {"GEMINI_API_KEY", "VITE_GEMINI_API_KEY"},
	"openai":   {"OPENAI_API_KEY"},
	"groq":     {"GROQ_API_KEY"},
	"deepgram": {"DEEPGRAM_API_KEY"},
}

// Load reads the YAML configuration at path on top of [Default], applies
// .env files and environment overrides and validates the result. An empty
// path skips the file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if err := decode(f, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates it. Environment overrides are not applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped. With
// no files given ".env" in the working directory is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("env file not found", "file", file)
				continue
			}
			return fmt.Errorf("config: load env file %q: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv fills credentials from the environment. Set variables override
// values from the config file.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	targets := map[string]*string{
		"gemini":   &cfg.Credentials.Gemini,
		"openai":   &cfg.Credentials.OpenAI,
		"groq":     &cfg.Credentials.Groq,
		"deepgram": &cfg.Credentials.Deepgram,
	}
	for name, variables := range credentialVariables {
		for _, variable := range variables {
			if value, ok := lookup(variable); ok && strings.TrimSpace(value) != "" {
				*targets[name] = strings.TrimSpace(value)
				break
			}
		}
	}

	if value, ok := lookup("EMA_VOICE_LOG_LEVEL"); ok && value != "" {
		cfg.LogLevel = LogLevel(strings.ToLower(value))
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if !cfg.Inference.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("inference.provider %q is invalid; valid values: gemini, openai, groq", cfg.Inference.Provider))
	}
	if cfg.Inference.HistoryLimit != 0 && cfg.Inference.HistoryLimit < 4 {
		errs = append(errs, fmt.Errorf("inference.history_limit %d is too small; at least 4 messages are kept", cfg.Inference.HistoryLimit))
	}
	if cfg.Inference.WordInterval < 0 {
		errs = append(errs, fmt.Errorf("inference.word_interval %s must not be negative", cfg.Inference.WordInterval))
	}
	if cfg.Speech.EndGrace < 0 {
		errs = append(errs, fmt.Errorf("speech.end_grace %s must not be negative", cfg.Speech.EndGrace))
	}
	if !cfg.Audio.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: miniaudio, portaudio, none", cfg.Audio.Backend))
	}
	if !cfg.Greeting.Policy.IsValid() {
		errs = append(errs, fmt.Errorf("greeting.policy %q is invalid; valid values: off, every_session, first_session_only", cfg.Greeting.Policy))
	}
	if cfg.Greeting.Delay < 0 {
		errs = append(errs, fmt.Errorf("greeting.delay %s must not be negative", cfg.Greeting.Delay))
	}

	// Missing keys are reported by the gateways when used, so the app can
	// still start and show the message.
	if cfg.InferenceKey() == "" {
		slog.Warn("no API key for the inference provider", "provider", cfg.Inference.Provider)
	}
	if cfg.Credentials.Deepgram == "" && cfg.Audio.Backend != AudioNone {
		slog.Warn("DEEPGRAM_API_KEY is not set; speech recognition and synthesis will fail")
	}

	return errors.Join(errs...)
}
