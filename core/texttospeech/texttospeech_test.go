package texttospeech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/koscakluka/ema-voice/core/failures"
)

type utteranceStub struct {
	text      string
	voice     *Voice
	options   SpeakOptions
	cancelled int
	mu        sync.Mutex
}

func (u *utteranceStub) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cancelled++
}

type synthesizerStub struct {
	voices     []Voice
	voicesErr  error
	speakErr   error
	utterances []*utteranceStub
	listed     int
	endOnSpeak bool
}

func (s *synthesizerStub) Voices(context.Context) ([]Voice, error) {
	s.listed++
	return s.voices, s.voicesErr
}

func (s *synthesizerStub) Speak(_ context.Context, text string, voice *Voice, opts ...SpeakOption) (Utterance, error) {
	if s.speakErr != nil {
		return nil, s.speakErr
	}
	utterance := &utteranceStub{text: text, voice: voice, options: NewSpeakOptions(opts...)}
	s.utterances = append(s.utterances, utterance)
	if s.endOnSpeak {
		utterance.options.StartCallback()
		utterance.options.EndCallback()
	}
	return utterance, nil
}

var testVoices = []Voice{
	{ID: "aura-asteria-en", Name: "Asteria", Language: "en-US"},
	{ID: "aura-2-celeste-es", Name: "Celeste", Language: "es-CO"},
	{ID: "aura-2-thalia-en", Name: "Thalia", Language: "en-US"},
	{ID: "aura-helios-en", Name: "Helios", Language: "en-GB"},
}

func TestResolveVoiceOrder(t *testing.T) {
	tests := []struct {
		name     string
		voices   []Voice
		voiceID  string
		markers  []string
		language string
		expected string
	}{
		{name: "exact id", voices: testVoices, voiceID: "aura-helios-en", markers: []string{"aura-2"}, language: "en-US", expected: "aura-helios-en"},
		{name: "exact name", voices: testVoices, voiceID: "Asteria", markers: []string{"aura-2"}, expected: "aura-asteria-en"},
		{name: "marker before language", voices: testVoices, voiceID: "X", markers: []string{"thalia", "aura-2"}, language: "es-ES", expected: "aura-2-thalia-en"},
		{name: "marker order wins over voice order", voices: testVoices, voiceID: "X", markers: []string{"helios", "asteria"}, expected: "aura-helios-en"},
		{name: "language prefix", voices: testVoices, voiceID: "X", markers: []string{"missing"}, language: "es-MX", expected: "aura-2-celeste-es"},
		{name: "host default", voices: testVoices, voiceID: "X", markers: []string{"missing"}, language: "ja-JP", expected: ""},
		{name: "no voices", voices: nil, voiceID: "X", markers: []string{"aura"}, language: "en-US", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voice := ResolveVoice(tt.voices, tt.voiceID, tt.markers, tt.language)
			got := ""
			if voice != nil {
				got = voice.ID
			}
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLanguagesAreDistinctAndNamed(t *testing.T) {
	languages := Languages([]Voice{
		{Language: "en-US-x-local"},
		{Language: "en-US"},
		{Language: "es-MX"},
		{Language: "en-GB"},
		{Language: "xx"},
	})

	expected := []Language{
		{Code: "en-GB", Name: "English (GB)"},
		{Code: "en-US", Name: "English (US)"},
		{Code: "es-MX", Name: "Spanish (MX)"},
		{Code: "xx", Name: "XX"},
	}
	if len(languages) != len(expected) {
		t.Fatalf("expected %d languages, got %+v", len(expected), languages)
	}
	for i := range expected {
		if languages[i] != expected[i] {
			t.Fatalf("expected language %d to be %+v, got %+v", i, expected[i], languages[i])
		}
	}
}

func TestVoicesForLanguageSortsByName(t *testing.T) {
	voices := VoicesForLanguage(testVoices, "en-US")
	if len(voices) != 3 {
		t.Fatalf("expected 3 english voices, got %d", len(voices))
	}
	if voices[0].Name != "Asteria" || voices[2].Name != "Thalia" {
		t.Fatalf("expected voices sorted by name, got %+v", voices)
	}
}

func TestGatewayWithoutSynthesizerIsUnsupported(t *testing.T) {
	gateway := NewGateway(nil)
	_, err := gateway.Speak(context.Background(), "Hi", nil, nil, "")
	if kind := failures.KindOf(err); kind != failures.KindUnsupportedCapability {
		t.Fatalf("expected unsupported capability, got %q", kind)
	}
	gateway.CancelAll()
}

func TestSpeakCancelsActiveUtterance(t *testing.T) {
	synthesizer := &synthesizerStub{voices: testVoices}
	gateway := NewGateway(synthesizer)

	if _, err := gateway.Speak(context.Background(), "first", nil, nil, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := gateway.Speak(context.Background(), "second", nil, nil, ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if synthesizer.utterances[0].cancelled != 1 {
		t.Fatalf("expected first utterance cancelled once, got %d", synthesizer.utterances[0].cancelled)
	}
	if synthesizer.utterances[1].cancelled != 0 {
		t.Fatalf("expected second utterance to keep playing")
	}
	if synthesizer.listed != 1 {
		t.Fatalf("expected voices listed once, got %d", synthesizer.listed)
	}
}

func TestCancelAllIsIdempotent(t *testing.T) {
	synthesizer := &synthesizerStub{voices: testVoices}
	gateway := NewGateway(synthesizer)

	gateway.CancelAll()
	_, _ = gateway.Speak(context.Background(), "Hi", nil, nil, "")
	gateway.CancelAll()
	gateway.CancelAll()

	if synthesizer.utterances[0].cancelled != 1 {
		t.Fatalf("expected one cancel, got %d", synthesizer.utterances[0].cancelled)
	}
	if gateway.Speaking() {
		t.Fatalf("expected nothing speaking")
	}
}

func TestSpeakReportsStartAndEnd(t *testing.T) {
	synthesizer := &synthesizerStub{voices: testVoices, endOnSpeak: true}
	gateway := NewGateway(synthesizer)

	started, ended := false, false
	_, err := gateway.Speak(context.Background(), "Hi", func() { started = true }, func() { ended = true }, "Helios")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !started || !ended {
		t.Fatalf("expected start and end callbacks, got start=%v end=%v", started, ended)
	}
	if gateway.Speaking() {
		t.Fatalf("expected finished utterance to be inactive")
	}
	if voice := synthesizer.utterances[0].voice; voice == nil || voice.ID != "aura-helios-en" {
		t.Fatalf("expected selected voice, got %+v", voice)
	}
}

func TestSpeakFallsBackWhenVoicesFail(t *testing.T) {
	synthesizer := &synthesizerStub{voicesErr: errors.New("offline")}
	gateway := NewGateway(synthesizer)

	if _, err := gateway.Speak(context.Background(), "Hi", nil, nil, "X"); err != nil {
		t.Fatalf("expected speech with host default voice, got %v", err)
	}
	if synthesizer.utterances[0].voice != nil {
		t.Fatalf("expected host default voice")
	}
}

func TestSpeakErrorIsReturned(t *testing.T) {
	gateway := NewGateway(&synthesizerStub{speakErr: errors.New("socket closed")})
	if _, err := gateway.Speak(context.Background(), "Hi", nil, nil, ""); err == nil {
		t.Fatalf("expected error")
	}
}
