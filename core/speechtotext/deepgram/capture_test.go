package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/failures"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

type audioSourceStub struct {
	mu      sync.Mutex
	onAudio func([]byte)
	stopped int
}

func (s *audioSourceStub) StartCapture(_ context.Context, onAudio func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAudio = onAudio
	return nil
}

func (s *audioSourceStub) StopCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *audioSourceStub) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *audioSourceStub) emit(chunk []byte) {
	s.mu.Lock()
	onAudio := s.onAudio
	s.mu.Unlock()
	onAudio(chunk)
}

func results(transcript string, isFinal bool) string {
	body, _ := json.Marshal(map[string]any{
		"type":     "Results",
		"is_final": isFinal,
		"channel": map[string]any{
			"alternatives": []map[string]any{{"transcript": transcript}},
		},
	})
	return string(body)
}

// listenServer replies with the given results once it sees audio and closes
// normally after CloseStream unless hold is set.
func listenServer(t *testing.T, replies []string, hold bool) (*httptest.Server, chan *http.Request) {
	t.Helper()
	var upgrader websocket.Upgrader
	seen := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case seen <- r.Clone(context.Background()):
		default:
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				for _, reply := range replies {
					_ = conn.WriteMessage(websocket.TextMessage, []byte(reply))
				}
				replies = nil
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				if hold {
					continue
				}
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}))
	return server, seen
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

type captureRecorder struct {
	mu       sync.Mutex
	partials []speechtotext.Partial
	errs     []error
	ends     int
	ended    chan struct{}
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{ended: make(chan struct{}, 4)}
}

func (r *captureRecorder) options() []speechtotext.CaptureOption {
	return []speechtotext.CaptureOption{
		speechtotext.WithPartialCallback(func(p speechtotext.Partial) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.partials = append(r.partials, p)
		}),
		speechtotext.WithErrorCallback(func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		}),
		speechtotext.WithEndCallback(func() {
			r.mu.Lock()
			r.ends++
			r.mu.Unlock()
			r.ended <- struct{}{}
		}),
		speechtotext.WithLanguage("de-DE"),
	}
}

func (r *captureRecorder) waitEnd(t *testing.T) {
	t.Helper()
	select {
	case <-r.ended:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected end callback")
	}
}

func TestCaptureDeliversInterimAndFinalPartials(t *testing.T) {
	server, seen := listenServer(t, []string{
		results("hel", false),
		results("hello", true),
		results("", true),
		`{"type":"Metadata"}`,
		results("world", true),
	}, false)
	defer server.Close()

	source := &audioSourceStub{}
	client := NewTranscriptionClient("key", source, WithURL(wsURL(server)))
	recorder := newCaptureRecorder()

	capture, err := client.Arm(recorder.options()...)
	if err != nil {
		t.Fatalf("expected no arm error, got %v", err)
	}
	if err := capture.Begin(context.Background()); err != nil {
		t.Fatalf("expected no begin error, got %v", err)
	}
	source.emit([]byte{0, 0, 0, 0})

	deadline := time.Now().Add(2 * time.Second)
	for {
		recorder.mu.Lock()
		n := len(recorder.partials)
		recorder.mu.Unlock()
		if n == 3 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := capture.End(); err != nil {
		t.Fatalf("expected no end error, got %v", err)
	}
	recorder.waitEnd(t)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	expected := []speechtotext.Partial{{InterimText: "hel"}, {FinalText: "hello"}, {FinalText: "world"}}
	if len(recorder.partials) != len(expected) {
		t.Fatalf("expected %d partials, got %+v", len(expected), recorder.partials)
	}
	for i := range expected {
		if recorder.partials[i] != expected[i] {
			t.Fatalf("expected partial %d to be %+v, got %+v", i, expected[i], recorder.partials[i])
		}
	}
	if len(recorder.errs) != 0 {
		t.Fatalf("expected no errors, got %v", recorder.errs)
	}
	source.mu.Lock()
	stopped := source.stopped
	source.mu.Unlock()
	if stopped != 1 {
		t.Fatalf("expected audio source stopped once, got %d", stopped)
	}
	request := <-seen
	if got := request.URL.Query().Get("language"); got != "de-DE" {
		t.Fatalf("expected language query %q, got %q", "de-DE", got)
	}
	if got := request.Header.Get("Authorization"); got != "Token key" {
		t.Fatalf("expected token auth header, got %q", got)
	}
}

func TestCaptureEndFiresAfterGraceWhenSocketStaysOpen(t *testing.T) {
	server, _ := listenServer(t, nil, true)
	defer server.Close()

	client := NewTranscriptionClient("key", &audioSourceStub{}, WithURL(wsURL(server)), WithEndGrace(20*time.Millisecond))
	recorder := newCaptureRecorder()

	capture, _ := client.Arm(recorder.options()...)
	if err := capture.Begin(context.Background()); err != nil {
		t.Fatalf("expected no begin error, got %v", err)
	}
	_ = capture.End()
	_ = capture.End()
	recorder.waitEnd(t)

	time.Sleep(50 * time.Millisecond)
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.ends != 1 {
		t.Fatalf("expected end callback exactly once, got %d", recorder.ends)
	}
}

func TestCaptureReportsUnexpectedCloseBeforeEnd(t *testing.T) {
	var upgrader websocket.Upgrader
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
		conn.Close()
	}))
	defer server.Close()

	client := NewTranscriptionClient("key", &audioSourceStub{}, WithURL(wsURL(server)))
	recorder := newCaptureRecorder()
	capture, _ := client.Arm(recorder.options()...)
	if err := capture.Begin(context.Background()); err != nil {
		t.Fatalf("expected no begin error, got %v", err)
	}
	recorder.waitEnd(t)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.errs) != 1 {
		t.Fatalf("expected one error, got %v", recorder.errs)
	}
	if kind := failures.KindOf(recorder.errs[0]); kind != failures.KindCapture {
		t.Fatalf("expected capture failure, got %q", kind)
	}
}

func TestAbortSuppressesCallbacks(t *testing.T) {
	server, _ := listenServer(t, nil, true)
	defer server.Close()

	client := NewTranscriptionClient("key", &audioSourceStub{}, WithURL(wsURL(server)))
	recorder := newCaptureRecorder()
	capture, _ := client.Arm(recorder.options()...)
	if err := capture.Begin(context.Background()); err != nil {
		t.Fatalf("expected no begin error, got %v", err)
	}
	capture.Abort()

	select {
	case <-recorder.ended:
		t.Fatalf("expected no end callback after abort")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBeginWithoutKeyIsConfigurationFailure(t *testing.T) {
	capture, err := NewTranscriptionClient("", nil).Arm()
	if err != nil {
		t.Fatalf("expected no arm error, got %v", err)
	}
	err = capture.Begin(context.Background())
	if kind := failures.KindOf(err); kind != failures.KindConfiguration {
		t.Fatalf("expected configuration failure, got %q (%v)", kind, err)
	}
}

func TestArmRejectsUnsupportedEncoding(t *testing.T) {
	_, err := NewTranscriptionClient("key", nil).Arm(
		speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 11025, Format: audio.EncodingLinear16}))
	if err == nil {
		t.Fatalf("expected unsupported sample rate error")
	}
}
