package groq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateReturnsFirstChoice(t *testing.T) {
	var received requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Hello!"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer server.Close()

	client := NewClient("key", WithURL(server.URL), WithHTTPClient(server.Client()), WithInstructions("be nice"))
	text, err := client.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "Hello!" {
		t.Fatalf("expected %q, got %q", "Hello!", text)
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != messageRoleSystem || received.Messages[1].Content != "hi" {
		t.Fatalf("unexpected request messages: %+v", received.Messages)
	}
}

func TestGenerateIncludesAPIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached for model"}}`)
	}))
	defer server.Close()

	client := NewClient("key", WithURL(server.URL), WithHTTPClient(server.Client()))
	_, err := client.Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "Rate limit reached") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestGenerateStreamStopsAtDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Join([]string{
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hi"}}]}`,
			`data: {"choices":[{"delta":{"content":" there"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		}, "\n\n"))
	}))
	defer server.Close()

	client := NewClient("key", WithURL(server.URL), WithHTTPClient(server.Client()))
	var deltas []string
	for delta, err := range client.GenerateStream(context.Background(), "hi") {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		deltas = append(deltas, delta)
	}

	if strings.Join(deltas, "") != "Hi there" || len(deltas) != 2 {
		t.Fatalf("expected two deltas forming %q, got %q", "Hi there", deltas)
	}
}
