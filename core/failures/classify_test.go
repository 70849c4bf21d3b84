package failures

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyMatchesRulesInOrder(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "quota", raw: "429 Resource has been exhausted (e.g. check quota).", expected: MessageQuota},
		{name: "exceeded", raw: "Limit EXCEEDED for project", expected: MessageQuota},
		{name: "rate limit", raw: "hit a Rate Limit", expected: MessageQuota},
		{name: "api key", raw: "API key not valid. Please pass a valid API key.", expected: MessageInvalidKey},
		{name: "unauthorized", raw: "401 Unauthorized", expected: MessageInvalidKey},
		{name: "network", raw: "network is unreachable", expected: MessageNetwork},
		{name: "fetch", raw: "Failed to fetch", expected: MessageNetwork},
		{name: "connection", raw: "dial tcp: connection refused", expected: MessageNetwork},
		{name: "quota wins over key", raw: "api key quota exceeded", expected: MessageQuota},
		{name: "key wins over network", raw: "authentication failed on connection", expected: MessageInvalidKey},
		{name: "first sentence", raw: "Model is overloaded. Try later.", expected: "Model is overloaded"},
		{name: "first sentence question", raw: "  Who are you? nobody", expected: "Who are you"},
		{name: "whitespace sentence", raw: "   . rest", expected: MessageUnknown},
		{name: "empty sentence", raw: ".rest", expected: MessageUnknownRetry},
		{name: "empty", raw: "", expected: MessageUnknownRetry},
		{name: "long sentence", raw: strings.Repeat("a", 100), expected: MessageUnknownRetry},
		{name: "just under limit", raw: strings.Repeat("b", 99) + ". tail", expected: strings.Repeat("b", 99)},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := ClassifyText(testCase.raw); got != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestClassifyNilError(t *testing.T) {
	if got := Classify(nil); got != MessageUnknown {
		t.Fatalf("expected %q, got %q", MessageUnknown, got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	err := errors.New("Something odd happened! again")
	first := Classify(err)
	for range 10 {
		if got := Classify(err); got != first {
			t.Fatalf("expected stable result %q, got %q", first, got)
		}
	}
}

func TestInferenceCarriesClassifiedMessage(t *testing.T) {
	raw := errors.New("googleapi: Error 403: API key expired")
	err := Inference(raw)

	if KindOf(err) != KindInference {
		t.Fatalf("expected inference kind, got %q", KindOf(err))
	}
	if Message(err) != MessageInvalidKey {
		t.Fatalf("expected %q, got %q", MessageInvalidKey, Message(err))
	}
	if !errors.Is(err, raw) {
		t.Fatalf("expected inference error to wrap the raw error")
	}
}

func TestKindOfWrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("other"), Configuration("missing key"))
	if got := KindOf(wrapped); got != KindConfiguration {
		t.Fatalf("expected configuration kind, got %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected no kind for plain error, got %q", got)
	}
}
