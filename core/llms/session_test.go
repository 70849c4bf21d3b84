package llms

import "testing"

func TestPromptWithoutHistoryIsText(t *testing.T) {
	session := NewSession(DefaultHistoryLimit)
	if got := session.Prompt("hello"); got != "hello" {
		t.Fatalf("expected plain text prompt, got %q", got)
	}
}

func TestPromptUsesLastFourMessages(t *testing.T) {
	session := NewSession(DefaultHistoryLimit)
	session.Record("one", "first answer")
	session.Record("two", "second answer")
	session.Record("three", "third answer")

	expected := "User: two\nAssistant: second answer\nUser: three\nAssistant: third answer\nUser: four\nAssistant:"
	if got := session.Prompt("four"); got != expected {
		t.Fatalf("expected prompt %q, got %q", expected, got)
	}
}

func TestPromptWithSingleExchange(t *testing.T) {
	session := NewSession(DefaultHistoryLimit)
	session.Record("hi", "hello there")

	expected := "User: hi\nAssistant: hello there\nUser: how are you\nAssistant:"
	if got := session.Prompt("how are you"); got != expected {
		t.Fatalf("expected prompt %q, got %q", expected, got)
	}
}

func TestRecordTrimsToLimit(t *testing.T) {
	session := NewSession(4)
	session.Record("a", "1")
	session.Record("b", "2")
	session.Record("c", "3")

	history := session.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
	if history[0].Content != "b" || history[0].Role != MessageRoleUser {
		t.Fatalf("expected oldest kept message to be user %q, got %+v", "b", history[0])
	}
	if history[3].Content != "3" || history[3].Role != MessageRoleAssistant {
		t.Fatalf("expected newest message to be assistant %q, got %+v", "3", history[3])
	}
}

func TestNewSessionKeepsAtLeastPromptContext(t *testing.T) {
	session := NewSession(1)
	session.Record("a", "1")
	session.Record("b", "2")

	if got := session.Len(); got != PromptContextMessages {
		t.Fatalf("expected %d messages, got %d", PromptContextMessages, got)
	}
}
