package llms

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/koscakluka/ema-voice/core/failures"
)

type generatorStub struct {
	response string
	err      error
	prompts  []string
}

func (s *generatorStub) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

type streamingGeneratorStub struct {
	generatorStub
	deltas []string
	err    error
}

func (s *streamingGeneratorStub) GenerateStream(_ context.Context, prompt string) iter.Seq2[string, error] {
	s.prompts = append(s.prompts, prompt)
	return func(yield func(string, error) bool) {
		for _, delta := range s.deltas {
			if !yield(delta, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

func factoryFor(generator Generator) GeneratorFactory {
	return func(context.Context, string) (Generator, error) { return generator, nil }
}

func connectedGateway(t *testing.T, generator Generator, deliveries *[]Delivery, opts ...GatewayOption) *Gateway {
	t.Helper()
	gateway := NewGateway(factoryFor(generator), append([]GatewayOption{WithPacer(WordPacer{})}, opts...)...)
	err := gateway.Connect(context.Background(), ConnectOptions{
		Credential: "key",
		OnDelivery: func(d Delivery) { *deliveries = append(*deliveries, d) },
	})
	if err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	return gateway
}

func TestConnectWithoutCredentialIsConfigurationError(t *testing.T) {
	gateway := NewGateway(factoryFor(&generatorStub{}))
	var statuses []Status
	err := gateway.Connect(context.Background(), ConnectOptions{
		OnStatus: func(s Status) { statuses = append(statuses, s) },
	})
	if failures.KindOf(err) != failures.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no status changes, got %v", statuses)
	}
	if gateway.Connected() {
		t.Fatalf("expected gateway to stay disconnected")
	}
}

func TestConnectReportsConnectingThenConnected(t *testing.T) {
	gateway := NewGateway(factoryFor(&generatorStub{}))
	var statuses []Status
	err := gateway.Connect(context.Background(), ConnectOptions{
		Credential: "key",
		OnStatus:   func(s Status) { statuses = append(statuses, s) },
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(statuses) != 2 || statuses[0] != StatusConnecting || statuses[1] != StatusConnected {
		t.Fatalf("expected connecting then connected, got %v", statuses)
	}
}

func TestSubmitDeliversPartialsThenSingleFinal(t *testing.T) {
	var deliveries []Delivery
	generator := &generatorStub{response: "Hi there"}
	gateway := connectedGateway(t, generator, &deliveries)

	response, err := gateway.Submit(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if response != "Hi there" {
		t.Fatalf("expected response %q, got %q", "Hi there", response)
	}

	if len(deliveries) != 3 {
		t.Fatalf("expected 3 deliveries, got %d: %+v", len(deliveries), deliveries)
	}
	finals := 0
	for i, delivery := range deliveries {
		if delivery.IsFinal {
			finals++
			if i != len(deliveries)-1 {
				t.Fatalf("expected final delivery to be last, got it at %d", i)
			}
		}
	}
	if finals != 1 {
		t.Fatalf("expected exactly one final delivery, got %d", finals)
	}
	if last := deliveries[len(deliveries)-1]; last.Text != "Hi there" {
		t.Fatalf("expected final text %q, got %q", "Hi there", last.Text)
	}
}

func TestSubmitRecordsHistoryAndUsesItNextTime(t *testing.T) {
	var deliveries []Delivery
	generator := &generatorStub{response: "fine"}
	gateway := connectedGateway(t, generator, &deliveries)

	if _, err := gateway.Submit(context.Background(), "how are you"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := gateway.Submit(context.Background(), "good"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if generator.prompts[0] != "how are you" {
		t.Fatalf("expected first prompt to be plain text, got %q", generator.prompts[0])
	}
	expected := "User: how are you\nAssistant: fine\nUser: good\nAssistant:"
	if generator.prompts[1] != expected {
		t.Fatalf("expected second prompt %q, got %q", expected, generator.prompts[1])
	}
	if got := gateway.Session().Len(); got != 4 {
		t.Fatalf("expected 4 history messages, got %d", got)
	}
}

func TestSubmitFailureDeliversNothing(t *testing.T) {
	var deliveries []Delivery
	var reported []string
	gateway := NewGateway(factoryFor(&generatorStub{err: errors.New("429: quota exceeded for project")}))
	if err := gateway.Connect(context.Background(), ConnectOptions{
		Credential: "key",
		OnDelivery: func(d Delivery) { deliveries = append(deliveries, d) },
		OnError:    func(message string) { reported = append(reported, message) },
	}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}

	_, err := gateway.Submit(context.Background(), "hello")
	if failures.KindOf(err) != failures.KindInference {
		t.Fatalf("expected inference error, got %v", err)
	}
	if failures.Message(err) != failures.MessageQuota {
		t.Fatalf("expected quota message, got %q", failures.Message(err))
	}
	if len(deliveries) != 0 {
		t.Fatalf("expected no deliveries, got %+v", deliveries)
	}
	if len(reported) != 1 || reported[0] != failures.MessageQuota {
		t.Fatalf("expected quota message to be reported once, got %v", reported)
	}
	if gateway.Session().Len() != 0 {
		t.Fatalf("expected failed submission to leave history untouched")
	}
}

func TestSubmitWhileDisconnected(t *testing.T) {
	gateway := NewGateway(factoryFor(&generatorStub{}))
	_, err := gateway.Submit(context.Background(), "hello")
	if failures.KindOf(err) != failures.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestDisconnectClearsHistoryAndIsIdempotent(t *testing.T) {
	var deliveries []Delivery
	var statuses []Status
	gateway := NewGateway(factoryFor(&generatorStub{response: "ok"}), WithPacer(WordPacer{}))
	if err := gateway.Connect(context.Background(), ConnectOptions{
		Credential: "key",
		OnDelivery: func(d Delivery) { deliveries = append(deliveries, d) },
		OnStatus:   func(s Status) { statuses = append(statuses, s) },
	}); err != nil {
		t.Fatalf("expected connect to succeed, got %v", err)
	}
	if _, err := gateway.Submit(context.Background(), "hi"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	gateway.Disconnect()
	gateway.Disconnect()

	if gateway.Connected() || gateway.Session() != nil {
		t.Fatalf("expected session to be dropped")
	}
	disconnects := 0
	for _, status := range statuses {
		if status == StatusDisconnected {
			disconnects++
		}
	}
	if disconnects != 1 {
		t.Fatalf("expected a single disconnected status, got %v", statuses)
	}
}

func TestSubmitStreamingForwardsBackendDeltas(t *testing.T) {
	var deliveries []Delivery
	generator := &streamingGeneratorStub{deltas: []string{"Hi", " there"}}
	gateway := connectedGateway(t, generator, &deliveries, WithStreaming(true))

	response, err := gateway.Submit(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if response != "Hi there" {
		t.Fatalf("expected response %q, got %q", "Hi there", response)
	}

	expected := []Delivery{
		{Delta: "Hi", Text: "Hi"},
		{Delta: " there", Text: "Hi there"},
		{Text: "Hi there", IsFinal: true},
	}
	if len(deliveries) != len(expected) {
		t.Fatalf("expected %d deliveries, got %+v", len(expected), deliveries)
	}
	for i := range expected {
		if deliveries[i] != expected[i] {
			t.Fatalf("delivery %d: expected %+v, got %+v", i, expected[i], deliveries[i])
		}
	}
	if gateway.Session().Len() != 2 {
		t.Fatalf("expected streamed exchange in history")
	}
}

func TestSubmitStreamingFailureDeliversNothing(t *testing.T) {
	var deliveries []Delivery
	generator := &streamingGeneratorStub{deltas: []string{"Hi", " there"}, err: errors.New("stream reset")}
	gateway := connectedGateway(t, generator, &deliveries, WithStreaming(true))

	if _, err := gateway.Submit(context.Background(), "hello"); failures.KindOf(err) != failures.KindInference {
		t.Fatalf("expected inference error, got %v", err)
	}
	if len(deliveries) != 0 {
		t.Fatalf("expected no deliveries after a failed stream, got %+v", deliveries)
	}
	if gateway.Session().Len() != 0 {
		t.Fatalf("expected failed stream to leave history untouched")
	}
}

type pacerStub struct {
	err error
}

func (p pacerStub) Pace(context.Context, string, func(Delivery)) error {
	return p.err
}

func TestSubmitCancelledPacingLeavesHistoryUntouched(t *testing.T) {
	var deliveries []Delivery
	gateway := connectedGateway(t, &generatorStub{response: "fine"}, &deliveries, WithPacer(pacerStub{err: context.Canceled}))

	if _, err := gateway.Submit(context.Background(), "how are you"); err == nil {
		t.Fatalf("expected cancelled pacing to fail the submission")
	}
	if gateway.Session().Len() != 0 {
		t.Fatalf("expected history to stay empty, got %d messages", gateway.Session().Len())
	}
	for _, delivery := range deliveries {
		if delivery.IsFinal {
			t.Fatalf("expected no final delivery after cancelled pacing")
		}
	}
}
