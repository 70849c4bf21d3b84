package llms

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-voice/core/failures"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Generator produces a complete response for a prompt in one request.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StreamingGenerator is implemented by backends that can stream text deltas.
type StreamingGenerator interface {
	Generator
	GenerateStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// GeneratorFactory builds a backend for a credential. It is called on every
// connect.
type GeneratorFactory func(ctx context.Context, credential string) (Generator, error)

var ErrNotConnected = errors.New("inference gateway not connected")

const messageMissingCredential = "API key not found. Please set it in your environment or .env file."

type ConnectOptions struct {
	Credential string
	// OnDelivery receives every delivery in order, the final one last.
	OnDelivery func(Delivery)
	// OnError receives the classified message of a failed submission.
	OnError  func(message string)
	OnStatus func(Status)
}

type Gateway struct {
	factory      GeneratorFactory
	pacer        Pacer
	historyLimit int
	streaming    bool

	generator Generator
	session   *Session
	options   ConnectOptions
	mu        sync.Mutex

	submitDuration metric.Float64Histogram
}

type GatewayOption func(*Gateway)

// WithPacer replaces the default word pacer.
func WithPacer(pacer Pacer) GatewayOption {
	return func(g *Gateway) {
		if pacer != nil {
			g.pacer = pacer
		}
	}
}

func WithHistoryLimit(limit int) GatewayOption {
	return func(g *Gateway) { g.historyLimit = limit }
}

// WithStreaming requests the response as a stream and delivers the backend's
// own deltas instead of paced words. Deltas are held until the stream ends
// cleanly. Backends that cannot stream are paced as usual.
func WithStreaming(streaming bool) GatewayOption {
	return func(g *Gateway) { g.streaming = streaming }
}

func NewGateway(factory GeneratorFactory, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		factory:      factory,
		pacer:        NewWordPacer(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(g)
	}

	var err error
	if g.submitDuration, err = meter.Float64Histogram("llm.submit.duration",
		metric.WithDescription("Duration of a submission including delivery"),
		metric.WithUnit("s"),
	); err != nil {
		logger.Warn("failed to create submit duration histogram", "error", err)
	}
	return g
}

func (g *Gateway) Connect(ctx context.Context, opts ConnectOptions) error {
	if strings.TrimSpace(opts.Credential) == "" {
		return failures.Configuration(messageMissingCredential)
	}
	if g.factory == nil {
		return failures.Configuration("No inference backend configured.")
	}

	notifyStatus(opts.OnStatus, StatusConnecting)
	generator, err := g.factory(ctx, opts.Credential)
	if err != nil {
		notifyStatus(opts.OnStatus, StatusDisconnected)
		return failures.Inference(fmt.Errorf("failed to create inference backend: %w", err))
	}

	g.mu.Lock()
	g.generator = generator
	g.session = NewSession(g.historyLimit)
	g.options = opts
	g.mu.Unlock()

	notifyStatus(opts.OnStatus, StatusConnected)
	return nil
}

// Disconnect drops the session and its history. Calling it again has no
// effect.
func (g *Gateway) Disconnect() {
	g.mu.Lock()
	wasConnected := g.session != nil
	onStatus := g.options.OnStatus
	g.generator = nil
	g.session = nil
	g.options = ConnectOptions{}
	g.mu.Unlock()

	if wasConnected {
		notifyStatus(onStatus, StatusDisconnected)
	}
}

func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session != nil
}

// Session returns the active conversational context, nil when disconnected.
func (g *Gateway) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Submit sends text with the recent history and delivers the response. On
// success history gains both messages, every partial delivery is made and a
// single final delivery follows. On failure nothing is delivered and the
// returned error carries the classified message.
func (g *Gateway) Submit(ctx context.Context, text string) (response string, err error) {
	g.mu.Lock()
	generator, session, options := g.generator, g.session, g.options
	g.mu.Unlock()

	if session == nil {
		return "", failures.Configuration("Not connected. Please reconnect and try again.")
	}

	ctx, span := tracer.Start(ctx, "submit")
	defer span.End()
	start := time.Now()
	defer func() {
		if g.submitDuration != nil {
			g.submitDuration.Record(ctx, time.Since(start).Seconds(),
				metric.WithAttributes(attribute.Bool("llm.success", err == nil)))
		}
	}()

	prompt := session.Prompt(text)
	span.SetAttributes(
		attribute.Int("llm.history_length", session.Len()),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	deliver := func(delivery Delivery) {
		if options.OnDelivery != nil {
			options.OnDelivery(delivery)
		}
	}

	if streamer, ok := generator.(StreamingGenerator); ok && g.streaming {
		response, err = g.stream(ctx, streamer, prompt, deliver)
	} else {
		response, err = generator.Generate(ctx, prompt)
		if err == nil {
			err = g.pacer.Pace(ctx, response, deliver)
		}
	}
	if err != nil {
		failure := failures.Inference(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, failure.Message)
		logger.Warn("submission failed", "error", err, "message", failure.Message)
		if options.OnError != nil {
			options.OnError(failure.Message)
		}
		return "", failure
	}

	session.Record(text, response)
	deliver(Delivery{Text: response, IsFinal: true})
	span.SetAttributes(attribute.Int("llm.response_length", len(response)))

	return response, nil
}

// stream collects the backend deltas and only delivers them once the stream
// has ended cleanly, so a failing stream delivers nothing.
func (g *Gateway) stream(ctx context.Context, streamer StreamingGenerator, prompt string, deliver func(Delivery)) (string, error) {
	var deltas []string
	for delta, err := range streamer.GenerateStream(ctx, prompt) {
		if err != nil {
			return "", err
		}
		if delta != "" {
			deltas = append(deltas, delta)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	accumulated := strings.Builder{}
	for _, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		accumulated.WriteString(delta)
		deliver(Delivery{Delta: delta, Text: accumulated.String()})
	}
	return accumulated.String(), nil
}

func notifyStatus(onStatus func(Status), status Status) {
	if onStatus != nil {
		onStatus(status)
	}
}
