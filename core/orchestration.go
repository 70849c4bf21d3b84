package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/failures"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/core/store"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrClosed = errors.New("orchestrator closed")

var (
	errRecognizerMissing = failures.Unsupported("speech recognition")
	errPlaybackMissing   = failures.Unsupported("speech synthesis")
	errInferenceMissing  = failures.Configuration("No inference backend configured.")
)

// InferenceGateway is the remote generative backend. [llms.Gateway]
// implements it.
type InferenceGateway interface {
	Connect(ctx context.Context, opts llms.ConnectOptions) error
	Disconnect()
	Submit(ctx context.Context, text string) (string, error)
}

// PlaybackGateway speaks replies. [texttospeech.Gateway] implements it.
type PlaybackGateway interface {
	Speak(ctx context.Context, text string, onStart, onEnd func(), voiceID string, opts ...texttospeech.SpeakOption) (texttospeech.Utterance, error)
	CancelAll()
}

// Orchestrator sequences capture, submission, delivery and playback for one
// session. Every state change happens on its event loop. The public methods
// are safe for concurrent use.
type Orchestrator struct {
	store   *store.Store
	machine *turnMachine
	loop    *eventLoop
	effects *runtimeEffects

	inference   InferenceGateway
	permissions audio.PermissionGateway
	credential  string

	greetingPolicy GreetingPolicy
	greetingDelay  time.Duration
	greetingTimer  *time.Timer
	greetingMu     sync.Mutex

	eventHandler func(events.Event)
	shutdown     []func() error

	state atomic.Value

	baseContext context.Context
	cancel      context.CancelFunc
	closed      atomic.Bool

	instruments instruments
}

func NewOrchestrator(s *store.Store, opts ...OrchestratorOption) *Orchestrator {
	if s == nil {
		s = store.New(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:          s,
		loop:           newEventLoop(),
		greetingPolicy: GreetingEverySession,
		greetingDelay:  DefaultGreetingDelay,
		eventHandler:   func(events.Event) {},
		baseContext:    ctx,
		cancel:         cancel,
		instruments:    newInstruments(),
	}
	o.effects = &runtimeEffects{
		ctx:  func() context.Context { return o.baseContext },
		loop: o.loop,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.machine = newTurnMachine(s, o.effects)
	o.machine.onTransition = o.onTransition
	o.machine.onTurnEnd = func(outcome string) {
		o.count(o.instruments.turns, outcome)
	}
	o.machine.onCaptureEnd = func(outcome string) {
		o.count(o.instruments.captures, outcome)
	}
	o.machine.onGreet = o.markGreeted
	o.state.Store(StateIdle)

	o.loop.start(o.process)
	return o
}

func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// State returns the turn state as of the last processed event.
func (o *Orchestrator) State() TurnState {
	return o.state.Load().(TurnState)
}

// Connect opens the inference session, probes the microphone and schedules
// the greeting. Calling it while connected does nothing.
func (o *Orchestrator) Connect(ctx context.Context) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if o.store.Snapshot().UI.Connection != store.ConnectionDisconnected {
		return nil
	}

	ctx, span := tracer.Start(ctx, "connect")
	defer span.End()

	if o.inference == nil {
		err := errInferenceMissing
		o.connectFailed(span, err)
		return err
	}

	err := o.inference.Connect(ctx, llms.ConnectOptions{
		Credential: o.credential,
		OnDelivery: func(delivery llms.Delivery) {
			o.effects.deliver(delivery.Delta, delivery.Text, delivery.IsFinal)
		},
		OnStatus: o.onStatus,
	})
	if err != nil {
		o.connectFailed(span, err)
		return err
	}

	if o.permissions != nil {
		access, err := audio.RequestAccess(ctx, o.permissions)
		o.store.SetMicrophoneAccess(access)
		span.SetAttributes(attribute.String("microphone.access", string(access)))
		if err != nil {
			logger.Warn("microphone access failed", "error", err)
			o.store.SetActivityError(failures.Message(err))
		}
	}

	o.maybeGreet()
	return nil
}

func (o *Orchestrator) connectFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if setErr := o.store.SetConnection(store.ConnectionDisconnected); setErr != nil {
		logger.Warn("failed to reset connection state", "error", setErr)
	}
	message := failures.Message(err)
	o.store.SetChatError(message)
	o.store.SetActivityError(message)
}

func (o *Orchestrator) onStatus(status llms.Status) {
	var next store.ConnectionState
	switch status {
	case llms.StatusConnecting:
		next = store.ConnectionConnecting
	case llms.StatusConnected:
		next = store.ConnectionConnected
	default:
		next = store.ConnectionDisconnected
	}
	if err := o.store.SetConnection(next); err != nil {
		logger.Warn("ignoring connection status", "status", status, "error", err)
	}
}

// CompleteOnboarding records the user's name and greets them when the
// session qualifies.
func (o *Orchestrator) CompleteOnboarding(name string) error {
	if err := o.store.SetUserName(name); err != nil {
		return err
	}
	if err := o.store.SetOnboardingComplete(true); err != nil {
		return err
	}
	o.maybeGreet()
	return nil
}

// BeginCapture starts listening. It fails with [ErrNotConnected] or
// [ErrTurnInFlight] when a turn cannot start and changes nothing then.
func (o *Orchestrator) BeginCapture() error {
	return o.loop.request(events.NewCaptureRequested())
}

// EndCapture stops listening. The captured text is submitted once the
// recognizer delivers its last result.
func (o *Orchestrator) EndCapture() error {
	return o.loop.request(events.NewCaptureStopRequested())
}

// ToggleCapture ends a running capture or begins a new one.
func (o *Orchestrator) ToggleCapture() error {
	if o.State() == StateCapturing {
		return o.EndCapture()
	}
	return o.BeginCapture()
}

// SendText submits a typed message as a turn.
func (o *Orchestrator) SendText(text string) error {
	return o.loop.request(events.NewUserTextSubmitted(text))
}

func (o *Orchestrator) CancelPlayback() error {
	return o.loop.request(events.NewPlaybackCancelRequested())
}

// Close ends the session. Capture is aborted, playback silenced, the
// submission in flight dropped and the gateway disconnected. Calling it again
// does nothing.
func (o *Orchestrator) Close() error {
	if !o.closed.CompareAndSwap(false, true) {
		return nil
	}

	o.stopGreeting()
	o.loop.end()
	o.cancel()

	o.effects.dropDelivery()
	o.effects.abortCapture()
	o.effects.cancelPlayback()
	o.machine.reset()
	if o.inference != nil {
		o.inference.Disconnect()
	}
	o.effects.wait()
	o.store.ResetActivity()

	var errs error
	for _, shutdown := range o.shutdown {
		if err := shutdown(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to shut down: %w", err))
		}
	}
	return errs
}

func (o *Orchestrator) process(item eventQueueItem) {
	kind := item.event.Kind()
	queuedTime := time.Since(item.queuedAt).Seconds()
	if o.instruments.queued != nil {
		o.instruments.queued.Record(o.baseContext, queuedTime,
			metric.WithAttributes(attribute.String("event.namespace", kind.Namespace())))
	}

	_, span := tracer.Start(o.baseContext, "dispatch "+string(kind))
	defer span.End()
	span.SetAttributes(
		attribute.Float64("event.queued_time", queuedTime),
		attribute.String("turn.state", string(o.machine.state)),
	)

	err := o.machine.dispatch(item.event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("request rejected", "kind", kind, "state", o.machine.state, "error", err)
		o.eventHandler(events.NewTurnRejected(kind, err))
	}
	if item.reply != nil {
		item.reply <- err
	}
}

func (o *Orchestrator) onTransition(from, to TurnState) {
	o.state.Store(to)
	o.eventHandler(events.NewTurnStateChanged(string(from), string(to)))
}

func (o *Orchestrator) count(counter metric.Int64Counter, outcome string) {
	if counter == nil {
		return
	}
	counter.Add(o.baseContext, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
