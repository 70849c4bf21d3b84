package orchestration

import (
	"errors"
	"strings"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/failures"
	"github.com/koscakluka/ema-voice/core/store"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type TurnState string

const (
	StateIdle       TurnState = "idle"
	StateCapturing  TurnState = "capturing"
	StateSubmitting TurnState = "submitting"
	StateDelivering TurnState = "delivering"
	StateSpeaking   TurnState = "speaking"
)

// inFlight reports whether a turn is being captured or answered.
func (s TurnState) inFlight() bool {
	return s == StateCapturing || s == StateSubmitting || s == StateDelivering
}

var (
	ErrTurnInFlight = errors.New("a turn is already in flight")
	ErrNotConnected = errors.New("not connected")
	ErrEmptyMessage = errors.New("message is empty")
)

// turnEffects are the side effects the machine asks for. Implementations must
// not block and report back by enqueueing events.
type turnEffects interface {
	beginCapture(attempt uint64, language string)
	endCapture(attempt uint64)
	submit(turn uint64, text string)
	speak(utterance uint64, text, voiceID, language string)
	cancelPlayback()
}

// turnMachine owns the turn state. It is only touched from the event loop.
// Turn, attempt and utterance counters tag asynchronous events so the ones
// belonging to an abandoned turn, capture or utterance are dropped.
type turnMachine struct {
	state   TurnState
	store   *store.Store
	effects turnEffects

	attempt       uint64
	captureBuffer []string
	captureFailed bool

	turn         uint64
	entryCreated bool

	utterance uint64

	reportedUnsupported map[string]bool

	onTransition func(from, to TurnState)
	onTurnEnd    func(outcome string)
	onCaptureEnd func(outcome string)
	onGreet      func()
}

func newTurnMachine(s *store.Store, effects turnEffects) *turnMachine {
	return &turnMachine{
		state:               StateIdle,
		store:               s,
		effects:             effects,
		reportedUnsupported: map[string]bool{},
	}
}

func (m *turnMachine) transition(to TurnState) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
}

// dispatch applies one event. Requests that are refused in the current state
// return an error and change nothing.
func (m *turnMachine) dispatch(event events.Event) error {
	switch ev := event.(type) {
	case events.CaptureRequested:
		return m.beginCapture()
	case events.CaptureStopRequested:
		m.endCapture()
	case events.CapturePartial:
		m.capturePartial(ev)
	case events.CaptureFailed:
		m.captureFailure(ev)
	case events.CaptureEnded:
		m.captureEnded(ev)
	case events.UserTextSubmitted:
		return m.submitText(ev.Text)
	case events.DeliveryReceived:
		m.delivery(ev)
	case events.InferenceFailed:
		m.inferenceFailure(ev)
	case events.PlaybackStarted:
	case events.PlaybackEnded:
		m.playbackEnded(ev)
	case events.PlaybackFailed:
		m.playbackFailure(ev)
	case events.PlaybackCancelRequested:
		m.cancelPlayback()
	case events.GreetingDue:
		m.greet(ev.Text)
	default:
		logger.Debug("ignoring event", "kind", event.Kind())
	}
	return nil
}

func (m *turnMachine) connected() bool {
	return m.store.Snapshot().UI.Connection == store.ConnectionConnected
}

// acceptTurn checks whether a new turn may start and silences playback when
// the assistant is still speaking.
func (m *turnMachine) acceptTurn() error {
	if !m.connected() {
		return ErrNotConnected
	}
	if m.state.inFlight() {
		return ErrTurnInFlight
	}
	if m.state == StateSpeaking {
		m.stopSpeaking()
	}
	return nil
}

func (m *turnMachine) beginCapture() error {
	if err := m.acceptTurn(); err != nil {
		return err
	}

	m.attempt++
	m.captureBuffer = m.captureBuffer[:0]
	m.captureFailed = false

	m.transition(StateCapturing)
	m.store.ClearActivityError()
	m.store.SetListening(true)
	m.effects.beginCapture(m.attempt, m.store.Snapshot().UI.SelectedLanguage)
	return nil
}

func (m *turnMachine) endCapture() {
	if m.state != StateCapturing {
		return
	}
	m.effects.endCapture(m.attempt)
}

func (m *turnMachine) capturePartial(ev events.CapturePartial) {
	if ev.Attempt != m.attempt || m.state != StateCapturing {
		return
	}
	if final := strings.TrimSpace(ev.Final); final != "" {
		m.captureBuffer = append(m.captureBuffer, final)
		m.store.SetInterim("")
		return
	}
	m.store.SetInterim(ev.Interim)
}

func (m *turnMachine) captureFailure(ev events.CaptureFailed) {
	if ev.Attempt != m.attempt || m.state != StateCapturing {
		return
	}
	m.captureFailed = true
	m.reportError(ev.Err)
}

func (m *turnMachine) captureEnded(ev events.CaptureEnded) {
	if ev.Attempt != m.attempt || m.state != StateCapturing {
		return
	}
	m.store.SetListening(false)

	text := strings.Join(m.captureBuffer, " ")
	m.captureBuffer = m.captureBuffer[:0]

	switch {
	case m.captureFailed:
		m.notifyCaptureEnd("failed")
		m.transition(StateIdle)
	case text == "":
		m.notifyCaptureEnd("no_speech")
		m.store.SetActivityError(failures.MessageNoSpeech)
		m.transition(StateIdle)
	default:
		m.notifyCaptureEnd("speech")
		m.submit(text)
	}
}

func (m *turnMachine) submitText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if err := m.acceptTurn(); err != nil {
		return err
	}
	m.submit(text)
	return nil
}

func (m *turnMachine) submit(text string) {
	m.turn++
	m.entryCreated = false

	m.store.ClearChatError()
	m.store.AddMessage(store.RoleUser, text, false)
	m.transition(StateSubmitting)
	m.store.SetLoading(true)
	m.store.SetProcessing(true)
	m.effects.submit(m.turn, text)
}

func (m *turnMachine) delivery(ev events.DeliveryReceived) {
	if ev.Turn != m.turn || (m.state != StateSubmitting && m.state != StateDelivering) {
		return
	}

	if !ev.IsFinal {
		if !m.entryCreated {
			m.store.AddMessage(store.RoleAssistant, ev.Text, true)
			m.entryCreated = true
			m.transition(StateDelivering)
			return
		}
		m.store.UpdateLastMessage(ev.Text, true)
		return
	}

	if !m.entryCreated || !m.store.UpdateLastMessage(ev.Text, false) {
		m.store.AddMessage(store.RoleAssistant, ev.Text, false)
	}
	m.entryCreated = false
	m.store.SetLoading(false)
	m.store.SetProcessing(false)
	m.notifyTurnEnd("answered")

	if strings.TrimSpace(ev.Text) == "" {
		m.transition(StateIdle)
		return
	}
	m.startSpeaking(ev.Text)
}

func (m *turnMachine) inferenceFailure(ev events.InferenceFailed) {
	if ev.Turn != m.turn || (m.state != StateSubmitting && m.state != StateDelivering) {
		return
	}
	m.entryCreated = false

	message := failures.Message(ev.Err)
	m.store.SetLoading(false)
	m.store.SetProcessing(false)
	m.store.SetSpeaking(false)
	m.store.SetChatError(message)
	m.store.SetActivityError(message)
	m.notifyTurnEnd("failed")
	m.transition(StateIdle)
}

func (m *turnMachine) greet(text string) {
	if m.state != StateIdle || len(m.store.Snapshot().Chat.Messages) > 0 {
		return
	}
	m.store.AddMessage(store.RoleAssistant, text, false)
	if m.onGreet != nil {
		m.onGreet()
	}
	m.startSpeaking(text)
}

func (m *turnMachine) startSpeaking(text string) {
	m.utterance++
	ui := m.store.Snapshot().UI

	m.transition(StateSpeaking)
	m.store.SetSpeaking(true)
	m.effects.speak(m.utterance, text, ui.SelectedVoice, ui.SelectedLanguage)
}

func (m *turnMachine) stopSpeaking() {
	m.utterance++
	m.effects.cancelPlayback()
	m.store.SetSpeaking(false)
	m.transition(StateIdle)
}

func (m *turnMachine) cancelPlayback() {
	if m.state != StateSpeaking {
		return
	}
	m.stopSpeaking()
}

func (m *turnMachine) playbackEnded(ev events.PlaybackEnded) {
	if ev.Utterance != m.utterance || m.state != StateSpeaking {
		return
	}
	m.store.SetSpeaking(false)
	m.transition(StateIdle)
}

func (m *turnMachine) playbackFailure(ev events.PlaybackFailed) {
	if ev.Utterance != m.utterance || m.state != StateSpeaking {
		return
	}
	m.store.SetSpeaking(false)
	if failures.KindOf(ev.Err) != "" {
		m.reportError(ev.Err)
	} else {
		logger.Warn("speech playback failed", "error", ev.Err)
		m.store.SetActivityError(texttospeech.MessageSpeechFailed)
	}
	m.transition(StateIdle)
}

// reportError records the message of err. Missing capabilities are only
// reported the first time.
func (m *turnMachine) reportError(err error) {
	message := failures.Message(err)
	if failures.KindOf(err) == failures.KindUnsupportedCapability {
		if m.reportedUnsupported[message] {
			return
		}
		m.reportedUnsupported[message] = true
	}
	m.store.SetActivityError(message)
}

// reset abandons whatever is in flight. Late events for the abandoned turn,
// capture or utterance are dropped by their tags.
func (m *turnMachine) reset() {
	m.attempt++
	m.turn++
	m.utterance++
	m.captureBuffer = m.captureBuffer[:0]
	m.entryCreated = false
	m.transition(StateIdle)
}

func (m *turnMachine) notifyTurnEnd(outcome string) {
	if m.onTurnEnd != nil {
		m.onTurnEnd(outcome)
	}
}

func (m *turnMachine) notifyCaptureEnd(outcome string) {
	if m.onCaptureEnd != nil {
		m.onCaptureEnd(outcome)
	}
}
