// Package tui is the terminal front end of ema-voice. It renders the session
// store and forwards key presses to the orchestrator.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/store"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

// Controller is the part of the orchestrator driven by key presses.
type Controller interface {
	Connect(ctx context.Context) error
	ToggleCapture() error
	SendText(text string) error
	CancelPlayback() error
	CompleteOnboarding(name string) error
}

// VoiceLister lists the voices offered in the voice and language selectors.
type VoiceLister interface {
	Voices(ctx context.Context) ([]texttospeech.Voice, error)
}

type screen int

const (
	screenOnboarding screen = iota
	screenChat
	screenVoices
	screenLanguages
)

type stateMsg store.State

type connectedMsg struct{ err error }

type voicesMsg struct {
	voices []texttospeech.Voice
	err    error
}

type actionDoneMsg struct{ err error }

type clockMsg time.Time

type Model struct {
	ctx        context.Context
	controller Controller
	store      *store.Store
	voices     VoiceLister
	now        func() time.Time

	state       store.State
	screen      screen
	available   []texttospeech.Voice
	selectorIdx int
	notice      string

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	width      int
	height     int
	theme      theme
}

type Option func(*Model)

func WithVoiceLister(voices VoiceLister) Option {
	return func(m *Model) { m.voices = voices }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func New(ctx context.Context, controller Controller, s *store.Store, opts ...Option) Model {
	input := textinput.New()
	input.Focus()
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		controller: controller,
		store:      s,
		now:        time.Now,
		state:      s.Snapshot(),
		input:      input,
		transcript: viewport.New(0, 0),
		spinner:    sp,
		theme:      newTheme(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.screen = screenChat
	if !m.state.UI.OnboardingComplete {
		m.screen = screenOnboarding
	}
	m.resetInput()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.connectCmd(), clockTick())
}

func (m Model) connectCmd() tea.Cmd {
	controller, ctx := m.controller, m.ctx
	return func() tea.Msg {
		return connectedMsg{err: controller.Connect(ctx)}
	}
}

func (m Model) loadVoicesCmd() tea.Cmd {
	if m.voices == nil {
		return nil
	}
	voices, ctx := m.voices, m.ctx
	return func() tea.Msg {
		list, err := voices.Voices(ctx)
		return voicesMsg{voices: list, err: err}
	}
}

func (m Model) actionCmd(action func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: action()}
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case stateMsg:
		m.state = store.State(msg)
		if m.screen == screenOnboarding && m.state.UI.OnboardingComplete {
			m.screen = screenChat
			m.resetInput()
		}
		m.renderTranscript()
	case connectedMsg:
		if msg.err == nil {
			cmds = append(cmds, m.loadVoicesCmd())
		}
	case voicesMsg:
		if msg.err != nil {
			m.notice = "Voices unavailable: " + msg.err.Error()
			break
		}
		m.available = msg.voices
	case actionDoneMsg:
		m.notice = noticeFor(msg.err)
	case clockMsg:
		cmds = append(cmds, clockTick())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTranscript()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		switch m.screen {
		case screenOnboarding:
			m, cmd = m.updateOnboarding(msg)
		case screenVoices, screenLanguages:
			m, cmd = m.updateSelector(msg)
		default:
			m, cmd = m.updateChat(msg)
		}
		return m, cmd
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateOnboarding(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.notice = "Please tell me your name."
			return m, nil
		}
		controller := m.controller
		m.notice = ""
		return m, m.actionCmd(func() error { return controller.CompleteOnboarding(name) })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (Model, tea.Cmd) {
	controller := m.controller

	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		return m, m.actionCmd(func() error { return controller.SendText(text) })
	case "ctrl+t":
		return m, m.actionCmd(controller.ToggleCapture)
	case "esc":
		if m.state.Activity.LastError != "" || m.state.Chat.Error != "" || m.notice != "" {
			m.store.ClearActivityError()
			m.store.ClearChatError()
			m.notice = ""
			return m, nil
		}
		return m, m.actionCmd(controller.CancelPlayback)
	case "ctrl+l":
		m.store.ClearChat()
		return m, nil
	case "ctrl+v":
		return m.openSelector(screenVoices), nil
	case "ctrl+g":
		return m.openSelector(screenLanguages), nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func noticeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, orchestration.ErrTurnInFlight):
		return "Please wait for the current reply."
	case errors.Is(err, orchestration.ErrNotConnected):
		return "Not connected yet."
	case errors.Is(err, orchestration.ErrEmptyMessage):
		return ""
	case errors.Is(err, orchestration.ErrClosed):
		return "Session closed."
	}
	return err.Error()
}

func (m *Model) resetInput() {
	m.input.Reset()
	if m.screen == screenOnboarding {
		m.input.Placeholder = "What's your name?"
		return
	}
	m.input.Placeholder = "Type a message, or press Ctrl+T to talk"
}

func (m *Model) resize() {
	contentWidth := max(20, m.width-4)
	m.input.Width = max(10, contentWidth-6)
	m.transcript.Width = max(10, contentWidth-4)
	m.transcript.Height = max(3, m.height-12)
}
