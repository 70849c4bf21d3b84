package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

type option struct {
	value string
	label string
}

// options lists the choices of the open selector. Voices are limited to the
// selected language.
func (m Model) options() []option {
	switch m.screen {
	case screenVoices:
		voices := texttospeech.VoicesForLanguage(m.available, m.state.UI.SelectedLanguage)
		options := make([]option, 0, len(voices)+1)
		options = append(options, option{value: "", label: "Automatic"})
		for _, voice := range voices {
			options = append(options, option{value: voice.ID, label: voice.Name + " (" + voice.Language + ")"})
		}
		return options
	case screenLanguages:
		languages := texttospeech.Languages(m.available)
		options := make([]option, 0, len(languages))
		for _, language := range languages {
			options = append(options, option{value: language.Code, label: language.Name})
		}
		return options
	}
	return nil
}

func (m Model) current() string {
	if m.screen == screenVoices {
		return m.state.UI.SelectedVoice
	}
	return m.state.UI.SelectedLanguage
}

func (m Model) openSelector(s screen) Model {
	m.screen = s
	m.selectorIdx = 0
	for i, option := range m.options() {
		if option.value == m.current() {
			m.selectorIdx = i
			break
		}
	}
	return m
}

func (m Model) updateSelector(msg tea.KeyMsg) (Model, tea.Cmd) {
	options := m.options()

	switch msg.String() {
	case "esc", "q":
		m.screen = screenChat
	case "up", "k":
		if len(options) > 0 {
			m.selectorIdx = (m.selectorIdx + len(options) - 1) % len(options)
		}
	case "down", "j":
		if len(options) > 0 {
			m.selectorIdx = (m.selectorIdx + 1) % len(options)
		}
	case "enter":
		if m.selectorIdx < len(options) {
			m.choose(options[m.selectorIdx].value)
		}
		m.screen = screenChat
	}
	return m, nil
}

func (m *Model) choose(value string) {
	if m.screen == screenVoices {
		m.store.SetSelectedVoice(value)
		return
	}

	previous := m.state.UI.SelectedLanguage
	if err := m.store.SetSelectedLanguage(value); err != nil {
		m.notice = "Could not save language: " + err.Error()
		return
	}
	// A voice of another language would no longer match the selection.
	if primarySubtag(previous) != primarySubtag(value) {
		m.store.SetSelectedVoice("")
	}
}

func primarySubtag(language string) string {
	primary, _, _ := strings.Cut(language, "-")
	return strings.ToLower(primary)
}
