package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/store"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"github.com/muesli/reflow/wordwrap"
)

func (m Model) View() string {
	switch m.screen {
	case screenOnboarding:
		return m.theme.root.Render(m.renderOnboarding())
	case screenVoices, screenLanguages:
		return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderSelector()))
	}

	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.theme.panel.Render(m.transcript.View()),
		m.renderStatus(),
		m.theme.input.Render(m.input.View()),
		m.renderFooter(),
	))
}

func (m Model) renderOnboarding() string {
	lines := []string{
		m.theme.header.Render("Welcome to ema-voice"),
		"",
		"Before we start, what should I call you?",
		m.theme.input.Render(m.input.View()),
	}
	if m.notice != "" {
		lines = append(lines, m.theme.errorLine.Render(m.notice))
	}
	lines = append(lines, m.theme.footer.Render("Enter continue · Ctrl+C quit"))
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader() string {
	title := orchestration.TimeOfDayGreeting(m.now())
	if name := m.state.UI.UserName; name != "" {
		title += ", " + name
	}

	connection := m.state.UI.Connection
	status := m.theme.connected[connection == store.ConnectionConnected].Render("● " + string(connection))

	language := texttospeech.LanguageName(m.state.UI.SelectedLanguage)
	voice := m.state.UI.SelectedVoice
	if voice == "" {
		voice = "automatic voice"
	}
	details := m.theme.subtle.Render(fmt.Sprintf("%s · %s", language, voice))

	return m.theme.header.Render(title) + "  " + status + "  " + details
}

func (m *Model) renderTranscript() {
	m.transcript.SetContent(m.transcriptContent())
	m.transcript.GotoBottom()
}

func (m Model) transcriptContent() string {
	messages := m.state.Chat.Messages
	if len(messages) == 0 {
		return m.theme.subtle.Render("No messages yet. Press Ctrl+T and start talking, or type below.")
	}

	width := max(20, m.transcript.Width-2)
	var b strings.Builder
	for i, entry := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := m.theme.assistant.Render("Assistant")
		if entry.Role == store.RoleUser {
			label = m.theme.user.Render("You")
		}
		b.WriteString(label)
		b.WriteString(m.theme.subtle.Render(" " + entry.CreatedAt.Format("15:04")))
		b.WriteString("\n")

		content := entry.Content
		if entry.IsStreaming {
			content += " ▍"
		}
		b.WriteString(wordwrap.String(content, width))
		if entry.Interrupted {
			b.WriteString(m.theme.subtle.Render(" (interrupted)"))
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	activity := m.state.Activity

	var status string
	switch {
	case activity.Listening:
		status = m.theme.status.Render("Listening…")
		if activity.Interim != "" {
			status += " " + m.theme.subtle.Render(activity.Interim)
		}
	case activity.Processing || m.state.Chat.Loading:
		status = m.spinner.View() + m.theme.status.Render(" Thinking…")
	case activity.Speaking:
		status = m.theme.status.Render("Speaking…") + m.theme.subtle.Render(" Esc to stop")
	}

	var errs []string
	for _, message := range []string{activity.LastError, m.state.Chat.Error, m.notice} {
		if message != "" && !slices.Contains(errs, message) {
			errs = append(errs, message)
		}
	}
	if len(errs) > 0 {
		errorLine := m.theme.errorLine.Render(strings.Join(errs, " · ")) + m.theme.subtle.Render(" Esc to dismiss")
		if status == "" {
			return errorLine
		}
		return status + "\n" + errorLine
	}
	return status
}

func (m Model) renderSelector() string {
	title := "Choose a voice"
	if m.screen == screenLanguages {
		title = "Choose a language"
	}

	options := m.options()
	lines := []string{m.theme.assistant.Render(title), ""}
	if len(options) == 0 {
		lines = append(lines, m.theme.subtle.Render("Nothing to choose from yet."))
	}
	for i, option := range options {
		style := m.theme.option
		prefix := "  "
		if i == m.selectorIdx {
			style = m.theme.selected
			prefix = "› "
		}
		if option.value == m.current() {
			prefix += "✓ "
		}
		lines = append(lines, style.Render(prefix+option.label))
	}
	lines = append(lines, "", m.theme.footer.Render("↑/↓ move · Enter select · Esc back"))
	return m.theme.panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	return m.theme.footer.Render("Enter send · Ctrl+T talk · Esc stop/dismiss · Ctrl+V voice · Ctrl+G language · Ctrl+L clear · Ctrl+C quit")
}
