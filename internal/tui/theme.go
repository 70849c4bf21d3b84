package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	root      lipgloss.Style
	header    lipgloss.Style
	subtle    lipgloss.Style
	panel     lipgloss.Style
	input     lipgloss.Style
	footer    lipgloss.Style
	status    lipgloss.Style
	errorLine lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	selected  lipgloss.Style
	option    lipgloss.Style
	connected map[bool]lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#7c9cff")
	mint := lipgloss.Color("#5fd7af")
	rose := lipgloss.Color("#ff6b8b")
	muted := lipgloss.Color("#8a8fa8")

	return theme{
		root: lipgloss.NewStyle().Padding(0, 1),
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		subtle: lipgloss.NewStyle().Foreground(muted),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		footer:    lipgloss.NewStyle().Foreground(muted),
		status:    lipgloss.NewStyle().Foreground(mint).Bold(true),
		errorLine: lipgloss.NewStyle().Foreground(rose).Bold(true),
		user:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(accent).Bold(true),
		selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#1b1d2a")).Background(accent).Bold(true),
		option:    lipgloss.NewStyle(),
		connected: map[bool]lipgloss.Style{
			true:  lipgloss.NewStyle().Foreground(mint),
			false: lipgloss.NewStyle().Foreground(rose),
		},
	}
}
