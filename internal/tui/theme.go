// ABOUTME: Lipgloss styles for the chat TUI
// ABOUTME: One theme struct so the view code never builds styles inline

package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title        lipgloss.Style
	upload       lipgloss.Style
	uploadActive lipgloss.Style
	header       lipgloss.Style
	userLabel    lipgloss.Style
	body         lipgloss.Style
	botLabel     lipgloss.Style
	timestamp    lipgloss.Style
	hint         lipgloss.Style
	typing       lipgloss.Style
	notice       lipgloss.Style
	noticeError  lipgloss.Style
	inputPanel   lipgloss.Style
	footer       lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("#2563eb")
	green := lipgloss.Color("#16a34a")
	muted := lipgloss.Color("#6b7280")
	red := lipgloss.Color("#dc2626")

	return theme{
		title: lipgloss.NewStyle().Bold(true).Foreground(accent),
		upload: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		uploadActive: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(green).
			Foreground(green),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(muted),
		userLabel:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		body:        lipgloss.NewStyle(),
		botLabel:    lipgloss.NewStyle().Bold(true).Foreground(green),
		timestamp:   lipgloss.NewStyle().Foreground(muted),
		hint:        lipgloss.NewStyle().Foreground(muted).Italic(true),
		typing:      lipgloss.NewStyle().Foreground(muted),
		notice:      lipgloss.NewStyle().Foreground(accent),
		noticeError: lipgloss.NewStyle().Foreground(red),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		footer: lipgloss.NewStyle().Foreground(muted),
	}
}
