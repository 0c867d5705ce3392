// ABOUTME: View rendering for the chat screen
// ABOUTME: Header with upload control, message log, typing indicator, input

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Upload control labels.
const (
	UploadIdleLabel   = "Upload File"
	UploadActiveLabel = "Uploading..."
)

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	parts := []string{
		m.renderHeader(),
		m.log.View(),
		m.renderTyping(),
		m.renderNotice(),
		m.theme.inputPanel.Width(max(10, m.width-2)).Render(m.input.View()),
		m.theme.footer.Render("Enter send · /upload <path> · /help · PgUp/PgDn scroll · Ctrl+C quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.title.Render("Chat-BCG")

	var control string
	if m.state.Uploading {
		label := UploadActiveLabel
		if m.state.SelectedFile != "" {
			label += " " + m.state.SelectedFile
		}
		control = m.theme.uploadActive.Render(label)
	} else {
		control = m.theme.upload.Render(UploadIdleLabel)
	}

	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(control)-2)
	row := lipgloss.JoinHorizontal(lipgloss.Center, title, strings.Repeat(" ", gap), control)
	return m.theme.header.Width(max(10, m.width-2)).Render(row)
}

// renderTyping shows the indicator while a reply is pending.
func (m Model) renderTyping() string {
	if !m.state.AwaitingReply {
		return ""
	}
	return m.theme.typing.Render(m.spinner.View() + " Assistant is typing...")
}

func (m Model) renderNotice() string {
	if m.notice.text == "" {
		return ""
	}
	if m.notice.err {
		return m.theme.noticeError.Render(m.notice.text)
	}
	return m.theme.notice.Render(m.notice.text)
}
