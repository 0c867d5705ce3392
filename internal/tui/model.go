// ABOUTME: Bubbletea model for the interactive chat screen
// ABOUTME: Renders store snapshots and forwards user intents to the controller

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/chatbcg/internal/assistant"
	"github.com/2389/chatbcg/internal/commands"
	"github.com/2389/chatbcg/internal/conversation"
	"github.com/2389/chatbcg/internal/render"
)

// EmptyLogHint is shown in place of the log before the first message.
const EmptyLogHint = "Start a conversation by typing a message below."

// Options configures the chat screen.
type Options struct {
	// AllowedExtensions restricts /upload. Empty accepts any file.
	AllowedExtensions []string

	// Health checks the assistant service for /health. Nil disables it.
	Health func(ctx context.Context) error

	// TranscriptDir is where /transcript writes when no path is given.
	TranscriptDir string
}

// stateMsg carries a store snapshot into Update.
type stateMsg conversation.State

// closedMsg reports that the store subscription ended.
type closedMsg struct{}

// settledMsg reports that an ask or upload flow finished.
type settledMsg struct {
	reply conversation.Message
}

// noticeMsg sets the status line.
type noticeMsg struct {
	text string
	err  bool
}

// Model is the chat screen.
type Model struct {
	ctx     context.Context
	ctl     *conversation.Controller
	updates <-chan conversation.State
	opts    Options

	state  conversation.State
	notice noticeMsg

	input    textinput.Model
	log      viewport.Model
	spinner  spinner.Model
	renderer *render.Terminal
	theme    theme
	now      func() time.Time

	width  int
	height int
	ready  bool
}

// New creates the chat screen. The subscription to the store lives as long
// as ctx.
func New(ctx context.Context, ctl *conversation.Controller, opts Options) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type your message..."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	updates, _ := ctl.Store().Subscribe(ctx)

	return Model{
		ctx:      ctx,
		ctl:      ctl,
		updates:  updates,
		opts:     opts,
		state:    ctl.Store().Snapshot(),
		input:    input,
		log:      viewport.New(0, 0),
		spinner:  sp,
		renderer: render.NewTerminal(),
		theme:    newTheme(),
		now:      time.Now,
	}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForState(m.updates),
	)
}

// waitForState blocks until the next snapshot arrives.
func waitForState(ch <-chan conversation.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

// Update handles input and snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case stateMsg:
		m.state = conversation.State(msg)
		m.renderLog()
		return m, waitForState(m.updates)

	case closedMsg:
		return m, nil

	case settledMsg:
		return m, nil

	case noticeMsg:
		m.notice = msg
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.renderLog()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.log, cmd = m.log.Update(msg)
			return m, cmd
		case "home":
			m.log.GotoTop()
			return m, nil
		case "end":
			m.log.GotoBottom()
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if m.input.Value() != before {
			m.ctl.SetDraft(m.input.Value())
		}

	default:
		// cursor blink and other input-internal messages
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submit handles Enter: a slash command or a chat message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	if commands.IsCommand(raw) {
		m.input.Reset()
		m.ctl.SetDraft("")
		return m.runCommand(raw)
	}

	m.ctl.SetDraft(raw)
	pending, err := m.ctl.StartQuery()
	if errors.Is(err, conversation.ErrReplyPending) {
		m.notice = noticeMsg{text: "Still waiting for the previous reply.", err: true}
		return m, nil
	}
	if err != nil {
		m.notice = noticeMsg{text: err.Error(), err: true}
		return m, nil
	}
	if pending == nil {
		return m, nil
	}

	m.input.Reset()
	m.notice = noticeMsg{}
	ctx := m.ctx
	return m, func() tea.Msg {
		return settledMsg{reply: pending.Await(ctx)}
	}
}

func (m Model) runCommand(raw string) (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.notice = noticeMsg{text: err.Error(), err: true}
		return m, nil
	}

	switch cmd.Name {
	case commands.Quit:
		return m, tea.Quit

	case commands.Help:
		m.notice = noticeMsg{text: commands.HelpText()}
		return m, nil

	case commands.History:
		m.notice = noticeMsg{text: historySummary(m.ctl.Store().Snapshot())}
		return m, nil

	case commands.Upload:
		return m.upload(cmd.Arg)

	case commands.Transcript:
		path, err := m.writeTranscript(cmd.Arg)
		if err != nil {
			m.notice = noticeMsg{text: err.Error(), err: true}
		} else {
			m.notice = noticeMsg{text: "Transcript saved to " + path}
		}
		return m, nil

	case commands.Health:
		if m.opts.Health == nil {
			m.notice = noticeMsg{text: "Health check is not available.", err: true}
			return m, nil
		}
		check, ctx := m.opts.Health, m.ctx
		m.notice = noticeMsg{text: "Checking assistant service..."}
		return m, func() tea.Msg {
			if err := check(ctx); err != nil {
				return noticeMsg{text: "Assistant service unreachable: " + err.Error(), err: true}
			}
			return noticeMsg{text: "Assistant service is up."}
		}
	}

	return m, nil
}

// upload reads path and starts an upload flow. Invalid selections never
// reach the controller.
func (m Model) upload(path string) (tea.Model, tea.Cmd) {
	if m.ctl.Store().Snapshot().Uploading {
		m.notice = noticeMsg{text: "An upload is already in progress.", err: true}
		return m, nil
	}

	file, err := assistant.ReadFile(path, m.opts.AllowedExtensions)
	if err != nil {
		m.notice = noticeMsg{text: err.Error(), err: true}
		return m, nil
	}

	pending, err := m.ctl.StartUpload(file)
	if err != nil {
		m.notice = noticeMsg{text: err.Error(), err: true}
		return m, nil
	}

	m.notice = noticeMsg{}
	ctx := m.ctx
	return m, func() tea.Msg {
		return settledMsg{reply: pending.Await(ctx)}
	}
}

func (m Model) writeTranscript(path string) (string, error) {
	if path == "" {
		name := fmt.Sprintf("chatbcg-transcript-%s.html", m.now().Format("20060102-150405"))
		path = filepath.Join(m.opts.TranscriptDir, name)
	}

	out, err := render.NewTranscript().HTML("Chat-BCG transcript", m.ctl.Store().Snapshot().Messages)
	if err != nil {
		return "", fmt.Errorf("rendering transcript: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return path, nil
}

func historySummary(s conversation.State) string {
	var user, bot int
	for _, msg := range s.Messages {
		if msg.Role == conversation.RoleUser {
			user++
		} else {
			bot++
		}
	}
	if len(s.Messages) == 0 {
		return "No messages yet."
	}
	first := s.Messages[0].Timestamp.Format("15:04:05")
	return fmt.Sprintf("%d messages (%d from you, %d from the assistant) since %s",
		len(s.Messages), user, bot, first)
}

// State returns the last snapshot the model rendered.
func (m Model) State() conversation.State {
	return m.state
}

func (m *Model) resize() {
	// header (3) + typing (1) + notice (1) + input panel (3) + footer (1)
	logHeight := max(3, m.height-9)
	m.log.Width = max(20, m.width)
	m.log.Height = logHeight
	m.input.Width = max(10, m.width-6)
}

// renderLog refreshes the viewport and follows the newest message.
func (m *Model) renderLog() {
	if !m.ready {
		return
	}
	m.log.SetContent(m.renderMessages())
	m.log.GotoBottom()
}

func (m Model) renderMessages() string {
	if len(m.state.Messages) == 0 {
		return m.theme.hint.Render(EmptyLogHint)
	}

	width := max(20, m.log.Width-2)
	var b strings.Builder
	for i, msg := range m.state.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		ts := ""
		if !msg.Timestamp.IsZero() {
			ts = " " + m.theme.timestamp.Render(msg.Timestamp.Format("15:04"))
		}
		switch msg.Role {
		case conversation.RoleUser:
			b.WriteString(m.theme.userLabel.Render("You") + ts + "\n")
			b.WriteString(m.theme.body.Width(width).Render(msg.Content))
		default:
			b.WriteString(m.theme.botLabel.Render("Assistant") + ts + "\n")
			b.WriteString(m.theme.body.Width(width).Render(m.renderer.Render(msg.Content)))
		}
	}
	return b.String()
}
