// Package tui provides the interactive terminal chat client.
//
// The model talks to the chat service in-process: each submitted line
// becomes one user turn, answered asynchronously so the interface stays
// responsive while the pipeline runs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// replyMsg carries the assistant's answer back into the event loop.
type replyMsg struct {
	message *domain.Message
	err     error
}

// Model is the Bubble Tea model for a chat session.
type Model struct {
	chats  driving.ChatService
	userID string
	chatID string

	input    textinput.Model
	viewport viewport.Model
	turns    []domain.Turn
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat TUI over an existing chat session.
func New(chats driving.ChatService, userID, chatID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		chats:    chats,
		userID:   userID,
		chatID:   chatID,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Connected. Ctrl+C to quit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // title, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-4)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTurns())
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = errorStyle.Render(turnError(msg.err))
		} else {
			m.turns = append(m.turns, msg.message.Turn())
			m.status = "Connected. Ctrl+C to quit."
		}
		m.viewport.SetContent(m.renderTurns())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			utterance := strings.TrimSpace(m.input.Value())
			if utterance == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.status = "Thinking..."
			m.turns = append(m.turns, domain.Turn{Role: domain.RoleUser, Content: utterance})
			m.viewport.SetContent(m.renderTurns())
			m.viewport.GotoBottom()
			return m, m.send(utterance)
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := titleStyle.Render("lexchat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return title + "\n" + chat + "\n" + input + "\n" + status
}

// send runs one turn through the chat service off the event loop.
func (m Model) send(utterance string) tea.Cmd {
	chats, userID, chatID := m.chats, m.userID, m.chatID
	return func() tea.Msg {
		reply, err := chats.SendMessage(context.Background(), userID, chatID, utterance)
		return replyMsg{message: reply, err: err}
	}
}

func (m Model) renderTurns() string {
	if len(m.turns) == 0 {
		return "Ask a question about the indexed documents."
	}

	var b strings.Builder
	for i, turn := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := userStyle.Render("You")
		if turn.Role == domain.RoleAssistant {
			label = assistantStyle.Render("Assistant")
		}
		b.WriteString(label + "\n" + turn.Content)
	}
	return b.String()
}

// turnError maps a turn failure to a status line.
func turnError(err error) string {
	var pipelineErr *domain.PipelineError
	if errors.As(err, &pipelineErr) {
		return fmt.Sprintf("turn failed at stage %s", pipelineErr.Stage)
	}
	return "turn failed: " + err.Error()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
