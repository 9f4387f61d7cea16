package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contextchat/internal/model"
)

// Asker is the conversation the terminal drives.
type Asker interface {
	Ask(ctx context.Context, question string) (Reply, error)
}

type Reply struct {
	Answer  string
	Sources []model.Retrieved
}

type answerMsg struct {
	question string
	reply    Reply
}

type errMsg struct{ err error }

type turn struct {
	question string
	reply    Reply
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	asker    Asker
	ctx      context.Context
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	summary  string
	status   string
	busy     bool
	sources  bool
	ready    bool
}

func New(ctx context.Context, asker Asker, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		asker:    asker,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready to answer questions. Ctrl+S toggles sources.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		r, err := m.asker.Ask(m.ctx, q)
		if err != nil {
			return errMsg{err}
		}
		return answerMsg{question: q, reply: r}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.input.Width = max(10, msg.Width-4)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		m.turns = append(m.turns, turn{question: msg.question, reply: msg.reply})
		m.status = fmt.Sprintf("Answered from %d chunks.", len(msg.reply.Sources))
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case errMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "ctrl+s":
			m.sources = !m.sources
			m.refresh()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Chat with your documents")
	summary := dimStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return dimStyle.Render("No questions yet.")
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(userStyle.Render("You: " + t.question))
		sb.WriteString("\n")
		sb.WriteString(t.reply.Answer)
		if m.sources {
			for _, s := range t.reply.Sources {
				sb.WriteString("\n")
				sb.WriteString(dimStyle.Render(fmt.Sprintf("  [%.3f] %s", s.Score, preview(s.Chunk.Content, 80))))
			}
		}
	}
	return sb.String()
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
