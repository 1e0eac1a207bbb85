package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("#1B1B1B")).
			Background(lipgloss.Color("#F2C14E")).
			Padding(0, 1)

	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8FD694"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB7E6")).Bold(true)
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25F5C"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7A7A")).Italic(true)
)

// maxHistory bounds the command results kept on screen.
const maxHistory = 20

type entry struct {
	err     error
	command string
	output  string
}

type interactiveModel struct {
	s       *session
	tags    []string
	history []entry
	input   textinput.Model
	past    []string
	recall  int
}

func newInteractiveModel(s *session) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "read <path>"
	ti.Prompt = "dax> "
	ti.Width = 60
	ti.Focus()
	m := &interactiveModel{s: s, input: ti}
	m.refreshTags()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) refreshTags() {
	m.tags = m.tags[:0]
	var out bytes.Buffer
	s := *m.s
	s.out = &out
	if err := s.list(context.Background(), nil); err != nil {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line != "" {
			m.tags = append(m.tags, line)
		}
	}
}

// execute runs line on the update loop; the client is not safe for
// concurrent use.
func (m *interactiveModel) execute(line string) {
	var out bytes.Buffer
	s := *m.s
	s.out = &out
	err := s.exec(context.Background(), line)

	m.history = append(m.history, entry{command: line, output: strings.TrimRight(out.String(), "\n"), err: err})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.refreshTags()
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m.past = append(m.past, line)
			m.recall = len(m.past)
			m.execute(line)
			return m, nil

		case tea.KeyUp:
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.past[m.recall])
				m.input.CursorEnd()
			}
			return m, nil

		case tea.KeyDown:
			if m.recall < len(m.past)-1 {
				m.recall++
				m.input.SetValue(m.past[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.past)
				m.input.SetValue("")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("daxc"))
	b.WriteString(" ")
	b.WriteString(m.s.c.Name())
	b.WriteString("\n\n")

	if len(m.tags) == 0 {
		b.WriteString(helpStyle.Render("no tags"))
		b.WriteString("\n")
	}
	for _, t := range m.tags {
		b.WriteString("  ")
		b.WriteString(tagStyle.Render(t))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, e := range m.history {
		b.WriteString(commandStyle.Render("> " + e.command))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
			b.WriteString("\n")
			continue
		}
		if e.output != "" {
			b.WriteString(resultStyle.Render(e.output))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • help commands • esc quit"))
	return b.String()
}

func runInteractive(s *session) error {
	p := tea.NewProgram(newInteractiveModel(s), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
