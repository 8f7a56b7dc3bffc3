package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatrelay/internal/client"
	"chatrelay/internal/protocol"
)

var (
	purple = lipgloss.Color("99")
	red    = lipgloss.Color("196")
	yellow = lipgloss.Color("220")
	gray   = lipgloss.Color("241")
	white  = lipgloss.Color("255")
	orange = lipgloss.Color("214")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(purple).
			Foreground(white).
			Padding(0, 1)

	footerBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), true, false, false, false).
				BorderForeground(gray).
				Padding(0, 1)

	errorStyle  = lipgloss.NewStyle().Foreground(red)
	sysStyle    = lipgloss.NewStyle().Foreground(yellow).Italic(true)
	myNameStyle = lipgloss.NewStyle().Bold(true).Foreground(orange)
)

// replyMsg is the server's answer to one command.
type replyMsg struct {
	sent protocol.Message
	note string
	err  error
}

type model struct {
	s *client.Sender

	ready    bool
	busy     bool // a command is waiting for its reply
	room     string
	viewport viewport.Model
	input    textinput.Model
	lines    []string

	fatal         error
	width, height int
}

func newModel(s *client.Sender) model {
	in := textinput.New()
	in.Placeholder = "Type a message or /join <room>…"
	in.CharLimit = protocol.MaxLen
	in.Focus()
	return model{s: s, input: in}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.vpHeight())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.vpHeight()
		}
		m.input.Width = msg.Width - 4
		return m, nil

	case replyMsg:
		m.busy = false
		return m.handleReply(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) vpHeight() int {
	// header, footer border, footer input
	return max(m.height-3, 1)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.busy {
			return m, nil
		}
		line := m.input.Value()
		out, err := client.ParseCommand(line)
		switch {
		case errors.Is(err, client.ErrEmptyLine):
			return m, nil
		case errors.Is(err, client.ErrUnknownCommand):
			m.appendLine(errorStyle.Render("Invalid command."))
			m.input.Reset()
			return m, nil
		case err != nil:
			m.appendLine(errorStyle.Render(err.Error()))
			return m, nil
		}
		m.input.Reset()
		m.busy = true
		return m, send(m.s, out)

	case tea.KeyPgUp:
		m.viewport.HalfViewUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleReply(r replyMsg) (model, tea.Cmd) {
	var se *client.ServerError
	switch {
	case errors.As(r.err, &se):
		m.appendLine(errorStyle.Render("⚠ " + se.Note))
		return m, nil
	case r.err != nil:
		m.fatal = r.err
		return m, tea.Quit
	}

	switch r.sent.Tag {
	case protocol.TagSendAll:
		m.appendLine(myNameStyle.Render(m.s.Username()) + ": " + r.sent.Payload)
	case protocol.TagQuit:
		return m, tea.Quit
	case protocol.TagJoin:
		m.room = r.sent.Payload
		m.appendLine(sysStyle.Render("⚡ " + r.note + " " + m.room))
	case protocol.TagLeave:
		m.room = ""
		m.appendLine(sysStyle.Render("⚡ " + r.note))
	default:
		m.appendLine(sysStyle.Render("⚡ " + r.note))
	}
	return m, nil
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Connecting…"
	}

	room := m.room
	if room == "" {
		room = "no room"
	}
	hdr := headerStyle.
		Width(m.width).
		Render(fmt.Sprintf(" Relay  ·  %s  ·  %s  ·  /join /leave /quit  PgUp/Dn: Scroll  Ctrl+C: Quit",
			m.s.Username(), room))

	footer := footerBorderStyle.
		Width(m.width - 2).
		Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, hdr, m.viewport.View(), footer)
}

// send runs one command off the event loop.
func send(s *client.Sender, out protocol.Message) tea.Cmd {
	return func() tea.Msg {
		note, err := s.Do(out)
		return replyMsg{sent: out, note: note, err: err}
	}
}
