package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chatrelay/internal/client"
)

var (
	teal  = lipgloss.Color("30")
	gray  = lipgloss.Color("241")
	white = lipgloss.Color("255")
	blue  = lipgloss.Color("75")
	red   = lipgloss.Color("196")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(teal).
			Foreground(white).
			Padding(0, 1)

	tsStyle    = lipgloss.NewStyle().Foreground(gray)
	peerStyle  = lipgloss.NewStyle().Bold(true).Foreground(blue)
	errorStyle = lipgloss.NewStyle().Foreground(red)
)

type deliveryMsg client.Delivery

// sessionEndMsg carries the error that ended the receive loop.
type sessionEndMsg struct{ err error }

type model struct {
	r        *client.Receiver
	username string

	ready    bool
	viewport viewport.Model
	lines    []string

	fatal         error
	width, height int
}

func newModel(r *client.Receiver, username string) model {
	return model{r: r, username: username}
}

func (m model) Init() tea.Cmd {
	return waitForDelivery(m.r)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.vpHeight())
			m.viewport.SetContent(strings.Join(m.lines, "\n"))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.vpHeight()
		}
		return m, nil

	case deliveryMsg:
		ts := tsStyle.Render("[" + time.Now().Format("15:04:05") + "]")
		m.appendLine(ts + " " + peerStyle.Render(msg.Sender) + ": " + msg.Text)
		return m, waitForDelivery(m.r)

	case sessionEndMsg:
		m.fatal = msg.err
		m.appendLine(errorStyle.Render("⚠ " + msg.err.Error()))
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp:
			m.viewport.HalfViewUp()
		case tea.KeyPgDown:
			m.viewport.HalfViewDown()
		}
		return m, nil
	}
	return m, nil
}

func (m model) vpHeight() int {
	return max(m.height-1, 1)
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "\n  Waiting for messages…"
	}
	hdr := headerStyle.
		Width(m.width).
		Render(fmt.Sprintf(" Relay  ·  %s  ·  room %s  ·  PgUp/Dn: Scroll  Ctrl+C: Quit",
			m.username, m.r.Room()))
	return lipgloss.JoinVertical(lipgloss.Left, hdr, m.viewport.View())
}

// waitForDelivery blocks until the next delivery for the joined room.
func waitForDelivery(r *client.Receiver) tea.Cmd {
	return func() tea.Msg {
		d, err := r.Next()
		if err != nil {
			return sessionEndMsg{err: err}
		}
		return deliveryMsg(d)
	}
}
