// Package ui has the terminal monitor used by the demo command: it renders
// the link state and transfer progress of one glasses-side link.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rkwon17/glassLink/internal/util"
	"github.com/rkwon17/glassLink/pkg/connection"
	"github.com/rkwon17/glassLink/pkg/link"
	"github.com/rkwon17/glassLink/pkg/protocol"
	"github.com/rkwon17/glassLink/pkg/transfer"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type stateMsg connection.StateChange
type transferMsg struct{ event transfer.Event }
type inboundMsg struct{ msg *protocol.Message }

// Monitor is a bubbletea model over one link's event streams.
type Monitor struct {
	link     *link.Link
	progress progress.Model

	state       connection.State
	lastMessage string
	percent     float64
	transferred int
	failure     error
	completed   bool
}

func NewMonitor(l *link.Link) Monitor {
	return Monitor{
		link:     l,
		state:    l.State(),
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Monitor) Init() tea.Cmd {
	return tea.Batch(m.waitState(), m.waitTransfer(), m.waitInbound())
}

func (m Monitor) waitState() tea.Cmd {
	return func() tea.Msg { return stateMsg(<-m.link.StateChanges()) }
}

func (m Monitor) waitTransfer() tea.Cmd {
	return func() tea.Msg { return transferMsg{event: <-m.link.TransferEvents()} }
}

func (m Monitor) waitInbound() tea.Cmd {
	return func() tea.Msg { return inboundMsg{msg: <-m.link.Messages()} }
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case stateMsg:
		m.state = msg.To
		return m, m.waitState()

	case inboundMsg:
		switch msg.msg.Type {
		case protocol.VoiceData:
			m.lastMessage = fmt.Sprintf("voice audio (%d bytes)", len(msg.msg.Binary))
		default:
			m.lastMessage = fmt.Sprintf("%s %q", msg.msg.Type, msg.msg.Payload)
		}
		return m, m.waitInbound()

	case transferMsg:
		switch e := msg.event.(type) {
		case transfer.Started:
			m.percent = 0
			m.transferred = 0
			m.completed = false
			m.failure = nil
		case transfer.Progress:
			if e.TotalSize > 0 {
				m.percent = float64(e.ReceivedBytes) / float64(e.TotalSize)
			}
			m.transferred = int(e.ReceivedBytes)
		case transfer.Completed:
			m.percent = 1
			m.completed = true
			m.transferred = len(e.Payload)
			return m, tea.Quit
		case transfer.Failed:
			m.failure = e.Reason
			return m, tea.Quit
		}
		return m, m.waitTransfer()
	}
	return m, nil
}

func (m Monitor) View() string {
	s := titleStyle.Render("glassLink monitor") + "\n\n"
	s += "link state: " + stateStyle.Render(m.state.String()) + "\n"
	if m.lastMessage != "" {
		s += "last message: " + m.lastMessage + "\n"
	}
	s += "\n" + m.progress.ViewAs(m.percent) + "  " + util.FormatSize(int64(m.transferred)) + "\n"
	if m.completed {
		s += stateStyle.Render("photo received and verified") + "\n"
	}
	if m.failure != nil {
		s += errorStyle.Render("transfer failed: "+m.failure.Error()) + "\n"
	}
	s += dimStyle.Render("\nPress q to quit")
	return s
}
