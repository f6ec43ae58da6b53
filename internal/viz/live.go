// Package viz renders a running control loop in the terminal: loop status,
// dynamics-loss sparkline, and driver activity.
package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pancan21/AsyncRL/internal/loop"
)

const historyCapacity = 120

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// statusMsg wraps a loop.Status for the bubbletea update cycle.
type statusMsg loop.Status

// doneMsg signals that the loop finished and the status channel closed.
type doneMsg struct{}

// Model is the bubbletea model for the live view. Statuses arrive on a
// channel fed by a coordinator observer.
type Model struct {
	title    string
	statuses <-chan loop.Status
	latest   loop.Status
	history  []float64
	finished bool
}

// NewModel builds a live view reading from the given status channel.
func NewModel(title string, statuses <-chan loop.Status) Model {
	return Model{
		title:    title,
		statuses: statuses,
		history:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.statuses
		if !ok {
			return doneMsg{}
		}
		return statusMsg(s)
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForStatus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case statusMsg:
		m.latest = loop.Status(msg)
		m.history = append(m.history, m.latest.Loss)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		return m, m.waitForStatus()
	case doneMsg:
		m.finished = true
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("asyncrl live — "+m.title) + "\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("step", fmt.Sprintf("%d", m.latest.Step))
	row("sim time", fmt.Sprintf("%.3f", m.latest.Time))
	row("loss", fmt.Sprintf("%.6e", m.latest.Loss))
	row("applied", fmt.Sprintf("%d", m.latest.Applied))

	driver := idleStyle.Render("idle")
	if m.latest.Computing {
		driver = busyStyle.Render("computing")
	}
	b.WriteString(labelStyle.Render("driver") + driver + "\n")

	if len(m.history) >= 2 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("dynamics loss"))
		b.WriteString(graphStyle.Render(graph) + "\n")
	}

	if m.finished {
		b.WriteString(helpStyle.Render("run finished — press q to exit"))
	} else {
		b.WriteString(helpStyle.Render("press q to quit"))
	}
	return b.String()
}

// Run blocks until the live view exits.
func Run(title string, statuses <-chan loop.Status) error {
	_, err := tea.NewProgram(NewModel(title, statuses)).Run()
	return err
}
