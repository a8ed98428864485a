package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	maxLogLines    = 200
	viewportHeight = 12
	paneWidth      = 100
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(paneWidth)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(paneWidth)

	logStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			PaddingRight(2)
)

type snapshotMsg Snapshot

type runDoneMsg struct{}

// inspector is the bubbletea model of the live view. It shows the latest snapshot of the
// lead actor on top and a scrolling log of graph events below.
type inspector struct {
	title    string
	spinner  spinner.Model
	viewport viewport.Model
	snaps    <-chan Snapshot

	last  Snapshot
	log   []string
	done  bool
	ready bool
}

func newInspector(title string, snaps <-chan Snapshot) inspector {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(paneWidth, viewportHeight)
	vp.Style = logStyle

	return inspector{title: title, spinner: s, viewport: vp, snaps: snaps}
}

func waitForSnapshot(snaps <-chan Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-snaps
		if !ok {
			return runDoneMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m inspector) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.snaps))
}

func (m inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.done {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case snapshotMsg:
		m.last = Snapshot(msg)
		m.ready = true
		for _, ev := range msg.Events {
			m.log = append(m.log, fmt.Sprintf("%8.3fs  %s", msg.Time, ev))
		}
		if over := len(m.log) - maxLogLines; over > 0 {
			m.log = m.log[over:]
		}
		if len(msg.Events) > 0 {
			m.viewport.SetContent(eventStyle.Render(strings.Join(m.log, "\n")))
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForSnapshot(m.snaps))

	case runDoneMsg:
		m.done = true

	case tea.WindowSizeMsg:
		m.viewport.Width = min(msg.Width, paneWidth)
	}

	return m, tea.Batch(cmds...)
}

func (m inspector) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Loading %s...", m.spinner.View(), m.title)
	}

	status := m.spinner.View()
	if m.done {
		status = stateStyle.Render("done")
	}
	header := headerStyle.Render(fmt.Sprintf("%s %s  tick %d  %.2fs", status, m.title, m.last.Tick, m.last.Time))

	var top strings.Builder
	top.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("State machines") + "\n")
	if len(m.last.States) == 0 {
		top.WriteString(subtleStyle.Render("none"))
	}
	for _, s := range m.last.States {
		top.WriteString(renderStates([]StateLine{s}) + "\n")
	}
	top.WriteString("\n" + lipgloss.NewStyle().Bold(true).Underline(true).Render("Parameters") + "\n")
	for _, p := range m.last.Parameters {
		top.WriteString(paramStyle.Render(p) + "\n")
	}
	stats := m.last.Stats
	top.WriteString("\n" + subtleStyle.Render(fmt.Sprintf(
		"actors %d  poses %d (peak %d)  transitions %d  update %s",
		stats.Actors, stats.PosePoolInUse, stats.PosePoolPeak, stats.ActiveTransitions, stats.Elapsed)))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		paneStyle.Render(top.String()),
		m.viewport.View(),
		subtleStyle.Render("q: quit  up/down: scroll events"),
	)
}

// runTUI runs the engine in the background and shows its snapshots until the user quits.
func runTUI(ctx context.Context, rt *runtime) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps := make(chan Snapshot)
	rt.sink = func(s Snapshot) {
		select {
		case snaps <- s:
		case <-ctx.Done():
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- rt.Run(ctx)
		close(snaps)
	}()

	_, uiErr := tea.NewProgram(newInspector(rt.graph.Name(), snaps)).Run()
	cancel()
	runErr := <-errc
	if uiErr != nil {
		return uiErr
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
