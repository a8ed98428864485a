package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	tickStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	stateStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	transitionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	paramStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	eventStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderStates(states []StateLine) string {
	parts := make([]string, 0, len(states))
	for _, s := range states {
		state := s.State
		if state == "" {
			state = "-"
		}
		if s.Transitioning && s.Target != "" {
			parts = append(parts, transitionStyle.Render(fmt.Sprintf("%s: %s -> %s", s.Machine, state, s.Target)))
			continue
		}
		parts = append(parts, stateStyle.Render(fmt.Sprintf("%s: %s", s.Machine, state)))
	}
	return strings.Join(parts, " ")
}

// renderTick formats one snapshot as a single line followed by one line per event.
func renderTick(s Snapshot) string {
	var sb strings.Builder
	sb.WriteString(tickStyle.Render(fmt.Sprintf("#%d %.3fs", s.Tick, s.Time)))
	if len(s.States) > 0 {
		sb.WriteString(" ")
		sb.WriteString(renderStates(s.States))
	}
	if len(s.Parameters) > 0 {
		sb.WriteString(" ")
		sb.WriteString(paramStyle.Render(strings.Join(s.Parameters, " ")))
	}
	sb.WriteString(subtleStyle.Render(fmt.Sprintf(" pos=(%.2f %.2f %.2f)", s.Position[0], s.Position[1], s.Position[2])))
	for _, ev := range s.Events {
		sb.WriteString("\n  ")
		sb.WriteString(eventStyle.Render(ev))
	}
	return sb.String()
}

// tickPrinter writes every n-th snapshot. Snapshots carrying events are always written.
type tickPrinter struct {
	w     io.Writer
	every uint64
}

func (p tickPrinter) Print(s Snapshot) {
	if p.every == 0 {
		return
	}
	if s.Tick%p.every != 0 && len(s.Events) == 0 {
		return
	}
	fmt.Fprintln(p.w, renderTick(s))
}

// renderSummary formats the end-of-run statistics.
func renderSummary(s Snapshot) string {
	return subtleStyle.Render(fmt.Sprintf(
		"%d ticks, %.3fs simulated, %d actors, pose pool in use %d (peak %d), last update %s",
		s.Tick, s.Time, s.Stats.Actors, s.Stats.PosePoolInUse, s.Stats.PosePoolPeak, s.Stats.Elapsed))
}
