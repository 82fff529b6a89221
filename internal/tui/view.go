package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("180"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var buttonStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("137"))

var promptStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.DoubleBorder()).
	BorderForeground(lipgloss.Color("180"))

func (m Model) View() string {
	if m.prompt != nil {
		return promptStyle.Render(strings.TrimRight(m.prompt.Markup, "\n")) + "\n" +
			dimStyle.Render("press any key to "+strings.ToLower(strings.Join(m.prompt.Buttons, "/")))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Godzamok Helper"))
	b.WriteString("  ")
	if m.c.Paused() {
		b.WriteString(pausedStyle.Render("PAUSED"))
	} else {
		b.WriteString(runningStyle.Render("running"))
	}
	if m.c.Bursting() {
		b.WriteString("  " + pausedStyle.Render("bursting"))
	}
	st := m.c.Stats()
	b.WriteString(dimStyle.Render(fmt.Sprintf("  ticks %d  swallowed %d  steps %d", st.Forwarded, st.Swallowed, st.Stepped)))
	b.WriteString("\n\n")

	sel := m.c.Settings().Selected
	for _, u := range m.c.Units() {
		mark := "   "
		if sel.Get(u.Name()) {
			mark = "[x]"
		} else if sel.Has(u.Name()) {
			mark = "[ ]"
		}
		fmt.Fprintf(&b, "%s %-14s %6d\n", mark, u.Name(), u.Amount())
	}
	b.WriteString("\n")

	if m.last != nil {
		b.WriteString(titleStyle.Render(m.last.Title) + "  " + m.last.Message + "\n")
	}
	if m.result != nil && m.lastErr == nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("last burst: %s, sold %d, rebought %d", m.result.Outcome, m.result.Total, m.result.Rebought())) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("error: "+m.lastErr.Error()) + "\n")
	}

	if buttons := m.c.Buttons(); len(buttons) > 0 {
		row := make([]string, 0, len(buttons))
		for _, btn := range buttons {
			row = append(row, buttonStyle.Render(btn.Label))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...) + "\n")
	}
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) helpLine() string {
	parts := make([]string, 0, 5)
	for _, k := range m.keys.help() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}
