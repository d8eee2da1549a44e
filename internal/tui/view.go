package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("spotrank") + mutedStyle.Render("  "+m.user) + "\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")

	switch {
	case m.typing:
		b.WriteString(m.addView())
	case m.view != nil:
		b.WriteString(m.sessionView(*m.view))
	default:
		b.WriteString(helpLine(keys.Up, keys.Down, keys.Add, keys.Edit, keys.Delete, keys.Reload, keys.Quit))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
		if m.persistenceFailed() {
			b.WriteString("\n" + mutedStyle.Render("Your comparisons are kept. Press r to retry."))
		}
	} else if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) listView() string {
	if len(m.entries) == 0 {
		return mutedStyle.Render("Nothing ranked yet. Press a to add a spot.") + "\n"
	}
	var b strings.Builder
	for i, e := range m.entries {
		prefix := "  "
		name := e.Name
		if m.view == nil && !m.typing && i == m.cursor {
			prefix = selectedStyle.Render("> ")
			name = selectedStyle.Render(name)
		}
		score := tierStyle(e.Tier).Render(fmt.Sprintf("%5.2f %s", e.Score, e.Grade))
		line := fmt.Sprintf("%s%3d. %s  %s", prefix, e.Rank, score, name)
		if e.Notes != "" {
			line += mutedStyle.Render("  " + e.Notes)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) addView() string {
	var b strings.Builder
	b.WriteString("Add a spot\n")
	b.WriteString(m.input.View() + "\n")
	for _, s := range m.matches() {
		b.WriteString(mutedStyle.Render("  "+s.Name) + "\n")
	}
	b.WriteString(helpLine(keys.Submit, keys.Complete, keys.Back))
	return panelStyle.Render(b.String())
}

func (m Model) sessionView(v session.View) string {
	var body string
	switch v.Phase {
	case session.PhaseTierSelection:
		name := ""
		if v.Candidate != nil {
			name = v.Candidate.Name
		}
		verb := "How was"
		if v.EditingOf != "" {
			verb = "Re-rank"
		}
		body = fmt.Sprintf("%s %s?\n\n%s  %s  %s\n\n%s",
			verb, selectedStyle.Render(name),
			tierStyle(tier.Bad).Render("b bad"), tierStyle(tier.Okay).Render("o okay"), tierStyle(tier.Good).Render("g good"),
			helpLine(keys.Good, keys.Okay, keys.Bad, keys.Back))
	case session.PhaseComparing:
		if v.Prompt == nil {
			return ""
		}
		p := v.Prompt
		cards := lipgloss.JoinHorizontal(lipgloss.Center,
			cardStyle.Render(p.Candidate),
			mutedStyle.Render("  or  "),
			cardStyle.Render(p.Opponent.Name),
		)
		body = fmt.Sprintf("Which do you prefer?  %s\n\n%s\n\n%s",
			mutedStyle.Render(fmt.Sprintf("(%d/%d)", p.Step, p.MaxSteps)),
			cards,
			helpLine(keys.PreferNew, keys.PreferOld, keys.Back))
	case session.PhaseCommitting:
		body = "Saving...\n\n" + helpLine(keys.Retry, keys.Back)
	default:
		body = string(v.Phase)
	}
	return panelStyle.Render(body)
}
