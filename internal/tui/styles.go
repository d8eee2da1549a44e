package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/okian/spotrank/internal/domain/tier"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 2).
			Width(24).
			Align(lipgloss.Center)

	tierStyles = map[tier.Tier]lipgloss.Style{
		tier.Good: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		tier.Okay: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		tier.Bad:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func tierStyle(t tier.Tier) lipgloss.Style {
	if s, ok := tierStyles[t]; ok {
		return s
	}
	return mutedStyle
}
