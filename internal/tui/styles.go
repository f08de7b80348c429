package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tasklog/internal/analytics"
	"github.com/sadopc/tasklog/internal/model"
	"github.com/sadopc/tasklog/internal/timer"
)

// Chrome colors. Status colors come from model.ColorKey.
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
	colorGold      = lipgloss.Color("#FFD700")
	colorSilver    = lipgloss.Color("#C0C0C0")
)

// colorFor maps a semantic color key onto the terminal palette.
func colorFor(c model.ColorKey) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func panel(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
}

var (
	activeTabStyle = fg(colorPrimary).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle       = panel(colorSubtle)
	activePanelStyle = panel(colorPrimary)

	titleStyle     = fg(colorFg).Bold(true)
	subtitleStyle  = fg(colorMuted)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)
	successStyle   = fg(colorFor(model.ColorSuccess))
	warningStyle   = fg(colorFor(model.ColorWarning))
	errorStyle     = fg(colorFor(model.ColorError))

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
)

// timerStyle is the large elapsed-time readout for a timer in state s.
func timerStyle(s timer.State) lipgloss.Style {
	c := colorPrimary
	switch s {
	case timer.Running:
		c = colorFor(model.ColorSuccess)
	case timer.Stopped:
		c = colorFor(model.ColorWarning)
	}
	return fg(c).Bold(true).Align(lipgloss.Center)
}

func tierStyle(t analytics.Tier) lipgloss.Style {
	if t == analytics.TierGold {
		return fg(colorGold).Bold(true)
	}
	return fg(colorSilver).Bold(true)
}
