package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/crewsched/internal/domain/conflict"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("62")  // Purple
	secondaryColor = lipgloss.Color("241") // Gray

	// Severity colors
	lowColor      = lipgloss.Color("42")  // Green
	mediumColor   = lipgloss.Color("214") // Orange
	highColor     = lipgloss.Color("203") // Salmon
	criticalColor = lipgloss.Color("196") // Red

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")). // Yellow
			Background(lipgloss.Color("57"))   // Purple

	normalStyle = lipgloss.NewStyle()

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(secondaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	autoStyle = lipgloss.NewStyle().
			Foreground(lowColor)

	severityStyles = map[conflict.Severity]lipgloss.Style{
		conflict.SeverityLow:      lipgloss.NewStyle().Foreground(lowColor),
		conflict.SeverityMedium:   lipgloss.NewStyle().Foreground(mediumColor),
		conflict.SeverityHigh:     lipgloss.NewStyle().Foreground(highColor),
		conflict.SeverityCritical: lipgloss.NewStyle().Foreground(criticalColor).Bold(true),
	}
)

// SeverityStyle returns the style for a conflict severity.
func SeverityStyle(s conflict.Severity) lipgloss.Style {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return normalStyle
}
