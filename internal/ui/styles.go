package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hookview/dashboard/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(lipgloss.Color("230")).Underline(true)

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	connectedMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("● live")
	disconnected   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("○ offline")

	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	systemRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("130")).
			Padding(0, 1)

	filterBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("25")).
			Padding(0, 1)

	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// statusStyle picks the color for a validation status cell.
func statusStyle(s models.ValidationStatus) lipgloss.Style {
	switch s {
	case models.StatusValid:
		return validStyle
	case models.StatusInvalid, models.StatusMissingKey:
		return invalidStyle
	default:
		return warnStyle
	}
}
