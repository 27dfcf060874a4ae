package configurator

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle  = lipgloss.NewStyle().Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(primaryColor)

	// Feature states
	onStyle       = lipgloss.NewStyle().Foreground(successColor)
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	disabledStyle = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))

	// Code pane
	lineNumberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	addedLineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)

	statusStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
)
