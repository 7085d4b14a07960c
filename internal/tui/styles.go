package tui

import "github.com/charmbracelet/lipgloss"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Padding(0, 1)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	clockStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	achieveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
)
