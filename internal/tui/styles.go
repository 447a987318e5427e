package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Border styles
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// Task styles
var (
	StyleCritical = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	StyleOverdue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Bold(true)

	StyleSelected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	StyleBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))
)

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	StyleStatusOK = lipgloss.NewStyle().
			Foreground(lipgloss.Color("green"))

	StyleStatusErr = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)
