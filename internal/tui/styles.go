package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	currentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("42")).Padding(0, 1)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	inactiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	cursorStyle    = lipgloss.NewStyle().Underline(true)
	hintStyle      = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dialogStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	celebrateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")).Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("214")).Padding(1, 4)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
)
