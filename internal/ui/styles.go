package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#075985")).
			Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	artistStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#475569", Dark: "#CBD5E1"})
	faintStyle    = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0EA5E9")).Bold(true)
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	menuStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#075985")).Padding(0, 1).MarginLeft(4)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"})
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	playCountIcon = "♪"
)
