package main

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	answeredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ecc71"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
)
