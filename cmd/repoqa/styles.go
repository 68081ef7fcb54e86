package main

import "github.com/charmbracelet/lipgloss"

// Lipgloss styles for terminal output.
var (
	// Banner style - bold cyan title block
	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Section title style - bold cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Label style - light blue
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231"))

	// Dim style - gray, for hints and secondary text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Success style - green
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	// Error style - red
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Answer style - white text with a left border
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("51")).
			PaddingLeft(1)
)
