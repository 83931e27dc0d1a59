package ui

import "github.com/charmbracelet/lipgloss"

// Styles defines all lipgloss styles used in the CLI
var Styles = struct {
	Bold       lipgloss.Style
	Title      lipgloss.Style
	Banner     lipgloss.Style
	SuccessBox lipgloss.Style
	ErrorBox   lipgloss.Style
	WarningBox lipgloss.Style
	Label      lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42")).
		Align(lipgloss.Center).
		Width(55),

	Banner: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("42")).
		Padding(1, 2).
		Align(lipgloss.Center),

	SuccessBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("42")).
		Padding(0, 1).
		Width(60),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1).
		Width(60),

	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		Width(60),

	Label: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22),
}

// tier colors, keyed by tier name
var tierColors = map[string]lipgloss.Color{
	"hit":     lipgloss.Color("46"),
	"good":    lipgloss.Color("220"),
	"average": lipgloss.Color("214"),
	"low":     lipgloss.Color("203"),
}
