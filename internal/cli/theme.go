package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles used for progress lines and run summaries
type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Subtle  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Bar     lipgloss.Style
	Card    lipgloss.Style
}

// DefaultTheme returns the styles used by the extract command. lipgloss
// drops the colors when the output is not a terminal.
func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Width(10),
		Subtle:  lipgloss.NewStyle().Faint(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Bar:     lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
	}
}
