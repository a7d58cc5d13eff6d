package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the model
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Help    lipgloss.Style
	Error   lipgloss.Style
	Notice  lipgloss.Style
	Link    lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultStyles returns the default palette
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#4F46E5")).
			Padding(0, 1),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Focused: lipgloss.NewStyle().Foreground(lipgloss.Color("#818CF8")).Bold(true),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true),
		Notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		Link:    lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")).Underline(true),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("#818CF8")),
	}
}
