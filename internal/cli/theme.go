package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for chat output.
type Theme struct {
	Customer lipgloss.Color
	Agent    lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Customer: lipgloss.Color("#5FAFD7"), // light blue
	Agent:    lipgloss.Color("#D7AF5F"), // amber
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) customerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Customer).Bold(true)
}

func (t Theme) agentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Agent).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}
