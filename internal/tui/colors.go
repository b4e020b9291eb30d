package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	appliedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	topStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	unappliedStyle = lipgloss.NewStyle()
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ConfigureColor sets the colour profile used by every style. mode is one
// of auto, always or never; NO_COLOR and noColor force plain output.
func ConfigureColor(mode string, noColor bool) {
	switch {
	case noColor || mode == "never" || os.Getenv("NO_COLOR") != "":
		lipgloss.SetColorProfile(termenv.Ascii)
	case mode == "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	}
}

// ColorRed colors text red
func ColorRed(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")).
		Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")).
		Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")).
		Render(text)
}

// ColorDim renders text in grey
func ColorDim(text string) string {
	return dimStyle.Render(text)
}
