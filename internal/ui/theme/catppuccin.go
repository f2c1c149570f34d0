package theme

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
)

var (
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")

	// Pane frames the camera preview.
	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Ok    = lipgloss.NewStyle().Foreground(Green)
)

// Trail colors for cells touched during a drag, before the canvas redraws.
var (
	StrokeTrail color.Color = color.RGBA{R: 0xe0, G: 0x1b, B: 0x24, A: 0xff}
	InkTrail    color.Color = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff}
)
