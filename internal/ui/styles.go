package ui

import "github.com/charmbracelet/lipgloss"

// Phosphor palette, brightest first.
var (
	ColorBeam    = lipgloss.Color("#00FF41")
	ColorTrace   = lipgloss.Color("#00CC33")
	ColorGrid    = lipgloss.Color("#008F11")
	ColorFaint   = lipgloss.Color("#004A0A")
	ColorFrame   = lipgloss.Color("#00AA22")
	ColorBar     = lipgloss.Color("#002200")
	ColorPinned  = lipgloss.Color("#FFAA00")
	ColorFailure = lipgloss.Color("#FF3300")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func strong(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

func bordered(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

// Bars
var (
	StyleMenuBar   = strong(ColorBeam).Background(ColorBar).Padding(0, 1)
	StyleMenuKey   = strong(ColorBeam)
	StyleMenuLabel = fg(ColorTrace)
	StyleStatusBar = fg(ColorTrace).Background(ColorBar).Padding(0, 1)

	StyleStatusLive  = strong(ColorBeam)
	StyleStatusBusy  = strong(ColorPinned)
	StyleStatusError = strong(ColorFailure)
)

// Panels
var (
	StylePanelBorder = bordered(ColorFrame)
	StylePanelActive = bordered(ColorBeam)
	StylePanelTitle  = strong(ColorBeam).Padding(0, 1)
	StyleSeparator   = fg(ColorGrid)
	StyleHelp        = fg(ColorFaint)
)

// Array list and detail fields
var (
	StyleArrayName  = strong(ColorBeam)
	StyleArrayParam = fg(ColorTrace)
	StyleArrayDim   = fg(ColorGrid)
	StylePinned     = strong(ColorPinned)
	StyleLabel      = fg(ColorGrid)
	StyleValue      = strong(ColorBeam)
)
