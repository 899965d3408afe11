package ui

import (
	"fmt"
	"strings"

	"beamsim.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
)

// View names the content of the main panel.
type View int

const (
	ViewPattern View = iota
	ViewHeatmap
	ViewDetail
)

func (v View) String() string {
	switch v {
	case ViewHeatmap:
		return "HEATMAP"
	case ViewDetail:
		return "DETAIL"
	default:
		return "PATTERN"
	}
}

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, view View, preset string, demo bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"A", "dd"},
		{"X", "del"},
		{"D", "up"},
		{"R", "eset"},
		{"P", "reset"},
		{"V", "iew"},
		{"?", "help"},
		{"Q", "uit"},
	}

	var menu strings.Builder
	for _, k := range keys {
		menu.WriteString("  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label))
	}

	mode := StyleStatusLive.Render(view.String())
	if demo {
		mode = StyleStatusBusy.Render("DEMO") + " " + mode
	}
	info := ""
	if preset != "" {
		info = "  " + StyleMenuLabel.Render("Preset: "+preset)
	}

	left := StyleMenuKey.Render(title) + menu.String()
	right := mode + info + " "

	// Width counts the padding, so the gap fills what the frame leaves.
	gap := width - StyleMenuBar.GetHorizontalFrameSize() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return StyleMenuBar.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}
