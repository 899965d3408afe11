package ui

import "strings"

// RenderPlotPanel wraps plot content with a titled border.
// The actual plot rendering is done externally to avoid import cycles.
func RenderPlotPanel(width, height int, title, content, footer string) string {
	parts := []string{StylePanelTitle.Render(title), content}
	if footer != "" {
		parts = append(parts, footer)
	}
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(strings.Join(parts, "\n"))
}
