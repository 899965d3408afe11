package ui

import "github.com/charmbracelet/lipgloss"

// ComposeLayout joins the plot panel and array list horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, plotPanel, arrayList, statusBar string, width int) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, plotPanel, arrayList)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}
