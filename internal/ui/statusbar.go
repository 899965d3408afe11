package ui

import (
	"fmt"
	"strings"
	"time"

	"beamsim.klederson.com/internal/beam"
	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is everything the bottom bar shows.
type StatusInfo struct {
	beam.Status
	Active    beam.Handle
	CursorDeg float64
	Latency   time.Duration
	Pending   bool
	Err       error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s StatusInfo) string {
	var state string
	switch {
	case s.Err != nil:
		state = StyleStatusError.Render("[ERROR] " + s.Err.Error())
	case s.Pending:
		state = StyleStatusBusy.Render("[COMPUTING]")
	default:
		state = StyleStatusLive.Render("[LIVE]")
	}

	active := "-"
	if s.Active != beam.NoHandle {
		active = fmt.Sprintf("%d/%d", int(s.Active)+1, s.Arrays)
	}
	info := fmt.Sprintf(" Array: %s  Elements: %d  c: %s  Combined: %+.0fdeg  Cursor: %ddeg  Recompute: %s",
		active, s.Elements, FormatSpeed(s.PropagationSpeed), s.CombinedDelayDeg,
		int(s.CursorDeg), s.Latency.Round(100*time.Microsecond))

	content := state + StyleStatusBar.UnsetPadding().Render(info)

	gap := width - StyleStatusBar.GetHorizontalFrameSize() - lipgloss.Width(content)
	if gap < 0 {
		gap = 0
	}
	return StyleStatusBar.Width(width).MaxHeight(1).Render(content + strings.Repeat(" ", gap))
}

// FormatSpeed renders a propagation speed compactly, e.g. "3.0e8 m/s".
func FormatSpeed(c float64) string {
	if c >= 1e4 {
		return fmt.Sprintf("%.1e m/s", c)
	}
	return fmt.Sprintf("%.0f m/s", c)
}

// FormatFrequency renders a frequency with an SI prefix, e.g. "3.50 GHz".
func FormatFrequency(f float64) string {
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.2f GHz", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.2f MHz", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.2f kHz", f/1e3)
	default:
		return fmt.Sprintf("%.0f Hz", f)
	}
}
