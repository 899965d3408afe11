package ui

import (
	"fmt"
	"math"
	"strings"

	"beamsim.klederson.com/internal/beam"
	"github.com/charmbracelet/lipgloss"
)

// DetailInfo is what the array detail panel shows.
type DetailInfo struct {
	Array     *beam.Array
	Metrics   beam.BeamMetrics
	Speed     float64
	Selected  int       // highlighted element
	Latencies []float64 // recompute durations in milliseconds, oldest first
}

// RenderDetailPanel renders the array detail view that replaces the plot area.
func RenderDetailPanel(d DetailInfo, width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render("ARRAY DETAIL")
	escHint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint
	sep := StyleSeparator.Render(strings.Repeat("-", innerW))

	lines := []string{titleLine, sep}
	a := d.Array
	if a == nil {
		lines = append(lines, "", StyleHelp.Render("  No array selected"))
		return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
	}

	geometry := a.Geometry.String()
	if a.Geometry == beam.GeometryCurved {
		geometry += fmt.Sprintf(" (k=%.2f)", a.Curvature)
	}
	wavelength := a.AverageWavelength(d.Speed)

	fields := []struct{ label, value string }{
		{"Name", a.Name},
		{"Geometry", geometry},
		{"Spacing", a.SpacingMode.String() + "  " + SpacingLabel(a, d.Speed)},
		{"Delay", fmt.Sprintf("%+.1f°", a.DelayDeg)},
		{"Position", fmt.Sprintf("(%+.2f, %+.2f) m  rot %+.1f°", a.PosX, a.PosY, a.RotationDeg)},
		{"Frequency", fmt.Sprintf("%s avg  λ=%.3gm", FormatFrequency(a.AverageFrequency()), wavelength)},
	}
	for _, f := range fields {
		lines = append(lines, StyleLabel.Render(fmt.Sprintf("  %-10s", f.label))+StyleValue.Render(f.value))
	}

	lines = append(lines, "")
	m := d.Metrics
	lines = append(lines,
		StyleLabel.Render("  Main lobe ")+StyleValue.Render(fmt.Sprintf("%d°", m.MainLobeDeg))+
			StyleLabel.Render("   -3dB width ")+StyleValue.Render(fmt.Sprintf("%d°", m.BeamwidthDeg))+
			StyleLabel.Render("   D ")+StyleValue.Render(fmt.Sprintf("%.1f dB", m.DirectivityDB)))

	barWidth := innerW - 24
	if barWidth < 10 {
		barWidth = 10
	}
	lines = append(lines, StyleLabel.Render("  Sidelobe  ")+renderLevelBar(m.SidelobeLevelDB, barWidth)+
		StyleValue.Render(fmt.Sprintf(" %.1f dB", m.SidelobeLevelDB)))

	// Element table
	lines = append(lines, "", StyleLabel.Render(fmt.Sprintf("  %3s %9s %9s %11s", "#", "x", "y", "freq")))
	tableRows := height - len(lines) - 12
	if tableRows < 3 {
		tableRows = 3
	}
	start := 0
	if d.Selected >= tableRows {
		start = d.Selected - tableRows + 1
	}
	for i := start; i < len(a.Elements) && i < start+tableRows; i++ {
		lines = append(lines, renderElementRow(a.Elements[i], i == d.Selected))
	}
	if len(a.Elements) > start+tableRows {
		lines = append(lines, StyleHelp.Render(fmt.Sprintf("  ... %d more", len(a.Elements)-start-tableRows)))
	}

	if len(d.Latencies) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		last := d.Latencies[len(d.Latencies)-1]
		lines = append(lines, "",
			StyleLabel.Render(fmt.Sprintf("  Recompute history (last %.1f ms):", last)),
			"  "+fg(ColorTrace).Render(renderSparkline(d.Latencies, sparkW)))
	}

	// Steering dial
	dialH := height - len(lines) - 4
	if dialH >= 5 {
		dialW := min(innerW, dialH*4)
		dial := RenderSteeringDial(dialW, dialH, float64(m.MainLobeDeg), float64(m.BeamwidthDeg))
		pad := strings.Repeat(" ", max(0, (innerW-dialW)/2))
		for _, l := range strings.Split(dial, "\n") {
			lines = append(lines, pad+l)
		}
	}

	for len(lines) < height-2 {
		lines = append(lines, "")
	}
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}
	return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func renderElementRow(e beam.Element, selected bool) string {
	pin := " "
	if e.Pinned {
		pin = "*"
	}
	raw := fmt.Sprintf("  %3d %+9.3f %+9.3f %11s %s", e.Index, e.X, e.Y, FormatFrequency(e.Frequency), pin)
	if selected {
		return cursorRowSty.Render(raw)
	}
	if e.Pinned {
		return StylePinned.Render(raw)
	}
	return StyleArrayParam.Render(raw)
}

// renderLevelBar maps a level in dB (-40..0) onto a filled bar; lower
// sidelobes draw shorter bars.
func renderLevelBar(db float64, width int) string {
	ratio := (db + 40.0) / 40.0
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(levelColor(db))).Render(bar[:filled])
	emptyPart := fg(ColorFaint).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

// levelColor goes from green (low sidelobes) to red (high).
func levelColor(db float64) string {
	if db < -25 {
		return "#00FF41"
	}
	if db < -15 {
		return "#00CC33"
	}
	if db < -10 {
		return "#FFCC00"
	}
	return "#FF3300"
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	// Take last `width` values
	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	values = values[start:]

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rng := maxV - minV
	if rng <= 0 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}
	return sb.String()
}
