// Package radar draws the synthesis outputs as terminal graphics: a polar
// scope for the beam pattern and a shaded heatmap with element markers.
package radar

import (
	"fmt"
	"math"
	"strings"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorBright = lipgloss.Color("#00FF41")
	colorMid    = lipgloss.Color("#008F11")
	colorDim    = lipgloss.Color("#004A0A")

	styleOrigin = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing   = lipgloss.NewStyle().Foreground(colorMid)
	styleDot    = lipgloss.NewStyle().Foreground(colorDim)
	styleTrace  = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleLobe   = lipgloss.NewStyle().Foreground(colorMid)
	styleLegend = lipgloss.NewStyle().Foreground(colorMid)
)

// heatColors runs from cold to hot.
var heatColors = []lipgloss.Color{"#0B0B3B", "#1F3A93", "#008F11", "#00FF41", "#FFCC00", "#FF3300"}

// RenderPattern produces the polar beam-pattern display as a styled string.
// The origin sits in the middle of the bottom row, 0 deg points right and
// 180 deg points left.
func RenderPattern(width, height int, p beam.BeamPattern, cursor *Cursor) string {
	if width < 10 || height < 5 {
		return ""
	}

	centerX := width / 2
	centerY := height - 1
	radius := float64(min(centerX-1, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}

	ringRadii := make([]float64, config.RingCount)
	for i := range ringRadii {
		ringRadii[i] = radius * float64(i+1) / float64(config.RingCount)
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			sb.WriteString(renderPatternCell(col, row, centerX, centerY, radius, ringRadii, p, cursor))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func renderPatternCell(col, row, centerX, centerY int, radius float64, ringRadii []float64, p beam.BeamPattern, cursor *Cursor) string {
	dist := CellDistance(col, row, centerX, centerY)
	angle := CellAngle(col, row, centerX, centerY)

	if dist > radius+0.5 {
		return " "
	}
	if col == centerX && row == centerY {
		return styleOrigin.Render("+")
	}
	if row == centerY {
		return renderCursorChar('-', cursor, angle)
	}

	lobe := PatternAt(p.Theta, p.R, angle*180/math.Pi) * radius
	if math.Abs(dist-lobe) < 0.7 {
		if cursor != nil && cursor.Intensity(angle) > 0.5 {
			return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Render("*")
		}
		return styleTrace.Render("*")
	}

	for _, ringR := range ringRadii {
		if math.Abs(dist-ringR) < 0.6 {
			return renderCursorChar(RingChar(angle), cursor, angle)
		}
	}

	if dist < lobe {
		return renderCursorCell(':', styleLobe, cursor, angle)
	}
	return renderCursorCell('.', styleDot, cursor, angle)
}

func renderCursorChar(ch rune, cursor *Cursor, angle float64) string {
	return renderCursorCell(ch, styleRing, cursor, angle)
}

func renderCursorCell(ch rune, base lipgloss.Style, cursor *Cursor, angle float64) string {
	if cursor == nil {
		return base.Render(string(ch))
	}
	color := cursorColor(cursor.Intensity(angle))
	if color == "" {
		return base.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func cursorColor(intensity float64) string {
	if intensity <= 0 {
		return ""
	}
	if intensity > 0.8 {
		return "#00FF41"
	}
	if intensity > 0.5 {
		return "#00CC33"
	}
	if intensity > 0.3 {
		return "#00AA22"
	}
	return "#005511"
}

// CursorReadout describes the pattern under the cursor, e.g.
// "θ  45°  r 0.71  -3.0 dB".
func CursorReadout(p beam.BeamPattern, cursor *Cursor) string {
	deg := cursor.Degrees()
	r := PatternAt(p.Theta, p.R, deg)
	db := "-inf dB"
	if r > 0 {
		db = fmt.Sprintf("%.1f dB", 20*math.Log10(r))
	}
	return fmt.Sprintf("θ %3.0f°  r %.2f  %s", deg, r, db)
}

// ShadeFor maps a normalized intensity onto the heatmap character ramp.
func ShadeFor(v float64) byte {
	shades := config.HeatmapShades
	i := CellRange(v, 0, 1, len(shades))
	return shades[i]
}

func heatColor(v float64) lipgloss.Color {
	return heatColors[CellRange(v, 0, 1, len(heatColors))]
}

// RenderHeatmap downsamples hm onto width x height cells, highest y on top,
// and marks every overlay element inside the window with its array color.
func RenderHeatmap(width, height int, hm beam.Heatmap, ov beam.Overlay) string {
	if width < 2 || height < 2 || len(hm.Z) == 0 || len(hm.X) == 0 {
		return ""
	}
	rows, cols := len(hm.Z), len(hm.X)
	x0, x1 := hm.X[0], hm.X[cols-1]
	y0, y1 := hm.Y[0], hm.Y[rows-1]

	marks := make(map[int]string, len(ov.X))
	for i := range ov.X {
		x, y := ov.X[i], ov.Y[i]
		if x < x0 || x > x1 || y < y0 || y > y1 {
			continue
		}
		col := CellRange(x, x0, x1, width)
		row := height - 1 - CellRange(y, y0, y1, height)
		marks[row*width+col] = ov.Color[i]
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		r := CellRange(float64(height-1-row), 0, float64(height-1), rows)
		for col := 0; col < width; col++ {
			if color, ok := marks[row*width+col]; ok {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render("o"))
				continue
			}
			c := CellRange(float64(col), 0, float64(width-1), cols)
			v := hm.Z[r][c]
			sb.WriteString(lipgloss.NewStyle().Foreground(heatColor(v)).Render(string(ShadeFor(v))))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RenderLegend lists the arrays with their overlay colors, centered.
func RenderLegend(width int, names []string) string {
	if len(names) == 0 {
		return strings.Repeat(" ", max(width, 0))
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(beam.ColorFor(i))).Render("o " + n)
	}
	legend := styleLegend.Render(" ") + strings.Join(parts, "  ")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}
