package ui

import (
	"fmt"
	"strings"

	"beamsim.klederson.com/internal/beam"
	"github.com/charmbracelet/lipgloss"
)

// Cursor row style: black text on bright green = unmissable highlight
var cursorRowSty = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#000000")).
	Background(ColorBeam).
	Bold(true)

// RenderArrayList renders the scrollable array list with the active array
// highlighted. The title stays fixed at the top; only the entries scroll.
func RenderArrayList(arrays []*beam.Array, width, height int, active beam.Handle, c float64) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("ARRAYS [%d]", len(arrays)))
	separator := StyleSeparator.Render(strings.Repeat("-", innerW))
	headerLines := []string{title, separator}
	headerCount := len(headerLines)

	// Total inner height (excluding border top+bottom)
	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}
	space := innerH - headerCount

	var lines []string
	if len(arrays) == 0 {
		lines = append(lines, "", StyleHelp.Render(" No arrays."), StyleHelp.Render(" [A] adds one"))
	} else {
		linesPerEntry := 4 // 3 content + 1 blank
		maxVisible := space / linesPerEntry
		if maxVisible < 1 {
			maxVisible = 1
		}

		// Compute viewport start so the active entry is always visible
		viewStart := 0
		if int(active) >= maxVisible {
			viewStart = int(active) - maxVisible + 1
		}

		for i := viewStart; i < len(arrays) && len(lines) < space; i++ {
			entry := renderArrayEntry(arrays[i], i, innerW, beam.Handle(i) == active, c)
			for _, l := range entry {
				if len(lines) >= space {
					break
				}
				lines = append(lines, l)
			}
		}
	}

	for len(lines) < space {
		lines = append(lines, "")
	}

	all := append(headerLines, lines[:space]...)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))

	// lipgloss Height() only sets a minimum; clamp overflow.
	outLines := strings.Split(rendered, "\n")
	if len(outLines) > height {
		outLines = outLines[:height]
	}
	for len(outLines) < height {
		outLines = append(outLines, "")
	}
	return strings.Join(outLines, "\n")
}

// SpacingLabel describes the array's spacing in its own mode.
func SpacingLabel(a *beam.Array, c float64) string {
	if a.SpacingMode == beam.SpacingLambda {
		return fmt.Sprintf("%.2fλ (%.3gm)", a.LambdaMultiplier, a.EffectiveSpacing(c))
	}
	return fmt.Sprintf("%.3gm", a.Spacing)
}

func renderArrayEntry(a *beam.Array, i, maxW int, isActive bool, c float64) []string {
	cursor := "  "
	if isActive {
		cursor = ">>"
	}

	pins := 0
	for _, e := range a.Elements {
		if e.Pinned {
			pins++
		}
	}
	pinTag := ""
	if pins > 0 {
		pinTag = fmt.Sprintf(" %d pinned", pins)
	}

	name := a.Name
	nameMax := maxW - 16
	if nameMax < 4 {
		nameMax = 4
	}
	if len(name) > nameMax {
		name = name[:nameMax]
	}
	tag := "[" + a.Geometry.String() + "]"

	raw1 := fmt.Sprintf("%s o %s %s", cursor, name, tag)
	raw2 := fmt.Sprintf("     N=%d d=%s delay%+.0f°", a.Len(), SpacingLabel(a, c), a.DelayDeg)
	base3 := fmt.Sprintf("     @(%+.1f,%+.1f) rot%+.0f°", a.PosX, a.PosY, a.RotationDeg)
	raw3 := base3 + pinTag

	raw1 = truncRaw(raw1, maxW)
	raw2 = truncRaw(raw2, maxW)
	raw3 = truncRaw(raw3, maxW)

	if isActive {
		return []string{cursorRowSty.Render(raw1), cursorRowSty.Render(raw2), cursorRowSty.Render(raw3), ""}
	}

	marker := lipgloss.NewStyle().Foreground(lipgloss.Color(beam.ColorFor(i))).Bold(true).Render("o")
	line1 := fmt.Sprintf("   %s %s %s", marker, StyleArrayName.Render(name), StyleArrayDim.Render(tag))
	line2 := StyleArrayParam.Render(raw2)
	line3 := StyleArrayDim.Render(base3) + StylePinned.Render(pinTag)
	return []string{line1, line2, line3, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	if len(r) < w {
		return s + strings.Repeat(" ", w-len(r))
	}
	return s
}
