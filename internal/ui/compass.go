package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderSteeringDial renders a half dial with an arrow along the main lobe.
// mainLobeDeg is measured from +x (right) counterclockwise. Narrow beams
// draw longer arrows.
func RenderSteeringDial(width, height int, mainLobeDeg, beamwidthDeg float64) string {
	if width < 9 || height < 5 {
		return ""
	}

	grid := make([][]byte, height)
	isArrow := make([][]bool, height)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(" ", width))
		isArrow[i] = make([]bool, width)
	}

	fcx := float64(width-1) / 2.0
	fcy := float64(height - 2) // baseline row, leaving one row for labels
	rx := fcx - 1.0
	ry := fcy - 1.0
	if rx < 3 {
		rx = 3
	}
	if ry < 2 {
		ry = 2
	}

	// Upper half ring
	steps := 60
	for i := 0; i <= steps; i++ {
		a := float64(i) * math.Pi / float64(steps)
		col := int(math.Round(fcx + rx*math.Cos(a)))
		row := int(math.Round(fcy - ry*math.Sin(a)))
		setGrid(grid, width, height, col, row, ringChar(a))
	}

	cx := int(math.Round(fcx))
	cy := int(math.Round(fcy))

	// Baseline and angle markers
	for c := cx - int(rx); c <= cx+int(rx); c++ {
		if c >= 0 && c < width && grid[cy][c] == ' ' {
			grid[cy][c] = '.'
		}
	}
	setGrid(grid, width, height, cx+int(math.Round(rx)), cy+1, '0')
	setGrid(grid, width, height, cx, cy-int(math.Round(ry))-1, '^')
	for i, ch := range []byte("180") {
		setGrid(grid, width, height, cx-int(math.Round(rx))-1+i, cy+1, ch)
	}
	setGrid(grid, width, height, cx, cy, '+')

	// Arrow length: 0.85 of the radius for a pencil beam down to 0.3 for an
	// omnidirectional one.
	maxFrac, minFrac := 0.85, 0.3
	widthFrac := math.Min(math.Max(beamwidthDeg, 0)/180.0, 1.0)
	arrowFrac := maxFrac - (maxFrac-minFrac)*widthFrac

	angle := mainLobeDeg * math.Pi / 180
	cosA, sinA := math.Cos(angle), math.Sin(angle)

	shaftSteps := int(math.Max(rx, ry) * arrowFrac)
	if shaftSteps < 2 {
		shaftSteps = 2
	}
	tipCol, tipRow := cx, cy
	for s := 1; s <= shaftSteps; s++ {
		t := float64(s) / float64(shaftSteps) * arrowFrac
		col := int(math.Round(fcx + t*rx*cosA))
		row := int(math.Round(fcy - t*ry*sinA))
		if col >= 0 && col < width && row >= 0 && row < height {
			grid[row][col] = shaftChar(angle)
			isArrow[row][col] = true
			tipCol, tipRow = col, row
		}
	}
	grid[tipRow][tipCol] = arrowTip(angle)
	isArrow[tipRow][tipCol] = true

	arrowSty := strong(ColorBeam)
	ringSty := fg(ColorFaint)
	axisSty := lipgloss.NewStyle().Foreground(lipgloss.Color("#003300"))
	markSty := strong(ColorTrace)

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			ch := grid[row][col]
			switch {
			case isArrow[row][col]:
				sb.WriteString(arrowSty.Render(string(ch)))
			case ch == '+' || ch == '^' || (ch >= '0' && ch <= '9'):
				sb.WriteString(markSty.Render(string(ch)))
			case ch == '.':
				sb.WriteString(axisSty.Render(string(ch)))
			case ch != ' ':
				sb.WriteString(ringSty.Render(string(ch)))
			default:
				sb.WriteByte(' ')
			}
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func setGrid(grid [][]byte, w, h, col, row int, ch byte) {
	if col >= 0 && col < w && row >= 0 && row < h {
		grid[row][col] = ch
	}
}

// sector splits the circle into 8 slices with 0 centered on +x.
func sector(a float64) int {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return int(math.Round(a/(math.Pi/4))) % 8
}

// ringChar returns the character tangent to a ring at angle a.
func ringChar(a float64) byte {
	switch sector(a) {
	case 0, 4:
		return '|'
	case 1, 5:
		return '\\'
	case 2, 6:
		return '-'
	default:
		return '/'
	}
}

// shaftChar returns the line character for a radial direction.
func shaftChar(a float64) byte {
	switch sector(a) {
	case 0, 4:
		return '-'
	case 2, 6:
		return '|'
	case 1, 5:
		return '/'
	default:
		return '\\'
	}
}

// arrowTip returns the arrowhead character for a given angle.
func arrowTip(a float64) byte {
	return ">/^\\</v\\"[sector(a)]
}
