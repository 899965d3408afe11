package radar

import (
	"math"

	"beamsim.klederson.com/internal/config"
)

// CellDistance computes the distance from a cell to the plot origin,
// accounting for terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle computes the angle from the origin to a cell.
// Returns radians in [0, 2π), where 0=+x (right), increasing counterclockwise,
// so the upper half plane covers [0, π].
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return NormalizeAngle(math.Atan2(-dy, dx))
}

// RingChar returns the character that best follows a ring at the given angle.
func RingChar(angle float64) rune {
	sector := int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8

	switch sector {
	case 0, 4: // Right, left
		return '|'
	case 1, 5:
		return '\\'
	case 2, 6: // Top, bottom
		return '-'
	case 3, 7:
		return '/'
	default:
		return '.'
	}
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest angular distance between two angles.
// Result is in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// PatternAt linearly interpolates a one-sample-per-degree pattern at deg.
// Angles outside the sampled range return 0.
func PatternAt(theta []int, r []float64, deg float64) float64 {
	if len(theta) == 0 || len(theta) != len(r) {
		return 0
	}
	first, last := float64(theta[0]), float64(theta[len(theta)-1])
	if deg < first || deg > last {
		return 0
	}
	pos := deg - first
	i := int(pos)
	if i >= len(r)-1 {
		return r[len(r)-1]
	}
	frac := pos - float64(i)
	return r[i]*(1-frac) + r[i+1]*frac
}

// CellRange maps a value in [lo, hi] onto n cells, clamped to [0, n-1].
func CellRange(v, lo, hi float64, n int) int {
	if n <= 1 || hi <= lo {
		return 0
	}
	i := int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
