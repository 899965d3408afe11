package beam

import (
	"context"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

const (
	PatternMinDeg = 0
	PatternMaxDeg = 180
)

// Grid describes the heatmap sampling window: x spans [-ExtentX, ExtentX]
// and y spans [0, ExtentY].
type Grid struct {
	Rows    int     `json:"rows"`
	Cols    int     `json:"cols"`
	ExtentX float64 `json:"extent_x"`
	ExtentY float64 `json:"extent_y"`
}

// DefaultGrid is the interactive 200x200 window.
var DefaultGrid = Grid{Rows: 200, Cols: 200, ExtentX: 2, ExtentY: 4}

// MaxGridSize bounds rows and columns.
const MaxGridSize = 2000

// Validate reports ErrInvalidGrid for degenerate or oversized windows.
func (g Grid) Validate() error {
	if g.Rows < 2 || g.Cols < 2 || g.Rows > MaxGridSize || g.Cols > MaxGridSize ||
		!(g.ExtentX > 0) || !(g.ExtentY > 0) || math.IsInf(g.ExtentX, 0) || math.IsInf(g.ExtentY, 0) {
		return ErrInvalidGrid
	}
	return nil
}

// Axes returns the column (x) and row (y) coordinates.
func (g Grid) Axes() (xs, ys []float64) {
	xs = floats.Span(make([]float64, g.Cols), -g.ExtentX, g.ExtentX)
	ys = floats.Span(make([]float64, g.Rows), 0, g.ExtentY)
	return xs, ys
}

// Field is a raw superposed field, Values[row][col].
type Field struct {
	Values [][]float64
	X, Y   []float64
}

// Heatmap is the display-normalized field.
type Heatmap struct {
	Z [][]float64 `json:"z"`
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
}

// BeamPattern is the normalized azimuth response, one sample per degree.
type BeamPattern struct {
	Theta []int     `json:"theta"`
	R     []float64 `json:"r"`
}

// Frame bundles every synthesis output computed from one consistent state.
type Frame struct {
	Heatmap Heatmap     `json:"heatmap"`
	Pattern BeamPattern `json:"pattern"`
	Overlay Overlay     `json:"overlay"`
}

// Synthesize computes heatmap, beam pattern and overlay under a single read
// lock.
func (m *Manager) Synthesize(ctx context.Context, g Grid) (Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, err := sampleField(ctx, m.arrays, m.speed, m.combinedDelayDeg, g)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Heatmap: Heatmap{Z: NormalizeHeatmap(f.Values), X: f.X, Y: f.Y},
		Pattern: samplePattern(m.arrays, m.speed, m.combinedDelayDeg),
		Overlay: buildOverlay(m.arrays),
	}, nil
}

func delayRad(a *Array, combinedDeg float64) float64 {
	return (a.DelayDeg + combinedDeg) * math.Pi / 180
}

// sampleField superposes every element of every array on the grid. The
// context is checked once per row so stale passes stop early.
func sampleField(ctx context.Context, arrays []*Array, c, combinedDeg float64, g Grid) (Field, error) {
	if err := g.Validate(); err != nil {
		return Field{}, err
	}
	xs, ys := g.Axes()
	values := make([][]float64, g.Rows)

	type prepared struct {
		a        *Array
		sin, cos float64 // of -rotation
		delay    float64
		fmax     float64
	}
	prep := make([]prepared, len(arrays))
	for i, a := range arrays {
		sin, cos := math.Sincos(-a.RotationDeg * math.Pi / 180)
		prep[i] = prepared{a: a, sin: sin, cos: cos, delay: delayRad(a, combinedDeg), fmax: a.MaxFrequency()}
	}

	for r, y := range ys {
		if err := ctx.Err(); err != nil {
			return Field{}, err
		}
		row := make([]float64, g.Cols)
		for col, x := range xs {
			sum := 0.0
			for _, p := range prep {
				dx, dy := x-p.a.PosX, y-p.a.PosY
				lx := dx*p.cos - dy*p.sin
				ly := dx*p.sin + dy*p.cos
				for i, e := range p.a.Elements {
					sum += e.NearField(lx, ly, -float64(i)*p.delay, c, p.fmax)
				}
			}
			row[col] = sum
		}
		values[r] = row
	}
	return Field{Values: values, X: xs, Y: ys}, nil
}

// arrayFactor returns the complex far-field sum of one array at azimuth
// theta (radians from +x), rotated by the phase of the array's offset from
// the origin. Rotation of the array itself is not taken into account here.
func arrayFactor(a *Array, theta, c, delay float64) complex128 {
	fmax := a.MaxFrequency()
	// theta runs from +x, so x·sin ψ + y·cos ψ at ψ = π/2 − theta equals
	// x·cos theta + y·sin theta and 90° is broadside.
	offBroadside := math.Pi/2 - theta
	var af complex128
	for i, e := range a.Elements {
		af += e.FarField(offBroadside, -float64(i)*delay, c, fmax)
	}
	kAvg := 2 * math.Pi * a.AverageFrequency() / c
	sin, cos := math.Sincos(theta)
	posPhase := kAvg * (a.PosX*cos + a.PosY*sin)
	return af * cmplx.Exp(complex(0, posPhase))
}

func rawPattern(arrays []*Array, c, combinedDeg float64) ([]int, []float64) {
	n := PatternMaxDeg - PatternMinDeg + 1
	theta := make([]int, n)
	mag := make([]float64, n)
	for i := range theta {
		deg := PatternMinDeg + i
		theta[i] = deg
		rad := float64(deg) * math.Pi / 180
		var total complex128
		for _, a := range arrays {
			total += arrayFactor(a, rad, c, delayRad(a, combinedDeg))
		}
		mag[i] = cmplx.Abs(total)
	}
	return theta, mag
}

func samplePattern(arrays []*Array, c, combinedDeg float64) BeamPattern {
	theta, mag := rawPattern(arrays, c, combinedDeg)
	return BeamPattern{Theta: theta, R: NormalizePattern(mag)}
}
