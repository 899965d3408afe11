package radar

import (
	"math"
	"strings"
	"testing"
	"time"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/config"
	"github.com/charmbracelet/lipgloss"
)

const epsilon = 1e-9

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

// ---------- geometry ----------

func TestCellAngle_Quadrants(t *testing.T) {
	cases := []struct {
		name     string
		col, row int
		wantDeg  float64
	}{
		{"right", 15, 10, 0},
		{"up", 10, 5, 90},
		{"left", 5, 10, 180},
		{"down", 10, 15, 270},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CellAngle(tc.col, tc.row, 10, 10) * 180 / math.Pi
			if !approx(got, tc.wantDeg, 1e-9) {
				t.Errorf("CellAngle = %v, want %v", got, tc.wantDeg)
			}
		})
	}
}

func TestCellDistance_AspectRatio(t *testing.T) {
	if d := CellDistance(10, 8, 10, 10); !approx(d, 2/config.AspectRatio, epsilon) {
		t.Errorf("vertical distance = %v", d)
	}
	if d := CellDistance(13, 10, 10, 10); !approx(d, 3, epsilon) {
		t.Errorf("horizontal distance = %v", d)
	}
}

func TestAngleDiff_Wraps(t *testing.T) {
	if d := AngleDiff(0.1, 2*math.Pi-0.1); !approx(d, 0.2, 1e-12) {
		t.Errorf("AngleDiff = %v, want 0.2", d)
	}
	if n := NormalizeAngle(-math.Pi / 2); !approx(n, 3*math.Pi/2, 1e-12) {
		t.Errorf("NormalizeAngle = %v", n)
	}
}

func TestPatternAt_Interpolates(t *testing.T) {
	theta := []int{0, 1, 2}
	r := []float64{0, 1, 0.5}
	cases := map[float64]float64{0: 0, 0.5: 0.5, 1: 1, 1.5: 0.75, 2: 0.5, -1: 0, 3: 0}
	for deg, want := range cases {
		if got := PatternAt(theta, r, deg); !approx(got, want, 1e-12) {
			t.Errorf("PatternAt(%v) = %v, want %v", deg, got, want)
		}
	}
	if got := PatternAt(nil, nil, 1); got != 0 {
		t.Errorf("empty pattern = %v", got)
	}
}

func TestCellRange_Clamps(t *testing.T) {
	if CellRange(-5, 0, 1, 10) != 0 || CellRange(5, 0, 1, 10) != 9 || CellRange(0.5, 0, 1, 3) != 1 {
		t.Error("CellRange out of bounds")
	}
	if CellRange(1, 1, 1, 10) != 0 {
		t.Error("degenerate range should map to 0")
	}
}

// ---------- cursor ----------

func TestCursor_TriangleWave(t *testing.T) {
	c := NewCursor()
	steps := []struct {
		elapsed time.Duration
		wantDeg float64
	}{
		{0, 0},
		{time.Second, config.SweepSpeedDPS},
		{4 * time.Second, 180},
		{5 * time.Second, 180 - config.SweepSpeedDPS},
		{8 * time.Second, 0},
	}
	for _, s := range steps {
		c.At(s.elapsed)
		if !approx(c.Degrees(), s.wantDeg, 1e-9) {
			t.Errorf("At(%v) = %v deg, want %v", s.elapsed, c.Degrees(), s.wantDeg)
		}
	}
}

func TestCursor_FrozenAndSet(t *testing.T) {
	c := NewCursor()
	c.Set(200)
	if c.Degrees() != 180 {
		t.Errorf("Set(200) = %v, want 180", c.Degrees())
	}
	c.Frozen = true
	c.StartTime = time.Now().Add(-time.Second)
	c.Update()
	if c.Degrees() != 180 {
		t.Errorf("frozen cursor moved to %v", c.Degrees())
	}
}

func TestCursor_Intensity(t *testing.T) {
	c := NewCursor()
	c.Set(90)
	if i := c.Intensity(math.Pi / 2); !approx(i, 1, epsilon) {
		t.Errorf("intensity at cursor = %v", i)
	}
	if i := c.Intensity(math.Pi/2 + config.SweepTrailDeg*math.Pi/180*1.01); i != 0 {
		t.Errorf("intensity past trail = %v", i)
	}
}

// ---------- rendering ----------

func broadsidePattern(t *testing.T) beam.BeamPattern {
	t.Helper()
	p, _ := beam.PresetByName("broadside")
	m := beam.NewManager()
	m.Load(p.Scenario)
	return m.BeamPattern()
}

func TestRenderPattern_Dimensions(t *testing.T) {
	out := RenderPattern(40, 12, broadsidePattern(t), NewCursor())
	lines := strings.Split(out, "\n")
	if len(lines) != 12 {
		t.Fatalf("lines = %d, want 12", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 40 {
			t.Errorf("line %d width = %d, want 40", i, w)
		}
	}
	if !strings.Contains(out, "*") || !strings.Contains(out, "+") {
		t.Error("pattern trace or origin missing")
	}
	if RenderPattern(5, 3, beam.BeamPattern{}, nil) != "" {
		t.Error("tiny area should render nothing")
	}
}

func TestCursorReadout(t *testing.T) {
	c := NewCursor()
	c.Set(90)
	got := CursorReadout(broadsidePattern(t), c)
	if !strings.Contains(got, "90°") || !strings.Contains(got, "r 1.00") || !strings.Contains(got, "0.0 dB") {
		t.Errorf("readout = %q", got)
	}
	if got := CursorReadout(beam.BeamPattern{}, c); !strings.Contains(got, "-inf") {
		t.Errorf("empty readout = %q", got)
	}
}

func TestShadeFor_Ramp(t *testing.T) {
	shades := config.HeatmapShades
	if ShadeFor(0) != shades[0] || ShadeFor(1) != shades[len(shades)-1] {
		t.Errorf("ramp ends = %q %q", ShadeFor(0), ShadeFor(1))
	}
	if ShadeFor(-3) != shades[0] || ShadeFor(7) != shades[len(shades)-1] {
		t.Error("out-of-range values not clamped")
	}
}

func TestRenderHeatmap_MarksElements(t *testing.T) {
	hm := beam.Heatmap{
		Z: [][]float64{{0, 0, 0}, {0, 0, 0}, {1, 1, 1}},
		X: []float64{-1, 0, 1},
		Y: []float64{0, 1, 2},
	}
	ov := beam.Overlay{
		X:     []float64{0, 5},
		Y:     []float64{0, 0},
		Color: []string{beam.Palette[0], beam.Palette[1]},
		Array: []int{0, 0},
	}
	out := RenderHeatmap(3, 3, hm, ov)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}
	if strings.Count(out, "o") != 1 {
		t.Errorf("markers = %d, want 1 (one element is outside the window)", strings.Count(out, "o"))
	}
	if !strings.Contains(lines[0], "@") {
		t.Errorf("top row should be the y=2 row at full intensity: %q", lines[0])
	}
	if !strings.Contains(lines[2], "o") {
		t.Errorf("element at y=0 should be on the bottom row: %q", lines[2])
	}
	if RenderHeatmap(3, 3, beam.Heatmap{}, ov) != "" {
		t.Error("empty heatmap should render nothing")
	}
}

func TestRenderLegend(t *testing.T) {
	out := RenderLegend(60, []string{"Left", "Right"})
	if !strings.Contains(out, "o Left") || !strings.Contains(out, "o Right") {
		t.Errorf("legend = %q", out)
	}
	if w := lipgloss.Width(RenderLegend(10, nil)); w != 10 {
		t.Errorf("empty legend width = %d", w)
	}
}
