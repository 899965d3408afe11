package radar

import (
	"math"
	"time"

	"beamsim.klederson.com/internal/config"
)

// Cursor is the angle readout that sweeps back and forth across the
// pattern's 0..180 degree span.
type Cursor struct {
	Angle     float64 // Current angle in radians [0, π]
	StartTime time.Time
	Frozen    bool
}

// NewCursor creates a cursor starting at 0 degrees (+x).
func NewCursor() *Cursor {
	return &Cursor{StartTime: time.Now()}
}

// Update advances the cursor based on elapsed time. A frozen cursor keeps
// its angle.
func (c *Cursor) Update() {
	if c.Frozen {
		return
	}
	c.At(time.Since(c.StartTime))
}

// At places the cursor where it is after elapsed time: a triangle wave
// running 0 -> π -> 0 at SweepSpeedDPS.
func (c *Cursor) At(elapsed time.Duration) {
	deg := math.Mod(elapsed.Seconds()*config.SweepSpeedDPS, 360)
	if deg > 180 {
		deg = 360 - deg
	}
	c.Angle = deg * math.Pi / 180
}

// Set moves the cursor to deg, clamped to [0, 180].
func (c *Cursor) Set(deg float64) {
	c.Angle = math.Max(0, math.Min(180, deg)) * math.Pi / 180
}

// Degrees returns the current cursor angle in degrees.
func (c *Cursor) Degrees() float64 {
	return c.Angle * 180 / math.Pi
}

// Intensity returns the glow intensity [0, 1] for a given cell angle.
// The cursor glows SweepTrailDeg degrees to either side.
func (c *Cursor) Intensity(cellAngle float64) float64 {
	diff := AngleDiff(c.Angle, cellAngle)
	trailRad := config.SweepTrailDeg * math.Pi / 180.0
	if diff > trailRad {
		return 0
	}
	// Linear falloff: 1.0 at the cursor -> 0.0 at trail end
	return 1.0 - diff/trailRad
}
