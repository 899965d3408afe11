package config

import "time"

const (
	// Polar display
	AspectRatio   = 0.5 // Terminal char aspect correction (chars are ~2:1 tall)
	RingCount     = 4   // Intensity rings at 0.25, 0.5, 0.75, 1
	SweepSpeedDPS = 45  // Cursor sweep speed in degrees per second
	SweepTrailDeg = 12  // Cursor trail width in degrees
	TargetFPS     = 30  // Target frames per second

	// Heatmap display
	HeatmapShades = " .:-=+*#%@" // Low to high intensity

	// Recompute
	RecomputeDebounce = 120 * time.Millisecond // Coalesce bursts of parameter changes
	LatencyHistory    = 60                     // Recompute durations kept for the sparkline

	// Controls
	SpacingStep   = 0.05 // meters
	LambdaStep    = 0.05
	DelayStep     = 5.0 // degrees
	RotationStep  = 5.0 // degrees
	PositionStep  = 0.1 // meters
	CurvatureStep = 0.5
	FrequencyStep = 0.05 // fraction of current frequency

	// Demo mode
	DemoSweepPeriod = 8 * time.Second // One full combined-delay sweep
	DemoSweepSpan   = 90.0            // +/- degrees of combined delay
	DemoInterval    = 150 * time.Millisecond

	// App
	AppName    = "BEAMSIM"
	AppVersion = "1.0"

	// ServiceName identifies the process in traces.
	ServiceName = "beamsim"
)
