package app

import (
	"time"

	"beamsim.klederson.com/internal/beam"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// recomputeMsg fires when the debounce window for generation gen closes.
type recomputeMsg struct {
	gen uint64
}

// frameMsg carries a finished synthesis pass.
type frameMsg struct {
	gen     uint64
	frame   beam.Frame
	metrics beam.BeamMetrics
	elapsed time.Duration
	err     error
}

// savedMsg reports the result of writing the scenario file.
type savedMsg struct {
	path string
	err  error
}
