package app

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// LatencyRing is a circular buffer of recompute durations in milliseconds.
type LatencyRing struct {
	buf   []float64
	pos   int
	count int
}

// NewLatencyRing creates a new circular buffer with the given capacity.
func NewLatencyRing(capacity int) *LatencyRing {
	if capacity < 1 {
		capacity = 1
	}
	return &LatencyRing{
		buf: make([]float64, capacity),
	}
}

// Push records one recompute duration.
func (r *LatencyRing) Push(d time.Duration) {
	r.buf[r.pos] = float64(d) / float64(time.Millisecond)
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *LatencyRing) Values() []float64 {
	if r.count == 0 {
		return nil
	}
	result := make([]float64, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		n := copy(result, r.buf[r.pos:])
		copy(result[n:], r.buf[:r.pos])
	}
	return result
}

// Last returns the most recent duration, or 0 if empty.
func (r *LatencyRing) Last() time.Duration {
	if r.count == 0 {
		return 0
	}
	idx := (r.pos - 1 + len(r.buf)) % len(r.buf)
	return time.Duration(r.buf[idx] * float64(time.Millisecond))
}

// Mean returns the average stored duration in milliseconds.
func (r *LatencyRing) Mean() float64 {
	if r.count == 0 {
		return 0
	}
	return stat.Mean(r.Values(), nil)
}

// Len returns the number of stored values.
func (r *LatencyRing) Len() int {
	return r.count
}
