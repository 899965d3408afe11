package beam

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// HeatmapGain is the fixed gain inside the log compression step.
const HeatmapGain = 10.0

// NormalizeHeatmap maps a raw field onto [0,1] for display: power, log
// compression, min-max over the whole grid, then a 0.5 gamma. A flat field
// maps to all zeros.
func NormalizeHeatmap(raw [][]float64) [][]float64 {
	out := make([][]float64, len(raw))
	lo, hi := math.Inf(1), math.Inf(-1)
	for r, row := range raw {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			out[r][c] = math.Log1p(HeatmapGain * v * v)
		}
		if len(row) > 0 {
			lo = math.Min(lo, floats.Min(out[r]))
			hi = math.Max(hi, floats.Max(out[r]))
		}
	}
	span := hi - lo
	if !(span > 0) {
		span = 1
	}
	for _, row := range out {
		floats.AddConst(-lo, row)
		for c, v := range row {
			row[c] = math.Sqrt(v / span)
		}
	}
	return out
}

// NormalizePattern divides by the maximum magnitude, or by 1 when every
// value is zero.
func NormalizePattern(mag []float64) []float64 {
	out := make([]float64, len(mag))
	copy(out, mag)
	if len(out) == 0 {
		return out
	}
	peak := floats.Max(out)
	if !(peak > 0) {
		peak = 1
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}
