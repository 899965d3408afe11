package beam

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MainLobeGuard is the number of samples either side of the peak that
	// are excluded from the sidelobe search.
	MainLobeGuard = 10

	// SidelobeFloorDB is reported when no sidelobe energy exists.
	SidelobeFloorDB = -100.0
)

// BeamMetrics summarizes a beam pattern.
type BeamMetrics struct {
	MainLobeDeg     int     `json:"main_lobe_deg"`
	BeamwidthDeg    int     `json:"beamwidth_3db_deg"`
	SidelobeLevelDB float64 `json:"sidelobe_level_db"`
	DirectivityDB   float64 `json:"directivity_db"`
	PeakIntensity   float64 `json:"peak_intensity"`
}

// Metrics derives main lobe direction, -3 dB beamwidth, peak sidelobe
// level and a simplified directivity from p.
func (p BeamPattern) Metrics() BeamMetrics {
	if len(p.R) == 0 {
		return BeamMetrics{SidelobeLevelDB: SidelobeFloorDB}
	}
	peakIdx := floats.MaxIdx(p.R)
	peak := p.R[peakIdx]
	m := BeamMetrics{
		MainLobeDeg:     p.Theta[peakIdx],
		PeakIntensity:   peak,
		SidelobeLevelDB: SidelobeFloorDB,
	}
	if !(peak > 0) {
		return m
	}

	power := make([]float64, len(p.R))
	floats.MulTo(power, p.R, p.R)
	half := power[peakIdx] / 2

	left, right := peakIdx, peakIdx
	for left > 0 && power[left] > half {
		left--
	}
	for right < len(power)-1 && power[right] > half {
		right++
	}
	m.BeamwidthDeg = p.Theta[right] - p.Theta[left]

	side := 0.0
	for i, r := range p.R {
		if i >= peakIdx-MainLobeGuard && i <= peakIdx+MainLobeGuard {
			continue
		}
		side = math.Max(side, r)
	}
	if side > 0 {
		m.SidelobeLevelDB = math.Max(20*math.Log10(side/peak), SidelobeFloorDB)
	}

	if mean := stat.Mean(power, nil); mean > 0 {
		m.DirectivityDB = 10 * math.Log10(power[peakIdx]/mean)
	}
	return m
}
