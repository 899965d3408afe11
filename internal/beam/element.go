package beam

import "math"

// Element is a single isotropic point radiator inside an Array.
type Element struct {
	Index     int     `json:"index"`
	X         float64 `json:"x"` // array-local meters
	Y         float64 `json:"y"`
	Frequency float64 `json:"frequency"` // Hz
	Pinned    bool    `json:"pinned"`    // manually placed; skipped by RecomputePositions
}

// Wavenumber returns k = 2πf/c.
func (e Element) Wavenumber(c float64) float64 {
	return 2 * math.Pi * e.Frequency / c
}

// NearField returns the scalar wave contribution at the local point (x, y).
// Amplitude is scaled by Frequency/fmax so that elements at higher
// frequencies do not dominate the sum.
func (e Element) NearField(x, y, phase, c, fmax float64) float64 {
	if fmax <= 0 {
		return 0
	}
	r := math.Hypot(e.X-x, e.Y-y)
	return (e.Frequency / fmax) * math.Cos(e.Wavenumber(c)*r+phase)
}

// FarField returns the complex array-factor term in direction psi, measured
// in radians from the array broadside (+y) towards +x.
func (e Element) FarField(psi, phase, c, fmax float64) complex128 {
	if fmax <= 0 {
		return 0
	}
	sin, cos := math.Sincos(psi)
	g := e.Wavenumber(c)*(e.X*sin+e.Y*cos) + phase
	amp := e.Frequency / fmax
	return complex(amp*math.Cos(g), amp*math.Sin(g))
}
