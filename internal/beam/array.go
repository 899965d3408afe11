package beam

import (
	"fmt"
	"math"
	"strings"
)

// Geometry selects how element positions are laid out.
type Geometry int

const (
	GeometryLinear Geometry = iota
	GeometryCurved
)

func (g Geometry) String() string {
	switch g {
	case GeometryCurved:
		return "Curved"
	default:
		return "Linear"
	}
}

// ParseGeometry maps a record value onto a Geometry. Unknown values fall
// back to Linear and report ok=false.
func ParseGeometry(s string) (Geometry, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return GeometryLinear, true
	case "curved":
		return GeometryCurved, true
	default:
		return GeometryLinear, false
	}
}

// SpacingMode says whether inter-element spacing is absolute or a multiple
// of the average wavelength.
type SpacingMode int

const (
	SpacingAbsolute SpacingMode = iota
	SpacingLambda
)

func (m SpacingMode) String() string {
	switch m {
	case SpacingLambda:
		return "lambda"
	default:
		return "absolute"
	}
}

// ParseSpacingMode maps a record value onto a SpacingMode. Unknown values
// fall back to absolute and report ok=false.
func ParseSpacingMode(s string) (SpacingMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "absolute":
		return SpacingAbsolute, true
	case "lambda":
		return SpacingLambda, true
	default:
		return SpacingAbsolute, false
	}
}

const (
	DefaultArrayName        = "Array"
	DefaultElementCount     = 4
	DefaultSpacing          = 0.5 // meters
	DefaultFrequency        = 1e9 // Hz
	DefaultLambdaMultiplier = 0.5
	DefaultCurvature        = 1.0

	// MaxElementCount bounds the elements of one array.
	MaxElementCount = 1024

	// CurvedBaselineRef lifts curved arrays above the linear baseline.
	CurvedBaselineRef = 1.0 // meters
)

// Array is an ordered set of elements sharing one geometry and one
// progressive phase delay. Fields are read-only outside this package; use
// the setters so element positions stay consistent.
type Array struct {
	Name             string
	Geometry         Geometry
	SpacingMode      SpacingMode
	Spacing          float64 // absolute spacing in meters, kept while in lambda mode
	LambdaMultiplier float64
	Curvature        float64
	DelayDeg         float64
	PosX, PosY       float64
	RotationDeg      float64
	Elements         []Element
}

// NewArray creates an array with the default element count and spacing.
func NewArray(name string, c float64) *Array {
	if name == "" {
		name = DefaultArrayName
	}
	a := &Array{
		Name:             name,
		Spacing:          DefaultSpacing,
		LambdaMultiplier: DefaultLambdaMultiplier,
		Curvature:        DefaultCurvature,
		Elements:         make([]Element, DefaultElementCount),
	}
	for i := range a.Elements {
		a.Elements[i] = Element{Index: i, Frequency: DefaultFrequency}
	}
	a.RecomputePositions(c)
	return a
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	cp := *a
	cp.Elements = make([]Element, len(a.Elements))
	copy(cp.Elements, a.Elements)
	return &cp
}

// Len returns the element count.
func (a *Array) Len() int { return len(a.Elements) }

// AverageFrequency returns the mean element frequency, or 0 for an empty array.
func (a *Array) AverageFrequency() float64 {
	if len(a.Elements) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range a.Elements {
		sum += e.Frequency
	}
	return sum / float64(len(a.Elements))
}

// MaxFrequency returns the highest element frequency, or 0 for an empty array.
func (a *Array) MaxFrequency() float64 {
	fmax := 0.0
	for _, e := range a.Elements {
		if e.Frequency > fmax {
			fmax = e.Frequency
		}
	}
	return fmax
}

// AverageWavelength returns c / f_avg.
func (a *Array) AverageWavelength(c float64) float64 {
	f := a.AverageFrequency()
	if f <= 0 {
		return 0
	}
	return c / f
}

// EffectiveSpacing returns the spacing actually used for placement.
func (a *Array) EffectiveSpacing(c float64) float64 {
	if a.SpacingMode == SpacingLambda {
		return a.AverageWavelength(c) * a.LambdaMultiplier
	}
	return a.Spacing
}

// RecomputePositions lays out every unpinned element along the current
// geometry, centred on the array origin.
func (a *Array) RecomputePositions(c float64) {
	d := a.EffectiveSpacing(c)
	width := float64(len(a.Elements)-1) * d
	for i := range a.Elements {
		e := &a.Elements[i]
		if e.Pinned {
			continue
		}
		e.X = -width/2 + float64(i)*d
		e.Y = 0
		if a.Geometry == GeometryCurved {
			e.Y = 0.2*CurvedBaselineRef + a.Curvature*0.01*e.X*e.X
		}
	}
}

func (a *Array) clearPins() {
	for i := range a.Elements {
		a.Elements[i].Pinned = false
	}
}

// relayout clears manual overrides and recomputes the geometry. Every
// geometry-affecting setter ends here.
func (a *Array) relayout(c float64) {
	a.clearPins()
	a.RecomputePositions(c)
}

// SetElementCount grows or shrinks the array to 1..MaxElementCount
// elements. New elements take the first element's frequency.
func (a *Array) SetElementCount(n int, c float64) error {
	if n < 1 || n > MaxElementCount {
		return fmt.Errorf("set element count %d: %w", n, ErrInvalidCount)
	}
	seed := DefaultFrequency
	if len(a.Elements) > 0 {
		seed = a.Elements[0].Frequency
	}
	if n < len(a.Elements) {
		a.Elements = a.Elements[:n]
	}
	for len(a.Elements) < n {
		a.Elements = append(a.Elements, Element{Frequency: seed})
	}
	for i := range a.Elements {
		a.Elements[i].Index = i
	}
	a.relayout(c)
	return nil
}

// SetSpacing sets the absolute spacing. In lambda mode the value is stored
// and takes effect when switching back to absolute.
func (a *Array) SetSpacing(d, c float64) error {
	if d <= 0 || math.IsNaN(d) {
		return fmt.Errorf("set spacing %g: %w", d, ErrInvalidSpacing)
	}
	a.Spacing = d
	a.relayout(c)
	return nil
}

// SetLambdaMultiplier sets the spacing in wavelengths used by lambda mode.
func (a *Array) SetLambdaMultiplier(m, c float64) error {
	if m <= 0 || math.IsNaN(m) {
		return fmt.Errorf("set lambda multiplier %g: %w", m, ErrInvalidSpacing)
	}
	a.LambdaMultiplier = m
	a.relayout(c)
	return nil
}

// SetSpacingMode switches between absolute and lambda spacing.
func (a *Array) SetSpacingMode(mode SpacingMode, c float64) {
	a.SpacingMode = mode
	a.relayout(c)
}

// SetGeometry switches between linear and curved layout.
func (a *Array) SetGeometry(g Geometry, c float64) {
	a.Geometry = g
	a.relayout(c)
}

// SetCurvature sets the curved-layout shaping coefficient.
func (a *Array) SetCurvature(k, c float64) {
	a.Curvature = k
	a.relayout(c)
}

// SetDelay sets the per-element progressive phase delay in degrees.
func (a *Array) SetDelay(deg float64) { a.DelayDeg = deg }

// SetPosition moves the array origin in the global frame.
func (a *Array) SetPosition(x, y float64) { a.PosX, a.PosY = x, y }

// SetRotation sets the array rotation in degrees.
func (a *Array) SetRotation(deg float64) { a.RotationDeg = deg }

// SetElementPosition places one element manually and pins it until the next
// geometry change.
func (a *Array) SetElementPosition(i int, x, y float64) error {
	if i < 0 || i >= len(a.Elements) {
		return fmt.Errorf("element %d of %d: %w", i, len(a.Elements), ErrInvalidIndex)
	}
	e := &a.Elements[i]
	e.X, e.Y = x, y
	e.Pinned = true
	return nil
}

// SetElementFrequency changes one element's carrier frequency. Pins are kept.
// In lambda mode the effective spacing follows the new average wavelength,
// so unpinned elements are laid out again.
func (a *Array) SetElementFrequency(i int, f float64, c float64) error {
	if i < 0 || i >= len(a.Elements) {
		return fmt.Errorf("element %d of %d: %w", i, len(a.Elements), ErrInvalidIndex)
	}
	if f <= 0 || math.IsNaN(f) {
		return fmt.Errorf("element %d frequency %g: %w", i, f, ErrInvalidFrequency)
	}
	a.Elements[i].Frequency = f
	if a.SpacingMode == SpacingLambda {
		a.RecomputePositions(c)
	}
	return nil
}

// SetAllFrequencies sets every element to f. Like SetElementFrequency it
// keeps pins.
func (a *Array) SetAllFrequencies(f, c float64) error {
	if f <= 0 || math.IsNaN(f) {
		return fmt.Errorf("frequency %g: %w", f, ErrInvalidFrequency)
	}
	for i := range a.Elements {
		a.Elements[i].Frequency = f
	}
	if a.SpacingMode == SpacingLambda {
		a.RecomputePositions(c)
	}
	return nil
}

// Reset restores every parameter to its default, keeping the name.
func (a *Array) Reset(c float64) {
	*a = *NewArray(a.Name, c)
}

// toLocal maps a global point into the array frame: translate by the
// negated position, then rotate by the negated rotation.
func (a *Array) toLocal(x, y float64) (float64, float64) {
	return rotate(x-a.PosX, y-a.PosY, -a.RotationDeg*math.Pi/180)
}

// toGlobal is the inverse of toLocal.
func (a *Array) toGlobal(x, y float64) (float64, float64) {
	gx, gy := rotate(x, y, a.RotationDeg*math.Pi/180)
	return gx + a.PosX, gy + a.PosY
}

func rotate(x, y, rad float64) (float64, float64) {
	sin, cos := math.Sincos(rad)
	return x*cos - y*sin, x*sin + y*cos
}
