package beam

import (
	"fmt"
	"math"
)

// DefaultPropagationSpeed is the speed of light in m/s.
const DefaultPropagationSpeed = 3e8

// ElementPin records a manually placed element.
type ElementPin struct {
	Index int     `json:"index" yaml:"index" mapstructure:"index"`
	X     float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y     float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// ArrayConfig is the persisted and API form of one array.
type ArrayConfig struct {
	Name             string       `json:"name" yaml:"name" mapstructure:"name"`
	NumAntennas      int          `json:"num_antennas" yaml:"num_antennas" mapstructure:"num_antennas"`
	DistanceM        float64      `json:"distance_m" yaml:"distance_m" mapstructure:"distance_m"`
	DelayDeg         float64      `json:"delay_deg" yaml:"delay_deg" mapstructure:"delay_deg"`
	ArrayGeometry    string       `json:"array_geometry" yaml:"array_geometry" mapstructure:"array_geometry"`
	Curvature        float64      `json:"curvature" yaml:"curvature" mapstructure:"curvature"`
	SpacingMode      string       `json:"spacing_mode" yaml:"spacing_mode" mapstructure:"spacing_mode"`
	LambdaMultiplier float64      `json:"lambda_multiplier" yaml:"lambda_multiplier" mapstructure:"lambda_multiplier"`
	PositionX        float64      `json:"positionX" yaml:"positionX" mapstructure:"positionX"`
	PositionY        float64      `json:"positionY" yaml:"positionY" mapstructure:"positionY"`
	RotationDeg      float64      `json:"rotation_deg" yaml:"rotation_deg" mapstructure:"rotation_deg"`
	Frequencies      []float64    `json:"frequencies" yaml:"frequencies" mapstructure:"frequencies"`
	PinnedElements   []ElementPin `json:"pinned_elements,omitempty" yaml:"pinned_elements,omitempty" mapstructure:"pinned_elements"`
}

// Scenario is the persisted form of a whole manager.
type Scenario struct {
	Arrays           []ArrayConfig `json:"arrays" yaml:"arrays" mapstructure:"arrays"`
	PropagationSpeed float64       `json:"propagation_speed" yaml:"propagation_speed" mapstructure:"propagation_speed"`
	CombinedDelayDeg float64       `json:"combined_delay_deg" yaml:"combined_delay_deg" mapstructure:"combined_delay_deg"`
}

// DefaultArrayConfig returns the record of a freshly created array.
func DefaultArrayConfig() ArrayConfig {
	return ArrayConfig{
		Name:             DefaultArrayName,
		NumAntennas:      DefaultElementCount,
		DistanceM:        DefaultSpacing,
		ArrayGeometry:    GeometryLinear.String(),
		Curvature:        DefaultCurvature,
		SpacingMode:      SpacingAbsolute.String(),
		LambdaMultiplier: DefaultLambdaMultiplier,
	}
}

// Sanitized replaces out-of-range fields with defaults and returns the names
// of the fields it replaced.
func (cfg ArrayConfig) Sanitized() (ArrayConfig, []string) {
	var fixed []string
	if cfg.Name == "" {
		cfg.Name = DefaultArrayName
	}
	if cfg.NumAntennas < 1 || cfg.NumAntennas > MaxElementCount {
		cfg.NumAntennas = DefaultElementCount
		fixed = append(fixed, "num_antennas")
	}
	if !(cfg.DistanceM > 0) || math.IsInf(cfg.DistanceM, 0) {
		cfg.DistanceM = DefaultSpacing
		fixed = append(fixed, "distance_m")
	}
	if !(cfg.LambdaMultiplier > 0) || math.IsInf(cfg.LambdaMultiplier, 0) {
		cfg.LambdaMultiplier = DefaultLambdaMultiplier
		fixed = append(fixed, "lambda_multiplier")
	}
	if g, ok := ParseGeometry(cfg.ArrayGeometry); !ok {
		cfg.ArrayGeometry = g.String()
		fixed = append(fixed, "array_geometry")
	}
	if m, ok := ParseSpacingMode(cfg.SpacingMode); !ok {
		cfg.SpacingMode = m.String()
		fixed = append(fixed, "spacing_mode")
	}
	if len(cfg.Frequencies) > MaxElementCount {
		cfg.Frequencies = cfg.Frequencies[:MaxElementCount]
		fixed = append(fixed, "frequencies")
	}
	if len(cfg.Frequencies) > 0 {
		freqs := make([]float64, len(cfg.Frequencies))
		for i, f := range cfg.Frequencies {
			if !(f > 0) || math.IsInf(f, 0) {
				f = DefaultFrequency
				fixed = append(fixed, fmt.Sprintf("frequencies[%d]", i))
			}
			freqs[i] = f
		}
		cfg.Frequencies = freqs
	}
	return cfg, fixed
}

// NewArrayFromConfig builds an array from a record. Invalid fields fall back
// to their defaults. Extra frequencies grow the array past NumAntennas.
func NewArrayFromConfig(cfg ArrayConfig, c float64) *Array {
	cfg, _ = cfg.Sanitized()
	geom, _ := ParseGeometry(cfg.ArrayGeometry)
	mode, _ := ParseSpacingMode(cfg.SpacingMode)

	n := cfg.NumAntennas
	if len(cfg.Frequencies) > n {
		n = len(cfg.Frequencies)
	}
	seed := DefaultFrequency
	if len(cfg.Frequencies) > 0 {
		seed = cfg.Frequencies[0]
	}

	a := &Array{
		Name:             cfg.Name,
		Geometry:         geom,
		SpacingMode:      mode,
		Spacing:          cfg.DistanceM,
		LambdaMultiplier: cfg.LambdaMultiplier,
		Curvature:        cfg.Curvature,
		DelayDeg:         cfg.DelayDeg,
		PosX:             cfg.PositionX,
		PosY:             cfg.PositionY,
		RotationDeg:      cfg.RotationDeg,
		Elements:         make([]Element, n),
	}
	for i := range a.Elements {
		f := seed
		if i < len(cfg.Frequencies) {
			f = cfg.Frequencies[i]
		}
		a.Elements[i] = Element{Index: i, Frequency: f}
	}
	a.RecomputePositions(c)

	for _, p := range cfg.PinnedElements {
		// Out-of-range pins are dropped like any other malformed field.
		_ = a.SetElementPosition(p.Index, p.X, p.Y)
	}
	return a
}

// Config returns the record that reproduces this array.
func (a *Array) Config() ArrayConfig {
	cfg := ArrayConfig{
		Name:             a.Name,
		NumAntennas:      len(a.Elements),
		DistanceM:        a.Spacing,
		DelayDeg:         a.DelayDeg,
		ArrayGeometry:    a.Geometry.String(),
		Curvature:        a.Curvature,
		SpacingMode:      a.SpacingMode.String(),
		LambdaMultiplier: a.LambdaMultiplier,
		PositionX:        a.PosX,
		PositionY:        a.PosY,
		RotationDeg:      a.RotationDeg,
		Frequencies:      make([]float64, len(a.Elements)),
	}
	for i, e := range a.Elements {
		cfg.Frequencies[i] = e.Frequency
		if e.Pinned {
			cfg.PinnedElements = append(cfg.PinnedElements, ElementPin{Index: i, X: e.X, Y: e.Y})
		}
	}
	return cfg
}

// ArrayPatch is a partial update. Nil fields are left unchanged.
type ArrayPatch struct {
	Name             *string  `json:"name,omitempty"`
	NumAntennas      *int     `json:"num_antennas,omitempty"`
	DistanceM        *float64 `json:"distance_m,omitempty"`
	DelayDeg         *float64 `json:"delay_deg,omitempty"`
	ArrayGeometry    *string  `json:"array_geometry,omitempty"`
	Curvature        *float64 `json:"curvature,omitempty"`
	SpacingMode      *string  `json:"spacing_mode,omitempty"`
	LambdaMultiplier *float64 `json:"lambda_multiplier,omitempty"`
	PositionX        *float64 `json:"positionX,omitempty"`
	PositionY        *float64 `json:"positionY,omitempty"`
	RotationDeg      *float64 `json:"rotation_deg,omitempty"`
	Frequency        *float64 `json:"frequency,omitempty"` // applied to every element
}

// Apply runs the setters for each non-nil field. It stops at the first error.
func (p ArrayPatch) Apply(a *Array, c float64) error {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.ArrayGeometry != nil {
		g, ok := ParseGeometry(*p.ArrayGeometry)
		if !ok {
			return fmt.Errorf("array_geometry %q: unknown geometry", *p.ArrayGeometry)
		}
		a.SetGeometry(g, c)
	}
	if p.SpacingMode != nil {
		m, ok := ParseSpacingMode(*p.SpacingMode)
		if !ok {
			return fmt.Errorf("spacing_mode %q: unknown mode", *p.SpacingMode)
		}
		a.SetSpacingMode(m, c)
	}
	if p.Frequency != nil {
		if err := a.SetAllFrequencies(*p.Frequency, c); err != nil {
			return err
		}
	}
	if p.NumAntennas != nil {
		if err := a.SetElementCount(*p.NumAntennas, c); err != nil {
			return err
		}
	}
	if p.DistanceM != nil {
		if err := a.SetSpacing(*p.DistanceM, c); err != nil {
			return err
		}
	}
	if p.LambdaMultiplier != nil {
		if err := a.SetLambdaMultiplier(*p.LambdaMultiplier, c); err != nil {
			return err
		}
	}
	if p.Curvature != nil {
		a.SetCurvature(*p.Curvature, c)
	}
	if p.DelayDeg != nil {
		a.SetDelay(*p.DelayDeg)
	}
	if p.PositionX != nil || p.PositionY != nil {
		x, y := a.PosX, a.PosY
		if p.PositionX != nil {
			x = *p.PositionX
		}
		if p.PositionY != nil {
			y = *p.PositionY
		}
		a.SetPosition(x, y)
	}
	if p.RotationDeg != nil {
		a.SetRotation(*p.RotationDeg)
	}
	return nil
}
