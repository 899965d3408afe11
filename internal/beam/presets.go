package beam

import "sort"

// Preset is a named ready-made scenario plus a grid window that resolves its
// wavelength.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Scenario    Scenario `json:"scenario"`
	Grid        Grid     `json:"grid"`
}

const speedOfSoundTissue = 1540.0 // m/s

func linearLambda(name string, n int, freq, multiplier, delay float64) ArrayConfig {
	cfg := DefaultArrayConfig()
	cfg.Name = name
	cfg.NumAntennas = n
	cfg.SpacingMode = SpacingLambda.String()
	cfg.LambdaMultiplier = multiplier
	cfg.DelayDeg = delay
	cfg.Frequencies = make([]float64, n)
	for i := range cfg.Frequencies {
		cfg.Frequencies[i] = freq
	}
	return cfg
}

var presets = map[string]Preset{
	"broadside": {
		Name:        "broadside",
		Description: "8 elements at half-wavelength spacing, no steering",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Broadside", 8, 1e9, 0.5, 0)},
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: DefaultGrid,
	},
	"endfire": {
		Name:        "endfire",
		Description: "8 elements at quarter-wavelength spacing steered along the array axis",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Endfire", 8, 1e9, 0.25, 90)},
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: DefaultGrid,
	},
	"narrow_beam": {
		Name:        "narrow_beam",
		Description: "16 elements at half-wavelength spacing",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Narrow", 16, 1e9, 0.5, 0)},
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: DefaultGrid,
	},
	"wide_beam": {
		Name:        "wide_beam",
		Description: "4 elements at half-wavelength spacing",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Wide", 4, 1e9, 0.5, 0)},
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: DefaultGrid,
	},
	"5g": {
		Name:        "5g",
		Description: "16-element 3.5 GHz base station panel steered off broadside",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("5G Panel", 16, 3.5e9, 0.5, 30)},
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: Grid{Rows: 200, Cols: 200, ExtentX: 0.5, ExtentY: 1},
	},
	"ultrasound": {
		Name:        "ultrasound",
		Description: "32-element 5 MHz imaging transducer in tissue",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Probe", 32, 5e6, 0.5, 20)},
			PropagationSpeed: speedOfSoundTissue,
		},
		Grid: Grid{Rows: 200, Cols: 200, ExtentX: 0.01, ExtentY: 0.02},
	},
	"ablation": {
		Name:        "ablation",
		Description: "24-element 1 MHz therapy transducer in tissue",
		Scenario: Scenario{
			Arrays:           []ArrayConfig{linearLambda("Transducer", 24, 1e6, 0.5, 0)},
			PropagationSpeed: speedOfSoundTissue,
		},
		Grid: Grid{Rows: 200, Cols: 200, ExtentX: 0.03, ExtentY: 0.06},
	},
	"dual": {
		Name:        "dual",
		Description: "two offset 8-element arrays, the right one rotated",
		Scenario: Scenario{
			Arrays: func() []ArrayConfig {
				left := linearLambda("Left", 8, 1e9, 0.5, 0)
				left.PositionX = -1
				right := linearLambda("Right", 8, 1e9, 0.5, 0)
				right.PositionX = 1
				right.RotationDeg = 15
				return []ArrayConfig{left, right}
			}(),
			PropagationSpeed: DefaultPropagationSpeed,
		},
		Grid: DefaultGrid,
	},
}

// Presets returns every preset sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PresetByName looks up a preset.
func PresetByName(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}
