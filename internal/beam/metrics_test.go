package beam

import (
	"math"
	"testing"
)

func TestMetrics_Broadside(t *testing.T) {
	m := NewManager()
	m.Load(presets["broadside"].Scenario)
	got := m.BeamPattern().Metrics()

	if got.MainLobeDeg != 90 {
		t.Errorf("MainLobeDeg = %d, want 90", got.MainLobeDeg)
	}
	// 8 elements at half-wavelength spacing: about 12.8 deg half-power width.
	if got.BeamwidthDeg < 10 || got.BeamwidthDeg > 16 {
		t.Errorf("BeamwidthDeg = %d, want about 13", got.BeamwidthDeg)
	}
	// The guard band is 10 samples, so the main lobe skirt just past it
	// (about -10.9 dB) outweighs the first true sidelobe (about -12.8 dB).
	if got.SidelobeLevelDB > -9 || got.SidelobeLevelDB < -14 {
		t.Errorf("SidelobeLevelDB = %v, want between -14 and -9", got.SidelobeLevelDB)
	}
	if got.DirectivityDB <= 0 {
		t.Errorf("DirectivityDB = %v, want positive", got.DirectivityDB)
	}
	if got.PeakIntensity != 1 {
		t.Errorf("PeakIntensity = %v, want 1", got.PeakIntensity)
	}
}

func TestMetrics_Degenerate(t *testing.T) {
	empty := BeamPattern{}.Metrics()
	if empty.SidelobeLevelDB != SidelobeFloorDB {
		t.Errorf("empty SidelobeLevelDB = %v", empty.SidelobeLevelDB)
	}

	flat := NewManager().BeamPattern().Metrics()
	if flat.PeakIntensity != 0 || flat.BeamwidthDeg != 0 || math.IsInf(flat.SidelobeLevelDB, 0) {
		t.Errorf("flat metrics = %+v", flat)
	}
}

func TestPresets_Load(t *testing.T) {
	all := Presets()
	if len(all) != len(presets) {
		t.Fatalf("Presets() = %d entries, want %d", len(all), len(presets))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Errorf("presets not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
	for _, p := range all {
		t.Run(p.Name, func(t *testing.T) {
			if err := p.Grid.Validate(); err != nil {
				t.Fatalf("grid: %v", err)
			}
			m := NewManager()
			if h := m.Load(p.Scenario); h != 0 {
				t.Fatalf("Load handle = %d", h)
			}
			if _, ok := PresetByName(p.Name); !ok {
				t.Errorf("PresetByName(%q) not found", p.Name)
			}
		})
	}
	if _, ok := PresetByName("nope"); ok {
		t.Error("unknown preset found")
	}
}
