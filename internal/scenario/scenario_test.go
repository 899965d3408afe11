package scenario

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beamsim.klederson.com/internal/beam"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"a.json":      FormatJSON,
		"a.yaml":      FormatYAML,
		"dir/b.YML":   FormatYAML,
		"noextension": FormatJSON,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDecode_MultiArray(t *testing.T) {
	doc := `{
		"arrays": [
			{"name": "A", "num_antennas": 6, "distance_m": 0.25, "array_geometry": "Curved", "curvature": 2,
			 "spacing_mode": "lambda", "lambda_multiplier": 0.5, "positionX": 1, "positionY": -1,
			 "rotation_deg": 30, "delay_deg": 45, "frequencies": [2e9, 2e9]},
			{"name": "B"}
		],
		"propagation_speed": 1540,
		"combined_delay_deg": 12.5
	}`
	s, warnings, err := Decode([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if s.PropagationSpeed != 1540 || s.CombinedDelayDeg != 12.5 || len(s.Arrays) != 2 {
		t.Fatalf("scenario = %+v", s)
	}
	a := s.Arrays[0]
	if a.NumAntennas != 6 || a.ArrayGeometry != "Curved" || a.SpacingMode != "lambda" ||
		a.RotationDeg != 30 || a.PositionX != 1 || len(a.Frequencies) != 2 {
		t.Errorf("array A = %+v", a)
	}
	b := s.Arrays[1]
	want := beam.DefaultArrayConfig()
	want.Name = "B"
	if b.NumAntennas != want.NumAntennas || b.DistanceM != want.DistanceM || b.Curvature != want.Curvature {
		t.Errorf("array B = %+v, want defaults", b)
	}
}

func TestDecode_Legacy(t *testing.T) {
	doc := `{"name": "Solo", "num_antennas": 3, "delay_deg": 10, "propagation_speed": 2e8}`
	s, _, err := Decode([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Arrays) != 1 {
		t.Fatalf("arrays = %d, want 1", len(s.Arrays))
	}
	if s.Arrays[0].Name != "Solo" || s.Arrays[0].NumAntennas != 3 || s.Arrays[0].DelayDeg != 10 {
		t.Errorf("legacy array = %+v", s.Arrays[0])
	}
	if s.PropagationSpeed != 2e8 {
		t.Errorf("speed = %v", s.PropagationSpeed)
	}
}

func TestDecode_Empty(t *testing.T) {
	s, _, err := Decode([]byte(`{}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Arrays) != 0 || s.PropagationSpeed != beam.DefaultPropagationSpeed {
		t.Errorf("scenario = %+v", s)
	}
}

func TestDecode_MalformedFieldsFallBack(t *testing.T) {
	doc := `{
		"arrays": [{"num_antennas": "many", "distance_m": -3, "array_geometry": "Helix", "rotation_deg": "12"}, 7],
		"propagation_speed": -1
	}`
	s, warnings, err := Decode([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Arrays) != 2 {
		t.Fatalf("arrays = %d, want 2", len(s.Arrays))
	}
	a := s.Arrays[0]
	if a.NumAntennas != beam.DefaultElementCount || a.DistanceM != beam.DefaultSpacing || a.ArrayGeometry != "Linear" {
		t.Errorf("array = %+v, want defaults for bad fields", a)
	}
	if a.RotationDeg != 12 {
		t.Errorf("rotation = %v, want weakly decoded 12", a.RotationDeg)
	}
	if s.PropagationSpeed != beam.DefaultPropagationSpeed {
		t.Errorf("speed = %v, want default", s.PropagationSpeed)
	}

	paths := make([]string, len(warnings))
	for i, w := range warnings {
		paths[i] = w.Path
	}
	joined := strings.Join(paths, ",")
	for _, want := range []string{"propagation_speed", "arrays[0].distance_m", "arrays[0].array_geometry", "arrays[1].*"} {
		if !strings.Contains(joined, want) {
			t.Errorf("warnings %v missing %q", paths, want)
		}
	}
}

func TestDecode_OversizedCountFallsBack(t *testing.T) {
	s, warnings, err := Decode([]byte(`{"arrays": [{"num_antennas": 1e18}]}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Arrays[0].NumAntennas; got != beam.DefaultElementCount {
		t.Errorf("num_antennas = %d, want default %d", got, beam.DefaultElementCount)
	}
	found := false
	for _, w := range warnings {
		if w.Path == "arrays[0].num_antennas" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want arrays[0].num_antennas", warnings)
	}

	m := beam.NewManager()
	m.Load(s)
	a, err := m.Array(0)
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != beam.DefaultElementCount {
		t.Errorf("loaded len = %d", a.Len())
	}
}

func TestDecode_Syntax(t *testing.T) {
	if _, _, err := Decode([]byte(`{"arrays": [`), FormatJSON); err == nil {
		t.Error("broken JSON accepted")
	}
	if _, _, err := Decode([]byte("arrays: [\n  - name: a\n bad"), FormatYAML); err == nil {
		t.Error("broken YAML accepted")
	}
}

func TestDecode_YAML(t *testing.T) {
	doc := `
propagation_speed: 3.0e8
arrays:
  - name: Y
    num_antennas: 5
    array_geometry: Curved
    frequencies: [1.0e9, 1.5e9]
`
	s, warnings, err := Decode([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(s.Arrays) != 1 || s.Arrays[0].NumAntennas != 5 || s.Arrays[0].Frequencies[1] != 1.5e9 {
		t.Errorf("scenario = %+v", s)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	m := beam.NewManager()
	m.Load(mustPreset(t, "dual").Scenario)
	_ = m.Update(0, func(a *beam.Array, c float64) error { return a.SetElementPosition(2, 0.1, 0.4) })
	want := m.Scenario()

	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, want, f); err != nil {
				t.Fatal(err)
			}
			got, warnings, err := Decode(buf.Bytes(), f)
			if err != nil {
				t.Fatal(err)
			}
			if len(warnings) != 0 {
				t.Errorf("warnings = %v", warnings)
			}

			other := beam.NewManager()
			other.Load(got)
			wa, ga := m.Arrays(), other.Arrays()
			if len(wa) != len(ga) {
				t.Fatalf("arrays = %d, want %d", len(ga), len(wa))
			}
			for i := range wa {
				for j := range wa[i].Elements {
					if wa[i].Elements[j] != ga[i].Elements[j] {
						t.Errorf("array %d element %d = %+v, want %+v", i, j, ga[i].Elements[j], wa[i].Elements[j])
					}
				}
			}
		})
	}
}

func TestLoadSave_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	want := mustPreset(t, "5g").Scenario
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}

	logger, hook := test.NewNullLogger()
	got, err := Load(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if len(hook.Entries) != 0 {
		t.Errorf("unexpected log entries: %v", hook.AllEntries())
	}
	if got.PropagationSpeed != want.PropagationSpeed || len(got.Arrays) != 1 || got.Arrays[0].DelayDeg != 30 {
		t.Errorf("loaded = %+v", got)
	}
}

func TestLoad_LogsWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"num_antennas": 0}`), 0o644); err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	if _, err := Load(path, logger); err != nil {
		t.Fatal(err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Data["field"] != "num_antennas" {
		t.Errorf("last entry = %+v", entry)
	}
}

func TestLoad_Missing(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if _, err := Load(filepath.Join(t.TempDir(), "none.json"), logger); err == nil {
		t.Error("missing file accepted")
	}
}

func mustPreset(t *testing.T, name string) beam.Preset {
	t.Helper()
	p, ok := beam.PresetByName(name)
	if !ok {
		t.Fatalf("preset %q missing", name)
	}
	return p
}

func TestDecodeArray(t *testing.T) {
	cfg, warnings, err := DecodeArray(nil, FormatJSON)
	if err != nil || len(warnings) != 0 || cfg.NumAntennas != beam.DefaultElementCount {
		t.Errorf("empty body = %+v, %v, %v", cfg, warnings, err)
	}

	cfg, warnings, err = DecodeArray([]byte(`{"name": "Tx", "num_antennas": "6", "spacing_mode": "warp"}`), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "Tx" || cfg.NumAntennas != 6 || cfg.SpacingMode != "absolute" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(warnings) != 1 || warnings[0].Path != "spacing_mode" {
		t.Errorf("warnings = %v", warnings)
	}

	if _, _, err := DecodeArray([]byte(`{"name":`), FormatJSON); err == nil {
		t.Error("broken JSON accepted")
	}
}
