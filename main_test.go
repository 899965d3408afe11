package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	flagConfig = ""
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRender_Preset(t *testing.T) {
	out, err := execute(t, "render", "--preset", "broadside", "--rows", "8", "--cols", "10", "--log-level", "error")
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Heatmap struct {
			Z [][]float64 `json:"z"`
		} `json:"heatmap"`
		Pattern struct {
			R []float64 `json:"r"`
		} `json:"pattern"`
		Metrics struct {
			MainLobeDeg int `json:"main_lobe_deg"`
		} `json:"metrics"`
		Status struct {
			Arrays int `json:"arrays"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(doc.Heatmap.Z) != 8 || len(doc.Heatmap.Z[0]) != 10 {
		t.Errorf("heatmap = %d rows", len(doc.Heatmap.Z))
	}
	if len(doc.Pattern.R) != 181 || doc.Metrics.MainLobeDeg != 90 || doc.Status.Arrays != 1 {
		t.Errorf("doc = %+v", doc.Metrics)
	}
}

func TestRender_ScenarioFileToOut(t *testing.T) {
	dir := t.TempDir()
	scene := filepath.Join(dir, "scene.yaml")
	yml := "propagation_speed: 1540\narrays:\n  - name: transducer\n    num_antennas: 3\n"
	if err := os.WriteFile(scene, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "frame.json")

	if _, err := execute(t, "render", "--scenario", scene, "--rows", "4", "--cols", "4", "-o", outPath, "--log-level", "error"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"propagation_speed": 1540`) || !strings.Contains(string(data), `"transducer"`) {
		t.Errorf("render output missing scenario: %.200s", data)
	}
}

func TestRender_UnknownPreset(t *testing.T) {
	if _, err := execute(t, "render", "--preset", "nope", "--log-level", "error"); err == nil {
		t.Error("unknown preset accepted")
	}
}

func TestPresets_Lists(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"NAME", "broadside", "ultrasound", "dual"} {
		if !strings.Contains(out, name) {
			t.Errorf("presets output missing %q:\n%s", name, out)
		}
	}
}
