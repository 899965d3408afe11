package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"beamsim.klederson.com/internal/beam"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	if s.PropagationSpeed != beam.DefaultPropagationSpeed {
		t.Errorf("PropagationSpeed = %v", s.PropagationSpeed)
	}
	if s.Grid.Grid() != beam.DefaultGrid {
		t.Errorf("Grid = %+v, want %+v", s.Grid, beam.DefaultGrid)
	}
	if s.Server.Debounce != RecomputeDebounce || s.Log.Format != "text" || s.Tracing.Enabled {
		t.Errorf("settings = %+v", s)
	}
}

func TestLoad_FileEnvFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beamsim.yaml")
	yml := `
propagation_speed: 1540
grid:
  rows: 50
  extent_x: 0.02
server:
  addr: ":9000"
  debounce: 250ms
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEAMSIM_GRID_COLS", "64")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	if err := fs.Parse([]string{"--addr", ":7000"}); err != nil {
		t.Fatal(err)
	}
	v := viper.New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatal(err)
	}

	s, err := Load(v, path)
	if err != nil {
		t.Fatal(err)
	}
	if s.PropagationSpeed != 1540 || s.Grid.Rows != 50 || s.Grid.ExtentX != 0.02 {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.Grid.Cols != 64 {
		t.Errorf("env override: cols = %d, want 64", s.Grid.Cols)
	}
	if s.Server.Addr != ":7000" {
		t.Errorf("flag override: addr = %q, want :7000", s.Server.Addr)
	}
	if s.Server.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %v", s.Server.Debounce)
	}
	if s.Grid.ExtentY != beam.DefaultGrid.ExtentY {
		t.Errorf("unset extent_y = %v, want default", s.Grid.ExtentY)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing explicit config accepted")
	}
}

func TestValidate(t *testing.T) {
	base := func() Settings {
		v := viper.New()
		SetDefaults(v)
		var s Settings
		if err := v.Unmarshal(&s); err != nil {
			t.Fatal(err)
		}
		return s
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	s := base()
	s.PropagationSpeed = 0
	if err := s.Validate(); !errors.Is(err, beam.ErrInvalidSpeed) {
		t.Errorf("speed 0: err = %v", err)
	}
	s = base()
	s.Grid.Rows = 1
	if err := s.Validate(); !errors.Is(err, beam.ErrInvalidGrid) {
		t.Errorf("rows 1: err = %v", err)
	}
	s = base()
	s.Log.Format = "xml"
	if err := s.Validate(); err == nil {
		t.Error("log format xml accepted")
	}
	s = base()
	s.Tracing.Enabled = true
	s.Tracing.Exporter = "zipkin"
	if err := s.Validate(); err == nil {
		t.Error("exporter zipkin accepted")
	}
}
