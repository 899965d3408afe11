package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"beamsim.klederson.com/internal/beam"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BEAMSIM_SERVER_ADDR.
const EnvPrefix = "BEAMSIM"

// GridSettings is the heatmap sampling window.
type GridSettings struct {
	Rows    int     `mapstructure:"rows"`
	Cols    int     `mapstructure:"cols"`
	ExtentX float64 `mapstructure:"extent_x"`
	ExtentY float64 `mapstructure:"extent_y"`
}

// Grid converts to the engine type.
func (g GridSettings) Grid() beam.Grid {
	return beam.Grid{Rows: g.Rows, Cols: g.Cols, ExtentX: g.ExtentX, ExtentY: g.ExtentY}
}

// LogSettings selects logrus level, format and destination.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
	File   string `mapstructure:"file"`   // empty: stderr, or discarded by the TUI
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr     string        `mapstructure:"addr"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// TracingSettings configures OpenTelemetry export.
type TracingSettings struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Settings is the runtime configuration merged from defaults, an optional
// YAML file, BEAMSIM_* environment variables and command-line flags.
type Settings struct {
	PropagationSpeed float64         `mapstructure:"propagation_speed"`
	Scenario         string          `mapstructure:"scenario"`
	Preset           string          `mapstructure:"preset"`
	Grid             GridSettings    `mapstructure:"grid"`
	Log              LogSettings     `mapstructure:"log"`
	Server           ServerSettings  `mapstructure:"server"`
	Tracing          TracingSettings `mapstructure:"tracing"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("propagation_speed", beam.DefaultPropagationSpeed)
	v.SetDefault("scenario", "")
	v.SetDefault("preset", "")
	v.SetDefault("grid.rows", beam.DefaultGrid.Rows)
	v.SetDefault("grid.cols", beam.DefaultGrid.Cols)
	v.SetDefault("grid.extent_x", beam.DefaultGrid.ExtentX)
	v.SetDefault("grid.extent_y", beam.DefaultGrid.ExtentY)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.debounce", RecomputeDebounce)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// flagKeys maps command-line flag names to setting keys.
var flagKeys = map[string]string{
	"speed":      "propagation_speed",
	"scenario":   "scenario",
	"preset":     "preset",
	"rows":       "grid.rows",
	"cols":       "grid.cols",
	"extent-x":   "grid.extent_x",
	"extent-y":   "grid.extent_y",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"addr":       "server.addr",
	"debounce":   "server.debounce",
	"tracing":    "tracing.enabled",
	"exporter":   "tracing.exporter",
	"endpoint":   "tracing.endpoint",
}

// BindFlags binds whichever known flags exist in fs.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads settings. An empty path looks for beamsim.yaml in the working
// directory and the user config directory, and a missing file is not an
// error in that case.
func Load(v *viper.Viper, path string) (Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("beamsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/beamsim")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the values the engine would reject.
func (s Settings) Validate() error {
	if !(s.PropagationSpeed > 0) {
		return fmt.Errorf("propagation_speed %g: %w", s.PropagationSpeed, beam.ErrInvalidSpeed)
	}
	if err := s.Grid.Grid().Validate(); err != nil {
		return fmt.Errorf("grid %+v: %w", s.Grid, err)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", s.Log.Format)
	}
	if s.Tracing.Enabled {
		switch s.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter %q: must be stdout or otlp", s.Tracing.Exporter)
		}
	}
	return nil
}
