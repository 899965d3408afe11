// Package scenario reads and writes scenario records as JSON or YAML files.
//
// Decoding is tolerant: a missing or malformed field keeps its default and is
// reported as a warning. Only syntactically broken documents fail. Records
// that carry a single array at the top level, without an "arrays" list, are
// accepted as a one-array scenario.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"beamsim.klederson.com/internal/beam"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Format is a scenario file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Warning describes a field that fell back to its default.
type Warning struct {
	Path   string // e.g. "arrays[1].num_antennas"
	Reason string
}

func (w Warning) String() string { return w.Path + ": " + w.Reason }

// legacyKeys are the array keys that mark a top-level single-array record.
var legacyKeys = []string{
	"name", "num_antennas", "distance_m", "delay_deg", "array_geometry",
	"curvature", "spacing_mode", "lambda_multiplier", "positionX",
	"positionY", "rotation_deg", "frequencies",
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (beam.Scenario, []Warning, error) {
	raw := map[string]any{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return beam.Scenario{}, nil, fmt.Errorf("Decode: yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return beam.Scenario{}, nil, fmt.Errorf("Decode: json: %w", err)
		}
	}
	s, warnings := FromMap(raw)
	return s, warnings, nil
}

// DecodeArray parses a single ArrayConfig record with the same per-field
// fallbacks as a scenario entry. An empty document yields the defaults.
func DecodeArray(data []byte, format Format) (beam.ArrayConfig, []Warning, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return beam.DefaultArrayConfig(), nil, nil
	}
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return beam.ArrayConfig{}, nil, fmt.Errorf("DecodeArray: yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return beam.ArrayConfig{}, nil, fmt.Errorf("DecodeArray: json: %w", err)
		}
	}
	cfg, warnings := arrayFromAny(raw, "")
	return cfg, warnings, nil
}

// FromMap builds a scenario from a generic record.
func FromMap(raw map[string]any) (beam.Scenario, []Warning) {
	var warnings []Warning
	s := beam.Scenario{PropagationSpeed: beam.DefaultPropagationSpeed}

	if v, ok := raw["propagation_speed"]; ok {
		var c float64
		if err := weakDecode(v, &c); err != nil || !(c > 0) {
			warnings = append(warnings, Warning{"propagation_speed", fmt.Sprintf("invalid value %v", v)})
		} else {
			s.PropagationSpeed = c
		}
	}
	if v, ok := raw["combined_delay_deg"]; ok {
		if err := weakDecode(v, &s.CombinedDelayDeg); err != nil {
			warnings = append(warnings, Warning{"combined_delay_deg", fmt.Sprintf("invalid value %v", v)})
		}
	}

	if v, ok := raw["arrays"]; ok {
		items, isList := v.([]any)
		if !isList {
			warnings = append(warnings, Warning{"arrays", "not a list"})
			return s, warnings
		}
		for i, item := range items {
			cfg, ws := arrayFromAny(item, fmt.Sprintf("arrays[%d]", i))
			s.Arrays = append(s.Arrays, cfg)
			warnings = append(warnings, ws...)
		}
		return s, warnings
	}

	for _, k := range legacyKeys {
		if _, ok := raw[k]; ok {
			cfg, ws := arrayFromAny(raw, "")
			s.Arrays = []beam.ArrayConfig{cfg}
			return s, append(warnings, ws...)
		}
	}
	return s, warnings
}

func arrayFromAny(item any, prefix string) (beam.ArrayConfig, []Warning) {
	join := func(field string) string {
		if prefix == "" {
			return field
		}
		return prefix + "." + field
	}

	cfg := beam.DefaultArrayConfig()
	var warnings []Warning
	if _, ok := item.(map[string]any); !ok {
		return cfg, []Warning{{Path: join("*"), Reason: "not an object, using defaults"}}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return cfg, []Warning{{Path: join("*"), Reason: err.Error()}}
	}
	// mapstructure keeps decoding after a bad field, so the remaining fields
	// still land in cfg.
	if err := dec.Decode(item); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				warnings = append(warnings, Warning{Path: join("*"), Reason: e})
			}
		} else {
			warnings = append(warnings, Warning{Path: join("*"), Reason: err.Error()})
		}
	}

	cfg, fixed := cfg.Sanitized()
	for _, f := range fixed {
		warnings = append(warnings, Warning{Path: join(f), Reason: "out of range, using default"})
	}
	return cfg, warnings
}

func weakDecode(in, out any) error {
	return mapstructure.WeakDecode(in, out)
}

// Encode writes s in the given format.
func Encode(w io.Writer, s beam.Scenario, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("Encode: yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("Encode: json: %w", err)
		}
		return nil
	}
}

// Load reads a scenario file and logs any fields that fell back to defaults.
func Load(path string, log logrus.FieldLogger) (beam.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return beam.Scenario{}, fmt.Errorf("Load: %w", err)
	}
	s, warnings, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return beam.Scenario{}, fmt.Errorf("Load %s: %w", path, err)
	}
	for _, w := range warnings {
		log.WithFields(logrus.Fields{"file": path, "field": w.Path}).Warn(w.Reason)
	}
	return s, nil
}

// Save writes s to path, choosing the format from the extension.
func Save(path string, s beam.Scenario) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if err := Encode(f, s, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
