package server

import (
	"errors"
	"fmt"

	"beamsim.klederson.com/internal/beam"
)

// errBadInput marks request problems that map to 400.
var errBadInput = errors.New("bad input")

// ElementUpdate moves and/or retunes one element. Omitted fields keep their
// current value.
type ElementUpdate struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Frequency *float64 `json:"frequency,omitempty"`
}

// SettingsUpdate changes the parameters shared by every array.
type SettingsUpdate struct {
	PropagationSpeed *float64 `json:"propagation_speed,omitempty"`
	CombinedDelayDeg *float64 `json:"combined_delay_deg,omitempty"`
}

func (s *Server) patchArray(h beam.Handle, p beam.ArrayPatch) (beam.ArrayConfig, error) {
	if err := s.manager.Update(h, p.Apply); err != nil {
		return beam.ArrayConfig{}, err
	}
	s.changed()
	return s.arrayConfig(h)
}

func (s *Server) updateElement(h beam.Handle, idx int, u ElementUpdate) (beam.ArrayConfig, error) {
	err := s.manager.Update(h, func(a *beam.Array, c float64) error {
		if idx < 0 || idx >= a.Len() {
			return fmt.Errorf("element %d: %w", idx, beam.ErrInvalidIndex)
		}
		if u.X != nil || u.Y != nil {
			x, y := a.Elements[idx].X, a.Elements[idx].Y
			if u.X != nil {
				x = *u.X
			}
			if u.Y != nil {
				y = *u.Y
			}
			if err := a.SetElementPosition(idx, x, y); err != nil {
				return err
			}
		}
		if u.Frequency != nil {
			return a.SetElementFrequency(idx, *u.Frequency, c)
		}
		return nil
	})
	if err != nil {
		return beam.ArrayConfig{}, err
	}
	s.changed()
	return s.arrayConfig(h)
}

func (s *Server) applySettings(u SettingsUpdate) (beam.Status, error) {
	if u.PropagationSpeed != nil {
		if err := s.manager.SetPropagationSpeed(*u.PropagationSpeed); err != nil {
			return beam.Status{}, err
		}
	}
	if u.CombinedDelayDeg != nil {
		s.manager.SetCombinedDelay(*u.CombinedDelayDeg)
	}
	s.changed()
	return s.manager.Status(), nil
}

func (s *Server) loadPreset(name string) (beam.Preset, error) {
	p, ok := beam.PresetByName(name)
	if !ok {
		return beam.Preset{}, fmt.Errorf("preset %q: %w", name, errNotFound)
	}
	s.manager.Load(p.Scenario)
	s.setGrid(p.Grid)
	s.changed()
	s.log.WithField("preset", name).Info("preset loaded")
	return p, nil
}

func (s *Server) addArray(cfg beam.ArrayConfig) (beam.Handle, beam.ArrayConfig, error) {
	h := s.manager.AddArrayConfig(cfg)
	s.changed()
	out, err := s.arrayConfig(h)
	return h, out, err
}

func (s *Server) removeArray(h beam.Handle) error {
	if err := s.manager.RemoveArray(h); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Server) arrayConfig(h beam.Handle) (beam.ArrayConfig, error) {
	a, err := s.manager.Array(h)
	if err != nil {
		return beam.ArrayConfig{}, err
	}
	return a.Config(), nil
}
