package beam

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Handle addresses one array inside a Manager.
type Handle int

// NoHandle is the active handle of an empty manager.
const NoHandle Handle = -1

// Status summarizes a manager for status bars and the status endpoint.
type Status struct {
	Arrays           int     `json:"arrays"`
	Elements         int     `json:"elements"`
	PropagationSpeed float64 `json:"propagation_speed"`
	CombinedDelayDeg float64 `json:"combined_delay_deg"`
}

// Manager owns the arrays and the parameters shared between them. It is
// safe for concurrent use: mutations take the write lock and a synthesis
// pass holds the read lock for its whole duration.
type Manager struct {
	mu               sync.RWMutex
	arrays           []*Array
	speed            float64
	combinedDelayDeg float64
}

// NewManager creates an empty manager propagating at DefaultPropagationSpeed.
func NewManager() *Manager {
	return &Manager{speed: DefaultPropagationSpeed}
}

func (m *Manager) check(h Handle) error {
	if h < 0 || int(h) >= len(m.arrays) {
		return fmt.Errorf("array %d of %d: %w", h, len(m.arrays), ErrInvalidIndex)
	}
	return nil
}

// Len returns the number of arrays.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.arrays)
}

// ClampHandle maps h onto the nearest valid handle, or NoHandle when the
// manager is empty. UI code uses it to keep the old silent-clamp behaviour.
func (m *Manager) ClampHandle(h Handle) Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.arrays) == 0 {
		return NoHandle
	}
	if h < 0 {
		return 0
	}
	if int(h) >= len(m.arrays) {
		return Handle(len(m.arrays) - 1)
	}
	return h
}

// AddArray appends a default array and returns its handle.
func (m *Manager) AddArray(name string) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("%s %d", DefaultArrayName, len(m.arrays)+1)
	}
	m.arrays = append(m.arrays, NewArray(name, m.speed))
	return Handle(len(m.arrays) - 1)
}

// AddArrayConfig appends an array built from cfg.
func (m *Manager) AddArrayConfig(cfg ArrayConfig) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrays = append(m.arrays, NewArrayFromConfig(cfg, m.speed))
	return Handle(len(m.arrays) - 1)
}

// RemoveArray deletes the array at h. Later handles shift down by one.
func (m *Manager) RemoveArray(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(h); err != nil {
		return err
	}
	m.arrays = append(m.arrays[:h], m.arrays[h+1:]...)
	return nil
}

// DuplicateArray appends a copy of the array at h.
func (m *Manager) DuplicateArray(h Handle) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(h); err != nil {
		return NoHandle, err
	}
	cp := m.arrays[h].Clone()
	cp.Name += " (copy)"
	m.arrays = append(m.arrays, cp)
	return Handle(len(m.arrays) - 1), nil
}

// RenameArray sets the display name of the array at h.
func (m *Manager) RenameArray(h Handle, name string) error {
	return m.Update(h, func(a *Array, _ float64) error {
		a.Name = name
		return nil
	})
}

// ResetArray restores the array at h to defaults, keeping its name.
func (m *Manager) ResetArray(h Handle) error {
	return m.Update(h, func(a *Array, c float64) error {
		a.Reset(c)
		return nil
	})
}

// Update runs fn on a copy of the array at h and installs the copy only if
// fn succeeds. fn receives the current propagation speed.
func (m *Manager) Update(h Handle, fn func(a *Array, c float64) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(h); err != nil {
		return err
	}
	cp := m.arrays[h].Clone()
	if err := fn(cp, m.speed); err != nil {
		return err
	}
	m.arrays[h] = cp
	return nil
}

// Array returns a copy of the array at h.
func (m *Manager) Array(h Handle) (*Array, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(h); err != nil {
		return nil, err
	}
	return m.arrays[h].Clone(), nil
}

// Arrays returns copies of every array in order.
func (m *Manager) Arrays() []*Array {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Array, len(m.arrays))
	for i, a := range m.arrays {
		out[i] = a.Clone()
	}
	return out
}

// PropagationSpeed returns the shared propagation speed in m/s.
func (m *Manager) PropagationSpeed() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.speed
}

// SetPropagationSpeed changes the shared speed. Lambda-spaced arrays are laid
// out again since their wavelength changed; pins are kept.
func (m *Manager) SetPropagationSpeed(c float64) error {
	if !(c > 0) || math.IsInf(c, 0) {
		return fmt.Errorf("propagation speed %g: %w", c, ErrInvalidSpeed)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speed = c
	for _, a := range m.arrays {
		if a.SpacingMode == SpacingLambda {
			a.RecomputePositions(c)
		}
	}
	return nil
}

// CombinedDelay returns the global phase delay in degrees.
func (m *Manager) CombinedDelay() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.combinedDelayDeg
}

// SetCombinedDelay sets the phase delay added to every array's own delay.
func (m *Manager) SetCombinedDelay(deg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.combinedDelayDeg = deg
}

// Status returns counts and shared parameters.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{
		Arrays:           len(m.arrays),
		PropagationSpeed: m.speed,
		CombinedDelayDeg: m.combinedDelayDeg,
	}
	for _, a := range m.arrays {
		st.Elements += len(a.Elements)
	}
	return st
}

// Scenario exports the full manager state.
func (m *Manager) Scenario() Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Scenario{
		Arrays:           make([]ArrayConfig, len(m.arrays)),
		PropagationSpeed: m.speed,
		CombinedDelayDeg: m.combinedDelayDeg,
	}
	for i, a := range m.arrays {
		s.Arrays[i] = a.Config()
	}
	return s
}

// Load replaces every array with those in s. The arrays are built before the
// lock is taken, so readers see either the old or the new list. It returns
// the handle callers should make active: 0, or NoHandle for an empty list.
// A non-positive speed falls back to DefaultPropagationSpeed.
func (m *Manager) Load(s Scenario) Handle {
	c := s.PropagationSpeed
	if !(c > 0) || math.IsInf(c, 0) {
		c = DefaultPropagationSpeed
	}
	arrays := make([]*Array, len(s.Arrays))
	for i, cfg := range s.Arrays {
		arrays[i] = NewArrayFromConfig(cfg, c)
	}

	m.mu.Lock()
	m.arrays = arrays
	m.speed = c
	m.combinedDelayDeg = s.CombinedDelayDeg
	m.mu.Unlock()

	if len(arrays) == 0 {
		return NoHandle
	}
	return 0
}

// RawField samples the un-normalized superposed field on g.
func (m *Manager) RawField(ctx context.Context, g Grid) (Field, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sampleField(ctx, m.arrays, m.speed, m.combinedDelayDeg, g)
}

// Heatmap samples the field on g and normalizes it for display.
func (m *Manager) Heatmap(ctx context.Context, g Grid) (Heatmap, error) {
	f, err := m.RawField(ctx, g)
	if err != nil {
		return Heatmap{}, err
	}
	return Heatmap{Z: NormalizeHeatmap(f.Values), X: f.X, Y: f.Y}, nil
}

// BeamPattern returns the normalized combined angular response.
func (m *Manager) BeamPattern() BeamPattern {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return samplePattern(m.arrays, m.speed, m.combinedDelayDeg)
}

// Overlay returns every element position in the global frame.
func (m *Manager) Overlay() Overlay {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return buildOverlay(m.arrays)
}
