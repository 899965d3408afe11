package app

import (
	"fmt"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/config"
	"beamsim.klederson.com/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	manager := m.shared.manager

	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.Stop()
		return m, tea.Quit

	case "?":
		m.help = !m.help

	case "tab":
		m.active = m.cycleArray(1)
		m.element = 0
	case "shift+tab":
		m.active = m.cycleArray(-1)
		m.element = 0

	case "a", "A":
		m.active = manager.AddArray(fmt.Sprintf("Array %d", manager.Len()+1))
		m.element = 0
		m.preset = ""
		return m.schedule()
	case "x", "X":
		if err := manager.RemoveArray(m.active); err != nil {
			m.err = err
			return m, nil
		}
		m.active = manager.ClampHandle(m.active)
		m.element = 0
		return m.schedule()
	case "d", "D":
		h, err := manager.DuplicateArray(m.active)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.active = h
		return m.schedule()
	case "r", "R":
		if err := manager.ResetArray(m.active); err != nil {
			m.err = err
			return m, nil
		}
		m.element = 0
		return m.schedule()

	case "p", "P":
		return m.nextPreset()

	case "v", "V":
		m.view = (m.view + 1) % 3
	case "enter":
		m.view = ui.ViewDetail
	case "esc":
		m.view = ui.ViewPattern
		m.help = false

	case " ":
		m.shared.cursor.Frozen = !m.shared.cursor.Frozen
	case "s", "S":
		return m.toggleSweep()
	case "ctrl+s":
		return m, saveCmd(m.savePath, manager.Scenario())

	case "e":
		m.element = m.cycleElement(1)
	case "E":
		m.element = m.cycleElement(-1)

	case "{":
		manager.SetCombinedDelay(manager.CombinedDelay() - config.DelayStep)
		return m.schedule()
	case "}":
		manager.SetCombinedDelay(manager.CombinedDelay() + config.DelayStep)
		return m.schedule()

	default:
		if fn := arrayEdit(msg.String(), m.element); fn != nil {
			return m.mutate(fn)
		}
	}

	return m, nil
}

// arrayEdit maps a key onto an edit of the active array, or nil.
func arrayEdit(key string, element int) func(a *beam.Array, c float64) error {
	switch key {
	case "g", "G":
		return func(a *beam.Array, c float64) error {
			if a.Geometry == beam.GeometryLinear {
				a.SetGeometry(beam.GeometryCurved, c)
			} else {
				a.SetGeometry(beam.GeometryLinear, c)
			}
			return nil
		}
	case "m", "M":
		return func(a *beam.Array, c float64) error {
			if a.SpacingMode == beam.SpacingAbsolute {
				a.SetSpacingMode(beam.SpacingLambda, c)
			} else {
				a.SetSpacingMode(beam.SpacingAbsolute, c)
			}
			return nil
		}
	case "[":
		return spacingEdit(-1)
	case "]":
		return spacingEdit(1)
	case "+", "=":
		return func(a *beam.Array, c float64) error { return a.SetElementCount(a.Len()+1, c) }
	case "-", "_":
		return func(a *beam.Array, c float64) error { return a.SetElementCount(a.Len()-1, c) }
	case "left":
		return func(a *beam.Array, c float64) error { a.SetDelay(a.DelayDeg - config.DelayStep); return nil }
	case "right":
		return func(a *beam.Array, c float64) error { a.SetDelay(a.DelayDeg + config.DelayStep); return nil }
	case ",", "<":
		return func(a *beam.Array, c float64) error { a.SetRotation(a.RotationDeg - config.RotationStep); return nil }
	case ".", ">":
		return func(a *beam.Array, c float64) error { a.SetRotation(a.RotationDeg + config.RotationStep); return nil }
	case "H":
		return moveEdit(-config.PositionStep, 0)
	case "L":
		return moveEdit(config.PositionStep, 0)
	case "J":
		return moveEdit(0, -config.PositionStep)
	case "K":
		return moveEdit(0, config.PositionStep)
	case "c":
		return func(a *beam.Array, c float64) error { a.SetCurvature(a.Curvature-config.CurvatureStep, c); return nil }
	case "C":
		return func(a *beam.Array, c float64) error { a.SetCurvature(a.Curvature+config.CurvatureStep, c); return nil }
	case "f":
		return frequencyEdit(element, 1-config.FrequencyStep)
	case "F":
		return frequencyEdit(element, 1+config.FrequencyStep)
	case "w":
		return func(a *beam.Array, c float64) error {
			return a.SetAllFrequencies(a.AverageFrequency()*(1-config.FrequencyStep), c)
		}
	case "W":
		return func(a *beam.Array, c float64) error {
			return a.SetAllFrequencies(a.AverageFrequency()*(1+config.FrequencyStep), c)
		}
	}
	return nil
}

func spacingEdit(dir float64) func(a *beam.Array, c float64) error {
	return func(a *beam.Array, c float64) error {
		if a.SpacingMode == beam.SpacingLambda {
			return a.SetLambdaMultiplier(a.LambdaMultiplier+dir*config.LambdaStep, c)
		}
		return a.SetSpacing(a.Spacing+dir*config.SpacingStep, c)
	}
}

func moveEdit(dx, dy float64) func(a *beam.Array, c float64) error {
	return func(a *beam.Array, c float64) error {
		a.SetPosition(a.PosX+dx, a.PosY+dy)
		return nil
	}
}

func frequencyEdit(i int, factor float64) func(a *beam.Array, c float64) error {
	return func(a *beam.Array, c float64) error {
		if i < 0 || i >= a.Len() {
			return fmt.Errorf("element %d of %d: %w", i, a.Len(), beam.ErrInvalidIndex)
		}
		return a.SetElementFrequency(i, a.Elements[i].Frequency*factor, c)
	}
}

func (m AppModel) cycleArray(dir int) beam.Handle {
	n := m.shared.manager.Len()
	if n == 0 {
		return beam.NoHandle
	}
	return beam.Handle(((int(m.active)+dir)%n + n) % n)
}

func (m AppModel) cycleElement(dir int) int {
	a := m.activeArray()
	if a == nil || a.Len() == 0 {
		return 0
	}
	n := a.Len()
	return ((m.element+dir)%n + n) % n
}

func (m AppModel) nextPreset() (AppModel, tea.Cmd) {
	presets := beam.Presets()
	if len(presets) == 0 {
		return m, nil
	}
	next := 0
	for i, p := range presets {
		if p.Name == m.preset {
			next = (i + 1) % len(presets)
			break
		}
	}
	p := presets[next]
	m.active = m.shared.manager.Load(p.Scenario)
	m.grid = p.Grid
	m.preset = p.Name
	m.element = 0
	m.shared.log.WithField("preset", p.Name).Info("preset loaded")
	return m.schedule()
}

func (m AppModel) toggleSweep() (AppModel, tea.Cmd) {
	s := m.shared.sweeper
	if s.Running() {
		s.Stop()
		return m, nil
	}
	if m.shared.program == nil {
		return m, nil
	}
	if err := s.Start(m.shared.program); err != nil {
		m.err = err
	}
	return m, nil
}
