package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/steering"
	"beamsim.klederson.com/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

var testGrid = beam.Grid{Rows: 12, Cols: 16, ExtentX: 2, ExtentY: 3}

func newTestModel(t *testing.T) AppModel {
	t.Helper()
	m := beam.NewManager()
	m.AddArray("Array 1")
	return New(Options{
		Manager:      m,
		Grid:         testGrid,
		Debounce:     time.Millisecond,
		ScenarioPath: filepath.Join(t.TempDir(), "scene.json"),
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return am, cmd
}

// settle runs the pending recompute for the current generation directly,
// skipping the debounce timer.
func settle(t *testing.T, m AppModel) AppModel {
	t.Helper()
	m, cmd := press(t, m, recomputeMsg{gen: m.gen})
	if cmd == nil {
		t.Fatal("recompute produced no command")
	}
	m, _ = press(t, m, cmd())
	return m
}

// ---------- recompute ----------

func TestRecompute_ProducesFrame(t *testing.T) {
	m := settle(t, newTestModel(t))
	if m.pending {
		t.Error("still pending after frame")
	}
	if len(m.frame.Heatmap.Z) != testGrid.Rows || len(m.frame.Pattern.R) != 181 {
		t.Errorf("frame = %d rows, %d pattern samples", len(m.frame.Heatmap.Z), len(m.frame.Pattern.R))
	}
	if m.metrics.MainLobeDeg != 90 {
		t.Errorf("main lobe = %d, want 90", m.metrics.MainLobeDeg)
	}
	if m.shared.latencies.Len() != 1 {
		t.Errorf("latencies = %d, want 1", m.shared.latencies.Len())
	}
}

func TestRecompute_StaleGenerationIgnored(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, recomputeMsg{gen: m.gen + 5})
	if cmd != nil {
		t.Error("stale timer started a pass")
	}

	m, cmd = press(t, m, recomputeMsg{gen: m.gen})
	old := cmd()
	m, _ = press(t, m, runes("+"))
	m, _ = press(t, m, old)
	if !m.pending || len(m.frame.Pattern.R) != 0 {
		t.Error("result of a superseded generation was applied")
	}
}

func TestRecompute_CancelsInFlight(t *testing.T) {
	m := newTestModel(t)
	m, first := press(t, m, recomputeMsg{gen: m.gen})
	m, _ = press(t, m, recomputeMsg{gen: m.gen})

	msg, ok := first().(frameMsg)
	if !ok {
		t.Fatal("expected frameMsg")
	}
	if !errors.Is(msg.err, context.Canceled) {
		t.Errorf("first pass err = %v, want context.Canceled", msg.err)
	}
	m, _ = press(t, m, msg)
	if m.err != nil {
		t.Errorf("canceled pass surfaced error %v", m.err)
	}
}

func TestSchedule_BumpsGeneration(t *testing.T) {
	m := newTestModel(t)
	gen := m.gen
	m, cmd := press(t, m, runes("]"))
	if m.gen != gen+1 || !m.pending || cmd == nil {
		t.Errorf("gen = %d pending = %v cmd = %v", m.gen, m.pending, cmd != nil)
	}
	if msg, ok := cmd().(recomputeMsg); !ok || msg.gen != m.gen {
		t.Errorf("timer message = %#v", msg)
	}
}

// ---------- keys ----------

func TestKeys_ArrayLifecycle(t *testing.T) {
	m := newTestModel(t)
	mgr := m.shared.manager

	m, _ = press(t, m, runes("a"))
	if mgr.Len() != 2 || m.active != 1 {
		t.Fatalf("after add: len=%d active=%d", mgr.Len(), m.active)
	}
	m, _ = press(t, m, runes("d"))
	if mgr.Len() != 3 || m.active != 2 {
		t.Fatalf("after duplicate: len=%d active=%d", mgr.Len(), m.active)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.active != 0 {
		t.Errorf("tab wrapped to %d, want 0", m.active)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.active != 2 {
		t.Errorf("shift+tab to %d, want 2", m.active)
	}
	m, _ = press(t, m, runes("x"))
	if mgr.Len() != 2 || m.active != 1 {
		t.Errorf("after delete: len=%d active=%d", mgr.Len(), m.active)
	}
	m, _ = press(t, m, runes("x"))
	m, _ = press(t, m, runes("x"))
	if mgr.Len() != 0 || m.active != beam.NoHandle {
		t.Errorf("after deleting all: len=%d active=%d", mgr.Len(), m.active)
	}
	m, _ = press(t, m, runes("x"))
	if !errors.Is(m.err, beam.ErrInvalidIndex) {
		t.Errorf("delete on empty err = %v", m.err)
	}
}

func TestKeys_EditActiveArray(t *testing.T) {
	m := newTestModel(t)
	mgr := m.shared.manager

	cases := []struct {
		key   string
		check func(a *beam.Array) bool
	}{
		{"+", func(a *beam.Array) bool { return a.Len() == beam.DefaultElementCount+1 }},
		{"-", func(a *beam.Array) bool { return a.Len() == beam.DefaultElementCount }},
		{"]", func(a *beam.Array) bool { return approx(a.Spacing, beam.DefaultSpacing+0.05) }},
		{"g", func(a *beam.Array) bool { return a.Geometry == beam.GeometryCurved }},
		{"m", func(a *beam.Array) bool { return a.SpacingMode == beam.SpacingLambda }},
		{"]", func(a *beam.Array) bool { return approx(a.LambdaMultiplier, beam.DefaultLambdaMultiplier+0.05) }},
		{"C", func(a *beam.Array) bool { return approx(a.Curvature, beam.DefaultCurvature+0.5) }},
		{".", func(a *beam.Array) bool { return a.RotationDeg == 5 }},
		{"L", func(a *beam.Array) bool { return approx(a.PosX, 0.1) }},
		{"K", func(a *beam.Array) bool { return approx(a.PosY, 0.1) }},
		{"F", func(a *beam.Array) bool { return approx(a.Elements[0].Frequency, 1.05e9) }},
		{"W", func(a *beam.Array) bool { return a.Elements[3].Frequency > beam.DefaultFrequency }},
	}
	for _, tc := range cases {
		m, _ = press(t, m, runes(tc.key))
		a, err := mgr.Array(0)
		if err != nil {
			t.Fatal(err)
		}
		if !tc.check(a) {
			t.Errorf("after %q: array = %+v", tc.key, a)
		}
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if a, _ := mgr.Array(0); a.DelayDeg != 5 {
		t.Errorf("delay = %v, want 5", a.DelayDeg)
	}
	m, _ = press(t, m, runes("}"))
	if mgr.CombinedDelay() != 5 {
		t.Errorf("combined delay = %v, want 5", mgr.CombinedDelay())
	}
}

func TestKeys_RejectedEditKeepsState(t *testing.T) {
	m := newTestModel(t)
	mgr := m.shared.manager
	_ = mgr.Update(0, func(a *beam.Array, c float64) error { return a.SetElementCount(1, c) })

	gen := m.gen
	m, cmd := press(t, m, runes("-"))
	if !errors.Is(m.err, beam.ErrInvalidCount) {
		t.Errorf("err = %v, want ErrInvalidCount", m.err)
	}
	if cmd != nil || m.gen != gen {
		t.Error("rejected edit scheduled a recompute")
	}
	if a, _ := mgr.Array(0); a.Len() != 1 {
		t.Errorf("element count = %d, want 1", a.Len())
	}
}

func TestKeys_ElementSelection(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("E"))
	if m.element != beam.DefaultElementCount-1 {
		t.Errorf("element = %d, want last", m.element)
	}
	m, _ = press(t, m, runes("e"))
	if m.element != 0 {
		t.Errorf("element = %d, want wrap to 0", m.element)
	}
	m, _ = press(t, m, runes("e"))
	m, _ = press(t, m, runes("f"))
	a, _ := m.shared.manager.Array(0)
	if !approx(a.Elements[1].Frequency, 0.95e9) || a.Elements[0].Frequency != beam.DefaultFrequency {
		t.Errorf("frequencies = %v, %v", a.Elements[0].Frequency, a.Elements[1].Frequency)
	}
}

func TestKeys_PresetCycle(t *testing.T) {
	m := newTestModel(t)
	presets := beam.Presets()

	m, _ = press(t, m, runes("p"))
	if m.preset != presets[0].Name || m.grid != presets[0].Grid {
		t.Errorf("preset = %q grid = %+v", m.preset, m.grid)
	}
	m, _ = press(t, m, runes("p"))
	if m.preset != presets[1%len(presets)].Name {
		t.Errorf("second preset = %q", m.preset)
	}
	if m.shared.manager.Len() != len(presets[1%len(presets)].Scenario.Arrays) {
		t.Errorf("arrays = %d", m.shared.manager.Len())
	}
}

func TestKeys_ViewsAndHelp(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("v"))
	if m.view != ui.ViewHeatmap {
		t.Errorf("view = %v", m.view)
	}
	m, _ = press(t, m, runes("v"))
	m, _ = press(t, m, runes("v"))
	if m.view != ui.ViewPattern {
		t.Errorf("view cycle = %v", m.view)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != ui.ViewDetail {
		t.Errorf("enter view = %v", m.view)
	}
	m, _ = press(t, m, runes("?"))
	if !m.help {
		t.Error("help not shown")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != ui.ViewPattern || m.help {
		t.Errorf("esc: view = %v help = %v", m.view, m.help)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.shared.cursor.Frozen {
		t.Error("space did not freeze cursor")
	}
}

func TestKeys_Save(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("ctrl+s produced no command")
	}
	m, _ = press(t, m, cmd())
	if m.err != nil {
		t.Fatalf("save err = %v", m.err)
	}
	data, err := os.ReadFile(m.savePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Array 1"`) {
		t.Errorf("saved scenario = %s", data)
	}
}

func TestKeys_Quit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

// ---------- demo sweep ----------

func TestDelayMsg_SetsCombinedDelay(t *testing.T) {
	m := newTestModel(t)
	m, cmd := press(t, m, steering.DelayMsg{Deg: 33})
	if m.shared.manager.CombinedDelay() != 33 {
		t.Errorf("combined delay = %v", m.shared.manager.CombinedDelay())
	}
	if cmd == nil || !m.pending {
		t.Error("delay step did not schedule a recompute")
	}
}

func TestToggleSweep_NeedsProgram(t *testing.T) {
	m := newTestModel(t)
	m, _ = press(t, m, runes("s"))
	if m.shared.sweeper.Running() {
		t.Error("sweep started without a program")
	}
}

func TestToggleSweep_LiveProgram(t *testing.T) {
	mgr := beam.NewManager()
	mgr.AddArray("Array 1")
	m := New(Options{
		Manager:      mgr,
		Grid:         testGrid,
		Debounce:     time.Millisecond,
		Demo:         true,
		ScenarioPath: filepath.Join(t.TempDir(), "scene.json"),
	})
	m.shared.sweeper.Interval = time.Millisecond

	p := tea.NewProgram(m, tea.WithInput(nil), tea.WithoutRenderer())
	if err := m.StartDemo(p); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	// the sweeper keeps the message queue full while the keys go through
	time.Sleep(20 * time.Millisecond)
	p.Send(runes("s"))
	time.Sleep(10 * time.Millisecond)
	p.Send(runes("s"))
	time.Sleep(10 * time.Millisecond)
	p.Send(runes("q"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		p.Kill()
		t.Fatal("program did not quit while toggling the sweep")
	}
	if m.shared.sweeper.Running() {
		t.Error("sweep still running after quit")
	}
}

// ---------- view ----------

func TestView_Renders(t *testing.T) {
	m := newTestModel(t)
	if got := m.View(); !strings.Contains(got, "Initializing") {
		t.Errorf("unsized view = %q", got)
	}

	m, _ = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = settle(t, m)
	for _, key := range []string{"v", "v", "?", "?"} {
		out := m.View()
		if lines := strings.Count(out, "\n") + 1; lines < 40 {
			t.Errorf("view %v has %d lines", m.view, lines)
		}
		if !strings.Contains(out, "Array 1") {
			t.Errorf("view %v missing array list", m.view)
		}
		m, _ = press(t, m, runes(key))
	}
}

// ---------- latency ring ----------

func TestLatencyRing(t *testing.T) {
	r := NewLatencyRing(3)
	if r.Last() != 0 || r.Values() != nil || r.Mean() != 0 {
		t.Error("empty ring not zero")
	}
	for _, ms := range []int{1, 2, 3, 4} {
		r.Push(time.Duration(ms) * time.Millisecond)
	}
	got := r.Values()
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("values = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("values = %v, want %v", got, want)
		}
	}
	if r.Last() != 4*time.Millisecond || r.Mean() != 3 || r.Len() != 3 {
		t.Errorf("last = %v mean = %v len = %d", r.Last(), r.Mean(), r.Len())
	}
}

func approx(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-9*max(1, b)
}
