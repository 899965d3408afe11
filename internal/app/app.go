package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/config"
	"beamsim.klederson.com/internal/radar"
	"beamsim.klederson.com/internal/scenario"
	"beamsim.klederson.com/internal/steering"
	"beamsim.klederson.com/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Options configures a new AppModel.
type Options struct {
	Manager      *beam.Manager
	Grid         beam.Grid
	Debounce     time.Duration
	Demo         bool
	Preset       string // name of the preset already loaded, if any
	ScenarioPath string // target of ctrl+s
	Log          logrus.FieldLogger
}

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	manager   *beam.Manager
	cursor    *radar.Cursor
	latencies *LatencyRing
	sweeper   *steering.Sweeper
	program   *tea.Program
	log       logrus.FieldLogger

	// cancel aborts the synthesis pass in flight. Only Update touches it.
	cancel context.CancelFunc
}

// AppModel is the root Bubble Tea model for BEAMSIM.
type AppModel struct {
	width  int
	height int

	view     ui.View
	help     bool
	demo     bool
	active   beam.Handle
	element  int
	preset   string
	grid     beam.Grid
	debounce time.Duration
	savePath string

	gen     uint64
	pending bool
	frame   beam.Frame
	metrics beam.BeamMetrics
	err     error

	shared *shared
}

// New creates a new AppModel around opts.Manager.
func New(opts Options) AppModel {
	if opts.Manager == nil {
		opts.Manager = beam.NewManager()
	}
	if opts.Grid.Validate() != nil {
		opts.Grid = beam.DefaultGrid
	}
	if opts.Debounce <= 0 {
		opts.Debounce = config.RecomputeDebounce
	}
	if opts.ScenarioPath == "" {
		opts.ScenarioPath = "scenario.json"
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return AppModel{
		demo:     opts.Demo,
		active:   opts.Manager.ClampHandle(0),
		preset:   opts.Preset,
		grid:     opts.Grid,
		debounce: opts.Debounce,
		savePath: opts.ScenarioPath,
		pending:  true,
		shared: &shared{
			manager:   opts.Manager,
			cursor:    radar.NewCursor(),
			latencies: NewLatencyRing(config.LatencyHistory),
			sweeper:   steering.NewSweeper(),
			log:       opts.Log,
		},
	}
}

func (m AppModel) Init() tea.Cmd {
	gen := m.gen
	return tea.Batch(
		tickCmd(),
		func() tea.Msg { return recomputeMsg{gen: gen} },
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.shared.cursor.Update()
		return m, tickCmd()

	case steering.DelayMsg:
		m.shared.manager.SetCombinedDelay(msg.Deg)
		return m.schedule()

	case recomputeMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.synthesize()

	case frameMsg:
		return m.applyFrame(msg), nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.shared.log.WithError(msg.err).Warn("scenario save failed")
		} else {
			m.err = nil
			m.shared.log.WithField("file", msg.path).Info("scenario saved")
		}
		return m, nil
	}

	return m, nil
}

// schedule bumps the generation and arms the debounce timer. Only the timer
// of the newest generation starts a synthesis pass.
func (m AppModel) schedule() (AppModel, tea.Cmd) {
	m.gen++
	m.pending = true
	gen := m.gen
	return m, tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return recomputeMsg{gen: gen}
	})
}

// synthesize cancels the pass in flight and starts a new one in the
// background.
func (m AppModel) synthesize() tea.Cmd {
	if m.shared.cancel != nil {
		m.shared.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.shared.cancel = cancel

	manager, grid, gen := m.shared.manager, m.grid, m.gen
	return func() tea.Msg {
		start := time.Now()
		frame, err := manager.Synthesize(ctx, grid)
		msg := frameMsg{gen: gen, frame: frame, elapsed: time.Since(start), err: err}
		if err == nil {
			msg.metrics = frame.Pattern.Metrics()
		}
		return msg
	}
}

func (m AppModel) applyFrame(msg frameMsg) AppModel {
	if msg.gen != m.gen {
		return m
	}
	if errors.Is(msg.err, context.Canceled) {
		return m
	}
	m.pending = false
	if msg.err != nil {
		m.err = msg.err
		m.shared.log.WithError(msg.err).Warn("synthesis failed")
		return m
	}
	m.err = nil
	m.frame = msg.frame
	m.metrics = msg.metrics
	m.shared.latencies.Push(msg.elapsed)
	m.shared.log.WithFields(logrus.Fields{
		"gen":     msg.gen,
		"elapsed": msg.elapsed,
	}).Debug("frame ready")
	return m
}

// mutate applies fn to the active array and schedules a recompute.
func (m AppModel) mutate(fn func(a *beam.Array, c float64) error) (AppModel, tea.Cmd) {
	m.active = m.shared.manager.ClampHandle(m.active)
	if m.active == beam.NoHandle {
		return m, nil
	}
	if err := m.shared.manager.Update(m.active, fn); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	return m.schedule()
}

// activeArray returns a copy of the selected array, or nil.
func (m AppModel) activeArray() *beam.Array {
	a, err := m.shared.manager.Array(m.active)
	if err != nil {
		return nil
	}
	return a
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing " + config.AppName + "..."
	}

	menuH := 1
	statusH := 1
	bodyH := m.height - menuH - statusH
	if bodyH < 5 {
		bodyH = 5
	}

	plotW := m.width * 3 / 4
	if plotW < 30 {
		plotW = 30
	}
	listW := m.width - plotW
	if listW < 15 {
		listW = 15
		plotW = m.width - listW
	}

	manager := m.shared.manager
	c := manager.PropagationSpeed()
	arrays := manager.Arrays()

	menuBar := ui.RenderMenuBar(m.width, m.view, m.preset, m.shared.sweeper.Running())
	plotPanel := m.renderPlot(plotW, bodyH, arrays, c)
	arrayList := ui.RenderArrayList(arrays, listW, bodyH, m.active, c)
	statusBar := ui.RenderStatusBar(m.width, ui.StatusInfo{
		Status:    manager.Status(),
		Active:    m.active,
		CursorDeg: m.shared.cursor.Degrees(),
		Latency:   m.shared.latencies.Last(),
		Pending:   m.pending,
		Err:       m.err,
	})

	return ui.ComposeLayout(menuBar, plotPanel, arrayList, statusBar, m.width)
}

func (m AppModel) renderPlot(width, height int, arrays []*beam.Array, c float64) string {
	innerW := max(width-4, 5)
	innerH := max(height-4, 3)

	if m.help {
		return ui.RenderPlotPanel(width, height, "KEYS", helpText(), "")
	}

	switch m.view {
	case ui.ViewDetail:
		var a *beam.Array
		if m.active != beam.NoHandle && int(m.active) < len(arrays) {
			a = arrays[m.active]
		}
		return ui.RenderDetailPanel(ui.DetailInfo{
			Array:     a,
			Metrics:   m.metrics,
			Speed:     c,
			Selected:  m.element,
			Latencies: m.shared.latencies.Values(),
		}, width, height)

	case ui.ViewHeatmap:
		names := make([]string, len(arrays))
		for i, a := range arrays {
			names[i] = a.Name
		}
		content := radar.RenderHeatmap(innerW, innerH-1, m.frame.Heatmap, m.frame.Overlay)
		return ui.RenderPlotPanel(width, height, "FIELD HEATMAP", content, radar.RenderLegend(innerW, names))

	default:
		content := radar.RenderPattern(innerW, innerH-1, m.frame.Pattern, m.shared.cursor)
		footer := radar.CursorReadout(m.frame.Pattern, m.shared.cursor)
		if len(arrays) > 0 {
			footer += fmt.Sprintf("   lobe %d°  -3dB %d°", m.metrics.MainLobeDeg, m.metrics.BeamwidthDeg)
		}
		return ui.RenderPlotPanel(width, height, "BEAM PATTERN", content, footer)
	}
}

var helpKeys = [][2]string{
	{"tab/shift+tab", "select array"},
	{"a x d r", "add, delete, duplicate, reset"},
	{"p", "next preset"},
	{"v enter esc", "cycle view, detail, back"},
	{"g m", "geometry, spacing mode"},
	{"[ ]", "spacing or lambda multiplier"},
	{"+ -", "element count"},
	{"left/right", "array delay"},
	{"{ }", "combined delay"},
	{", .", "rotation"},
	{"H L J K", "move array"},
	{"c C", "curvature"},
	{"e E", "select element"},
	{"f F", "element frequency"},
	{"w W", "all frequencies"},
	{"space", "freeze cursor"},
	{"s", "demo sweep"},
	{"ctrl+s", "save scenario"},
	{"q", "quit"},
}

func helpText() string {
	lines := make([]string, 0, len(helpKeys))
	for _, k := range helpKeys {
		line := ui.StyleMenuKey.Render(fmt.Sprintf("  %-14s", k[0])) + ui.StyleHelp.Render(k[1])
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// StartDemo attaches the program so the demo sweep can post to it, and
// starts the sweep when demo mode was requested. Must be called before
// p.Run().
func (m *AppModel) StartDemo(p *tea.Program) error {
	m.shared.program = p
	if !m.demo {
		return nil
	}
	return m.shared.sweeper.Start(p)
}

// Stop halts the demo sweep and any synthesis pass in flight.
func (m AppModel) Stop() {
	m.shared.sweeper.Stop()
	if m.shared.cancel != nil {
		m.shared.cancel()
	}
}

func saveCmd(path string, s beam.Scenario) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{path: path, err: scenario.Save(path, s)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
