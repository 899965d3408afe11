package main

import (
	"fmt"
	"os"

	"beamsim.klederson.com/internal/app"
	"beamsim.klederson.com/internal/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDemo   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beamsim",
		Short: "BEAMSIM - Terminal phased-array beamforming simulator",
		Long: `BEAMSIM synthesizes the combined field of several phased antenna arrays
and shows the near-field heatmap and far-field beam pattern live in the
terminal as you change geometry, spacing, delays and frequencies.

Settings come from beamsim.yaml, BEAMSIM_* environment variables and flags.
Use "beamsim serve" for the HTTP/WebSocket API and "beamsim render" for a
one-shot JSON dump.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Settings file (default: ./beamsim.yaml or ~/.config/beamsim/beamsim.yaml)")
	pf.Float64("speed", 0, "Propagation speed in m/s")
	pf.String("scenario", "", "Scenario file to load (.json, .yaml)")
	pf.String("preset", "", "Preset to load (see \"beamsim presets\")")
	pf.Int("rows", 0, "Heatmap grid rows")
	pf.Int("cols", 0, "Heatmap grid columns")
	pf.Float64("extent-x", 0, "Heatmap half-width in meters")
	pf.Float64("extent-y", 0, "Heatmap height in meters")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
	pf.String("log-file", "", "Append logs to this file")

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Sweep the combined delay automatically")

	rootCmd.AddCommand(newServeCmd(), newRenderCmd(), newPresetsCmd())
	return rootCmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	// The alt screen owns stderr, so the TUI only logs to a file.
	logOut, err := openLogFile(settings.Log.File)
	if err != nil {
		return err
	}
	defer logOut.Close()
	log, err := newLogger(settings, logOut)
	if err != nil {
		return err
	}

	session, err := buildSession(cmd, settings, log)
	if err != nil {
		return err
	}

	savePath := settings.Scenario
	if savePath == "" {
		savePath = "scenario.json"
	}
	model := app.New(app.Options{
		Manager:      session.Manager,
		Grid:         session.Grid,
		Debounce:     config.RecomputeDebounce,
		Demo:         flagDemo,
		Preset:       session.Preset,
		ScenarioPath: savePath,
		Log:          log,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(config.TargetFPS),
	)

	// The demo sweep posts to the program, so it starts before Run.
	if err := model.StartDemo(p); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		return err
	}
	defer model.Stop()

	_, err = p.Run()
	return err
}
