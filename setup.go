package main

import (
	"fmt"
	"io"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/config"
	"beamsim.klederson.com/internal/logging"
	"beamsim.klederson.com/internal/scenario"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is the manager and sampling window a command works on.
type session struct {
	Manager *beam.Manager
	Grid    beam.Grid
	Preset  string
}

func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return config.Settings{}, err
	}
	return config.Load(v, flagConfig)
}

func openLogFile(path string) (io.WriteCloser, error) {
	return logging.OpenFile(path)
}

func newLogger(s config.Settings, out io.Writer) (*logrus.Logger, error) {
	return logging.New(logging.Config{Level: s.Log.Level, Format: s.Log.Format, Output: out})
}

// buildSession fills a manager from the preset, then the scenario file, and
// falls back to one default array. An explicit --speed wins over both.
func buildSession(cmd *cobra.Command, s config.Settings, log logrus.FieldLogger) (session, error) {
	out := session{Manager: beam.NewManager(), Grid: s.Grid.Grid()}
	loaded := false

	if s.Preset != "" {
		p, ok := beam.PresetByName(s.Preset)
		if !ok {
			return session{}, fmt.Errorf("unknown preset %q", s.Preset)
		}
		out.Manager.Load(p.Scenario)
		out.Preset = p.Name
		if !gridFlagSet(cmd) {
			out.Grid = p.Grid
		}
		loaded = true
		log.WithField("preset", p.Name).Info("preset loaded")
	}

	if s.Scenario != "" {
		sc, err := scenario.Load(s.Scenario, log)
		if err != nil {
			return session{}, err
		}
		out.Manager.Load(sc)
		out.Preset = ""
		loaded = true
		log.WithFields(logrus.Fields{
			"file":   s.Scenario,
			"arrays": len(sc.Arrays),
		}).Info("scenario loaded")
	}

	if !loaded || cmd.Flags().Changed("speed") {
		if err := out.Manager.SetPropagationSpeed(s.PropagationSpeed); err != nil {
			return session{}, err
		}
	}
	if !loaded {
		out.Manager.AddArray("")
	}
	return out, nil
}

func gridFlagSet(cmd *cobra.Command) bool {
	for _, name := range []string{"rows", "cols", "extent-x", "extent-y"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}
