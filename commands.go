package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/observability"
	"beamsim.klederson.com/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and WebSocket API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.String("addr", "", "Listen address")
	f.Duration("debounce", 0, "Coalescing window for streamed recomputes")
	f.Bool("tracing", false, "Export OpenTelemetry spans")
	f.String("exporter", "", "Span exporter (stdout, otlp)")
	f.String("endpoint", "", "OTLP gRPC endpoint")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logOut, err := openLogFile(settings.Log.File)
	if err != nil {
		return err
	}
	defer logOut.Close()
	var out io.Writer = os.Stderr
	if settings.Log.File != "" {
		out = logOut
	}
	log, err := newLogger(settings, out)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracing(ctx, settings.Tracing, nil, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}

	session, err := buildSession(cmd, settings, log)
	if err != nil {
		return err
	}

	srv := server.New(session.Manager, server.Options{
		Addr:     settings.Server.Addr,
		Grid:     session.Grid,
		Debounce: settings.Server.Debounce,
	}, metrics, log)
	return srv.Run(ctx)
}

// renderOutput is the document written by the render command.
type renderOutput struct {
	beam.Frame
	Metrics  beam.BeamMetrics `json:"metrics"`
	Status   beam.Status      `json:"status"`
	Grid     beam.Grid        `json:"grid"`
	Elapsed  string           `json:"elapsed"`
	Scenario beam.Scenario    `json:"scenario"`
}

func newRenderCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Synthesize one frame and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(settings, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			session, err := buildSession(cmd, settings, log)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("render: %w", err)
				}
				defer f.Close()
				w = f
			}
			return render(cmd.Context(), w, session)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func render(ctx context.Context, w io.Writer, s session) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	frame, err := s.Manager.Synthesize(ctx, s.Grid)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	doc := renderOutput{
		Frame:    frame,
		Metrics:  frame.Pattern.Metrics(),
		Status:   s.Manager.Status(),
		Grid:     s.Grid,
		Elapsed:  time.Since(start).String(),
		Scenario: s.Manager.Scenario(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tARRAYS\tSPEED\tDESCRIPTION")
			for _, p := range beam.Presets() {
				fmt.Fprintf(tw, "%s\t%d\t%g\t%s\n", p.Name, len(p.Scenario.Arrays), p.Scenario.PropagationSpeed, p.Description)
			}
			return tw.Flush()
		},
	}
}
