// Package server exposes a Manager over a JSON HTTP API and a WebSocket
// stream that pushes freshly synthesized frames after every change.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"beamsim.klederson.com/internal/beam"
	"beamsim.klederson.com/internal/observability"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options configures a Server.
type Options struct {
	Addr     string
	Grid     beam.Grid
	Debounce time.Duration
}

// Server wraps the HTTP server, the shared manager and the stream hub.
type Server struct {
	addr     string
	manager  *beam.Manager
	metrics  *observability.Collector
	log      logrus.FieldLogger
	hub      *hub
	debounce time.Duration

	gridMu sync.RWMutex
	grid   beam.Grid
}

// New creates a server for m. A nil collector disables metrics.
func New(m *beam.Manager, opts Options, metrics *observability.Collector, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Grid.Validate() != nil {
		opts.Grid = beam.DefaultGrid
	}
	s := &Server{
		addr:     opts.Addr,
		manager:  m,
		metrics:  metrics,
		log:      log.WithField("component", "server"),
		debounce: opts.Debounce,
		grid:     opts.Grid,
	}
	s.hub = newHub(s)
	s.refreshGauges()
	return s
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/scenario", s.handleGetScenario)
	mux.HandleFunc("PUT /api/scenario", s.handlePutScenario)

	mux.HandleFunc("GET /api/arrays", s.handleListArrays)
	mux.HandleFunc("POST /api/arrays", s.handleAddArray)
	mux.HandleFunc("GET /api/arrays/{id}", s.handleGetArray)
	mux.HandleFunc("PATCH /api/arrays/{id}", s.handlePatchArray)
	mux.HandleFunc("DELETE /api/arrays/{id}", s.handleDeleteArray)
	mux.HandleFunc("POST /api/arrays/{id}/duplicate", s.handleDuplicateArray)
	mux.HandleFunc("POST /api/arrays/{id}/reset", s.handleResetArray)
	mux.HandleFunc("PUT /api/arrays/{id}/elements/{idx}", s.handlePutElement)

	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/heatmap", s.handleHeatmap)
	mux.HandleFunc("GET /api/pattern", s.handlePattern)
	mux.HandleFunc("GET /api/overlay", s.handleOverlay)
	mux.HandleFunc("GET /api/metrics/beam", s.handleBeamMetrics)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets/{name}", s.handleLoadPreset)

	mux.HandleFunc("GET /ws", s.hub.serveWS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.metrics.Middleware(s.requestLog(mux))
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Mux()}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Grid returns the current sampling window.
func (s *Server) Grid() beam.Grid {
	s.gridMu.RLock()
	defer s.gridMu.RUnlock()
	return s.grid
}

func (s *Server) setGrid(g beam.Grid) {
	if g.Validate() != nil {
		return
	}
	s.gridMu.Lock()
	s.grid = g
	s.gridMu.Unlock()
}

// changed is called after every successful mutation.
func (s *Server) changed() {
	s.refreshGauges()
	s.hub.kickAll()
}

func (s *Server) refreshGauges() {
	st := s.manager.Status()
	s.metrics.SetManagerCounts(st.Arrays, st.Elements)
}

// frame runs one traced, metered synthesis pass.
func (s *Server) frame(ctx context.Context, g beam.Grid) (beam.Frame, error) {
	ctx, span := observability.Tracer().Start(ctx, "synthesize.frame", trace.WithAttributes(
		attribute.Int("grid.rows", g.Rows),
		attribute.Int("grid.cols", g.Cols),
	))
	defer span.End()

	start := time.Now()
	f, err := s.manager.Synthesize(ctx, g)
	s.metrics.ObserveSynthesis("frame", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return f, err
}

func (s *Server) heatmap(ctx context.Context, g beam.Grid) (beam.Heatmap, error) {
	ctx, span := observability.Tracer().Start(ctx, "synthesize.heatmap", trace.WithAttributes(
		attribute.Int("grid.rows", g.Rows),
		attribute.Int("grid.cols", g.Cols),
	))
	defer span.End()

	start := time.Now()
	hm, err := s.manager.Heatmap(ctx, g)
	s.metrics.ObserveSynthesis("heatmap", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return hm, err
}

func (s *Server) pattern(ctx context.Context) beam.BeamPattern {
	_, span := observability.Tracer().Start(ctx, "synthesize.pattern")
	defer span.End()

	start := time.Now()
	p := s.manager.BeamPattern()
	s.metrics.ObserveSynthesis("pattern", time.Since(start), nil)
	return p
}

// requestLog tags each request with an ID and logs it at debug level.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"elapsed":    time.Since(start),
		}).Debug("request")
	})
}
