// Package observability holds the Prometheus collector and the OpenTelemetry
// tracer setup used by the HTTP server.
package observability

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the simulator's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Synthesis         *prometheus.CounterVec
	SynthesisDuration *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec

	Arrays   prometheus.Gauge
	Elements prometheus.Gauge
	Sessions prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	synth, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamsim_synthesis_total",
		Help: "Synthesis passes, labeled by output kind and outcome (ok, canceled, error).",
	}, []string{"kind", "outcome"}), "beamsim_synthesis_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "beamsim_synthesis_duration_seconds",
		Help:    "Wall time of completed synthesis passes.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind"}), "beamsim_synthesis_duration_seconds")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beamsim_http_requests_total",
		Help: "HTTP requests, labeled by route pattern and status code.",
	}, []string{"route", "code"}), "beamsim_http_requests_total")
	if err != nil {
		return nil, err
	}

	arrays, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beamsim_arrays",
		Help: "Current number of arrays in the manager.",
	}), "beamsim_arrays")
	if err != nil {
		return nil, err
	}
	elements, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beamsim_elements",
		Help: "Current number of elements across all arrays.",
	}), "beamsim_elements")
	if err != nil {
		return nil, err
	}
	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beamsim_stream_sessions",
		Help: "Open WebSocket stream sessions.",
	}), "beamsim_stream_sessions")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Synthesis:         synth,
		SynthesisDuration: durations,
		HTTPRequests:      requests,
		Arrays:            arrays,
		Elements:          elements,
		Sessions:          sessions,
	}, nil
}

// ObserveSynthesis records one pass. Durations are only observed for passes
// that completed.
func (c *Collector) ObserveSynthesis(kind string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
		c.SynthesisDuration.WithLabelValues(kind).Observe(d.Seconds())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "canceled"
	default:
		outcome = "error"
	}
	c.Synthesis.WithLabelValues(kind, outcome).Inc()
}

// SetManagerCounts updates the array and element gauges.
func (c *Collector) SetManagerCounts(arrays, elements int) {
	if c == nil {
		return
	}
	c.Arrays.Set(float64(arrays))
	c.Elements.Set(float64(elements))
}

// Middleware counts requests by the mux pattern that served them.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(route, strconv.Itoa(sw.code)).Inc()
	})
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack passes WebSocket upgrades through to the underlying connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
