// Package metrics exposes Prometheus collectors for dispatch and plugin
// loading. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaneta"

// Invocation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeThrottled    = "throttled"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "missing_permissions"
	OutcomeFailed       = "failed"
	OutcomeUnknown      = "unknown"
)

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	invocations     *prometheus.CounterVec
	executeDuration *prometheus.HistogramVec
	loadErrors      prometheus.Counter
	loaded          *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates the collectors. cooldownEntries, if non-nil, is sampled on scrape.
func New(cooldownEntries func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Total number of dispatched invocations",
		},
		[]string{"origin", "outcome"},
	)

	m.executeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execute_duration_seconds",
			Help:      "Plugin execute duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"origin"},
	)

	m.loadErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_load_errors_total",
			Help:      "Total number of rejected plugin descriptors",
		},
	)

	m.loaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plugins_loaded",
			Help:      "Number of loaded plugin entries",
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(
		m.invocations,
		m.executeDuration,
		m.loadErrors,
		m.loaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cooldownEntries != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cooldown_entries",
				Help:      "Number of tracked cooldown entries",
			},
			func() float64 { return float64(cooldownEntries()) },
		))
	}

	return m
}

// Invocation counts one dispatched invocation.
func (m *Metrics) Invocation(origin, outcome string) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(origin, outcome).Inc()
}

// ObserveExecute records how long a plugin execute call took.
func (m *Metrics) ObserveExecute(origin string, d time.Duration) {
	if m == nil {
		return
	}
	m.executeDuration.WithLabelValues(origin).Observe(d.Seconds())
}

// LoadError counts one rejected descriptor.
func (m *Metrics) LoadError() {
	if m == nil {
		return
	}
	m.loadErrors.Inc()
}

// Loaded sets the number of loaded entries of kind.
func (m *Metrics) Loaded(kind string, n int) {
	if m == nil {
		return
	}
	m.loaded.WithLabelValues(kind).Set(float64(n))
}

// Registry returns the underlying registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down metrics server", "error", err)
		}
	}()

	slog.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
