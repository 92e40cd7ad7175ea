package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for the compile boundary.
type Metrics struct {
	config MetricsConfig

	compilations       *prometheus.CounterVec
	compileDuration    *prometheus.HistogramVec
	handlesLive        *prometheus.GaugeVec
	contractViolations *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with its own registry. When metrics
// are disabled every recording method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Total number of compiler phases run, by context type and status",
			},
			[]string{"context", "status"},
		),
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Duration of compiler phases in seconds",
				Buckets:   buckets,
			},
			[]string{"phase"},
		),
		handlesLive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "handles_live",
				Help:      "Current number of live owned handles",
			},
			[]string{"kind"},
		),
		contractViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contract_violations_total",
				Help:      "Total number of handle contract violations",
			},
			[]string{"kind"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of compile cache lookups, by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.compilations,
		m.compileDuration,
		m.handlesLive,
		m.contractViolations,
		m.cacheLookups,
	)

	return m, nil
}

// HandleMade counts a new owned handle.
func (m *Metrics) HandleMade(kind string) {
	if m.handlesLive == nil {
		return
	}
	m.handlesLive.WithLabelValues(kind).Inc()
}

// HandleDeleted counts a released owned handle.
func (m *Metrics) HandleDeleted(kind string) {
	if m.handlesLive == nil {
		return
	}
	m.handlesLive.WithLabelValues(kind).Dec()
}

// Violation counts a contract violation.
func (m *Metrics) Violation(kind string) {
	if m.contractViolations == nil {
		return
	}
	m.contractViolations.WithLabelValues(kind).Inc()
}

// Compiled records one compiler phase.
func (m *Metrics) Compiled(phase, kind, status string, seconds float64) {
	if m.compilations == nil {
		return
	}
	m.compilations.WithLabelValues(kind, status).Inc()
	m.compileDuration.WithLabelValues(phase).Observe(seconds)
}

// CacheLookup records a compile cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Registry returns the private registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves the metrics endpoint on the configured listen
// address until ctx is done. It does nothing when metrics are disabled or no
// address is set.
func (m *Metrics) StartMetricsServer(ctx context.Context) error {
	addr := m.config.ListenAddress
	if !m.config.Enabled || addr == "" {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return nil
}
