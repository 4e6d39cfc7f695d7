package observ

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "erlfix"

// Metrics counts what the diagnostics engine does. Each instance owns its
// registry so tests and multiple servers never collide on collector names.
type Metrics struct {
	registry *prometheus.Registry

	RulesRun         *prometheus.CounterVec
	RulePanics       *prometheus.CounterVec
	Diagnostics      *prometheus.CounterVec
	Suppressed       *prometheus.CounterVec
	FixesRejected    *prometheus.CounterVec
	ChangesDiscarded prometheus.Counter
	StaleResults     prometheus.Counter
	FileDuration     prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RulesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_run_total",
			Help:      "Diagnostic rule invocations, by rule code.",
		}, []string{"code"}),
		RulePanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_panics_total",
			Help:      "Rule invocations that panicked and were isolated.",
		}, []string{"code"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported after suppression, by code.",
		}, []string{"code"}),
		Suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_suppressed_total",
			Help:      "Diagnostics dropped by an ignore annotation, by code.",
		}, []string{"code"}),
		FixesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_rejected_total",
			Help:      "Candidate fixes dropped by the safety check, by reason.",
		}, []string{"reason"}),
		ChangesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_changes_discarded_total",
			Help:      "Incremental edits whose range could not be translated.",
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Analysis results dropped because the document changed meanwhile.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_analysis_seconds",
			Help:      "Wall time of one file analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.registry.MustRegister(
		m.RulesRun, m.RulePanics, m.Diagnostics, m.Suppressed,
		m.FixesRejected, m.ChangesDiscarded, m.StaleResults, m.FileDuration,
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// nil-safe helpers: engines built without metrics pass a nil *Metrics

func (m *Metrics) RuleRun(code string) {
	if m != nil {
		m.RulesRun.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) RulePanic(code string) {
	if m != nil {
		m.RulePanics.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) Reported(code string) {
	if m != nil {
		m.Diagnostics.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) SuppressedBy(code string) {
	if m != nil {
		m.Suppressed.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) FixRejected(reason string) {
	if m != nil {
		m.FixesRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Discarded(n int) {
	if m != nil && n > 0 {
		m.ChangesDiscarded.Add(float64(n))
	}
}

func (m *Metrics) Stale() {
	if m != nil {
		m.StaleResults.Inc()
	}
}

func (m *Metrics) ObserveFile(d time.Duration) {
	if m != nil {
		m.FileDuration.Observe(d.Seconds())
	}
}

// MetricsServer serves /metrics until closed.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	done     chan error
}

func ServeMetrics(ctx context.Context, addr string, m *Metrics) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	ms := &MetricsServer{server: srv, listener: listener, done: make(chan error, 1)}
	go func() {
		err := srv.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		ms.done <- err
	}()
	return ms, nil
}

func (s *MetricsServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *MetricsServer) Close(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	return <-s.done
}
