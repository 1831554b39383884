// Package metrics exposes Prometheus collectors for backend calls and snapshot
// delivery, served alongside a health probe.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samvad-hq/bizdesk/internal/logger"
	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

const namespace = "bizdesk"

// Metrics owns a private registry so tests and multiple instances never
// collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	apiCalls       *prometheus.CounterVec
	apiDuration    *prometheus.HistogramVec
	snapshots      *prometheus.CounterVec
	publishes      *prometheus.CounterVec
	lastSnapshotAt prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "calls_total",
				Help:      "Backend calls by operation, method, status and outcome.",
			},
			[]string{"operation", "method", "status", "outcome"},
		),
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "call_duration_seconds",
				Help:      "Duration of backend calls.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"operation"},
		),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "snapshots_total",
				Help:      "Snapshots fetched by kind and result (published, unchanged, failed).",
			},
			[]string{"kind", "result"},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "relay",
				Name:      "publisher_deliveries_total",
				Help:      "Publisher deliveries by kind and success.",
			},
			[]string{"kind", "success"},
		),
		lastSnapshotAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "last_pass_timestamp_seconds",
			Help:      "Unix time of the last completed relay pass.",
		}),
	}
	m.Registry.MustRegister(
		m.apiCalls,
		m.apiDuration,
		m.snapshots,
		m.publishes,
		m.lastSnapshotAt,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveCall is an apiclient.Observer.
func (m *Metrics) ObserveCall(info apiclient.CallInfo) {
	op := info.Operation
	if op == "" {
		op = "unnamed"
	}
	status := "none"
	if info.Status > 0 {
		status = strconv.Itoa(info.Status)
	}
	m.apiCalls.WithLabelValues(op, info.Method, status, string(info.Outcome)).Inc()
	m.apiDuration.WithLabelValues(op).Observe(info.Duration.Seconds())
}

// Snapshot records one snapshot result.
func (m *Metrics) Snapshot(kind, result string) {
	m.snapshots.WithLabelValues(kind, result).Inc()
}

// Delivery records the outcome of a fanout for one snapshot.
func (m *Metrics) Delivery(kind string, delivered, failed int) {
	if delivered > 0 {
		m.publishes.WithLabelValues(kind, "true").Add(float64(delivered))
	}
	if failed > 0 {
		m.publishes.WithLabelValues(kind, "false").Add(float64(failed))
	}
}

// PassCompleted stamps the end of a relay pass.
func (m *Metrics) PassCompleted(at time.Time) {
	m.lastSnapshotAt.Set(float64(at.Unix()))
}

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log logger.Logger) error {
	if log == nil {
		log = logger.NopLogger{}
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoObj("metrics server listening", "metrics_addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
