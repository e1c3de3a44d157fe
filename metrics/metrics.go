// Package metrics exposes the builder's Prometheus metrics and the server
// that serves them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "secretvault_builder"

var (
	registry = prometheus.NewRegistry()

	// RegistrationOutcomes counts builder registrations by outcome.
	RegistrationOutcomes = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_outcomes_total",
		Help:      "Builder registrations by outcome",
	}, []string{"outcome"})

	// RegistrationFailures counts registrations that returned an error.
	RegistrationFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_failures_total",
		Help:      "Builder registrations that failed",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordRegistration increments the counter for outcome.
func RecordRegistration(outcome string) {
	RegistrationOutcomes.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

type MetricsServer struct {
	addr string
	srv  *http.Server
}

// New creates a metrics server for addr. An empty addr disables it.
func New(addr string) (*MetricsServer, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return &MetricsServer{}, nil
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", Handler())

	return &MetricsServer{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Enabled reports whether the server has an address to listen on.
func (m *MetricsServer) Enabled() bool {
	return m.srv != nil
}

func (m *MetricsServer) Addr() string {
	return m.addr
}

// ListenAndServe blocks until the server stops. It returns nil right away
// when the server is disabled, and nil after Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	if m.srv == nil {
		return nil
	}
	if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
