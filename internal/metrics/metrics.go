// Package metrics provides the Prometheus instrumentation for docstore
// and the optional diagnostics HTTP listener exposing it.
//
// The counters here back the observability requirements the core cannot
// drop: every audit or store persistence fault is counted even though it
// may never surface to a client, and every broadcast eviction is counted
// alongside its log line.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Component labels for persistence fault counters.
const (
	ComponentDocuments = "documents"
	ComponentAudit     = "audit"
)

// Metrics holds every collector the server updates. One instance is
// constructed at startup and handed to each component, mirroring the
// explicit singleton ownership of the store and log.
type Metrics struct {
	registry *prometheus.Registry

	// Requests counts accepted requests by action and outcome (ok/error).
	Requests *prometheus.CounterVec

	// ValidationFailures counts requests rejected before dispatch.
	ValidationFailures prometheus.Counter

	// PersistenceFaults counts backend errors by component. Audit
	// faults never fail a request, so this counter is the only place
	// they become visible outside the log stream.
	PersistenceFaults *prometheus.CounterVec

	// BroadcastDeliveries counts change events delivered to subscribers.
	BroadcastDeliveries prometheus.Counter

	// BroadcastEvictions counts subscriber sockets evicted after a
	// failed delivery.
	BroadcastEvictions prometheus.Counter

	// Subscribers tracks the number of live subscriber sockets.
	Subscribers prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "requests_total",
			Help:      "Accepted requests by action and outcome.",
		}, []string{"action", "outcome"}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "validation_failures_total",
			Help:      "Requests rejected during validation.",
		}),
		PersistenceFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "persistence_faults_total",
			Help:      "Storage backend errors by component.",
		}, []string{"component"}),
		BroadcastDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "broadcast_deliveries_total",
			Help:      "Change events delivered to subscriber sockets.",
		}),
		BroadcastEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docstore",
			Name:      "broadcast_evictions_total",
			Help:      "Subscriber sockets evicted after a failed delivery.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docstore",
			Name:      "subscribers",
			Help:      "Live subscriber sockets.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.Requests,
		m.ValidationFailures,
		m.PersistenceFaults,
		m.BroadcastDeliveries,
		m.BroadcastEvictions,
		m.Subscribers,
	)
	return m
}

// Router returns the diagnostics HTTP routes: /metrics for Prometheus
// scrapes and /healthz backed by the given check.
func (m *Metrics) Router(health func(ctx context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}
