// Package metrics exposes Prometheus instrumentation for outbound searches and
// live sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration prometheus.Histogram
	HitsFetchedTotal      prometheus.Counter
	StaleResponsesTotal   prometheus.Counter
	SessionsActive        prometheus.Gauge
}

// New creates a Metrics set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hnsearch_search_requests_total",
				Help: "Total number of requests sent to the search endpoint",
			},
			[]string{"status"},
		),
		SearchRequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hnsearch_search_request_duration_seconds",
				Help:    "Search endpoint request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		HitsFetchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hnsearch_hits_fetched_total",
				Help: "Total number of hits received from the search endpoint",
			},
		),
		StaleResponsesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hnsearch_stale_responses_total",
				Help: "Responses dropped because a newer request for the same term was issued",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hnsearch_sessions_active",
				Help: "Number of live search sessions",
			},
		),
	}

	reg.MustRegister(
		m.SearchRequestsTotal,
		m.SearchRequestDuration,
		m.HitsFetchedTotal,
		m.StaleResponsesTotal,
		m.SessionsActive,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveSearch records one outbound request. status is "ok" or "error".
func (m *Metrics) ObserveSearch(status string, started time.Time, hits int) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchRequestDuration.Observe(time.Since(started).Seconds())
	if hits > 0 {
		m.HitsFetchedTotal.Add(float64(hits))
	}
}

// StaleDropped counts a response discarded by the session.
func (m *Metrics) StaleDropped() {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.Inc()
}

// SessionOpened and SessionClosed track the live session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

