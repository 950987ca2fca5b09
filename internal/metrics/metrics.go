// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordcloud"

// Submission outcomes.
const (
	OutcomeAccepted   = "accepted"
	OutcomeInvalid    = "invalid"
	OutcomeCooldown   = "cooldown"
	OutcomeNoAttempts = "no_attempts"
	OutcomeNotLive    = "not_live"
	OutcomeFallback   = "fallback"
	OutcomeBusy       = "busy"
	OutcomeError      = "error"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	Submissions     *prometheus.CounterVec
	FallbackInserts prometheus.Counter
	LiveSubscribers prometheus.Gauge
	SessionsClosed  prometheus.Counter
	QuotasPruned    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Entry submissions by outcome.",
		}, []string{"outcome"}),
		FallbackInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_fallback_total",
			Help:      "Entries written without a quota check because the gate was unavailable.",
		}),
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscribers",
			Help:      "Open live aggregate streams.",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_sessions_closed_total",
			Help:      "Live sessions closed because their time limit elapsed.",
		}),
		QuotasPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_quotas_pruned_total",
			Help:      "Expired quota rows deleted by the sweeper.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Submissions,
		m.FallbackInserts,
		m.LiveSubscribers,
		m.SessionsClosed,
		m.QuotasPruned,
		m.RequestDuration,
	)
	return m
}

// Submission counts one submission outcome. A nil receiver is a no-op.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
