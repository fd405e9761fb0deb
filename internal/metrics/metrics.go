// Package metrics exposes application-level Prometheus instruments.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// Metrics holds the counters the services record into. A nil *Metrics
// is safe to call, which keeps tests free of registry plumbing.
type Metrics struct {
	registry *prometheus.Registry

	generations      *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	creditsSpent     prometheus.Counter
	rateLimitAllowed *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
}

// New configures the domain instruments on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adcraft_generations_total",
			Help: "Generation attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adcraft_webhook_events_total",
			Help: "Billing webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		creditsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adcraft_credits_spent_total",
			Help: "Credits debited for successful generations.",
		}),
		rateLimitAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adcraft_rate_limit_allowed_total",
			Help: "Requests admitted by the rate limiter.",
		}, []string{"endpoint"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adcraft_rate_limit_denied_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"endpoint"}),
	}

	registry.MustRegister(
		m.generations,
		m.webhookEvents,
		m.creditsSpent,
		m.rateLimitAllowed,
		m.rateLimitDenied,
	)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordGeneration increments generation counts.
func (m *Metrics) RecordGeneration(kind, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(strings.TrimSpace(kind), strings.TrimSpace(outcome)).Inc()
}

// RecordWebhookEvent increments webhook delivery counts.
func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(strings.TrimSpace(eventType), strings.TrimSpace(outcome)).Inc()
}

// RecordCreditSpent increments the spent credit count.
func (m *Metrics) RecordCreditSpent() {
	if m == nil {
		return
	}
	m.creditsSpent.Inc()
}

// RecordRateLimitAllowed increments rate limit allow counts.
func (m *Metrics) RecordRateLimitAllowed(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitAllowed.WithLabelValues(strings.TrimSpace(endpoint)).Inc()
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(strings.TrimSpace(endpoint)).Inc()
}

// Module provides the shared metrics instruments.
var Module = fx.Module("metrics",
	fx.Provide(New),
)
