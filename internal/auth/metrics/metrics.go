// Package metrics exposes the auth service's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubhouse_auth"

type Metrics struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	rateLimitBlocks prometheus.Counter
	invitations     *prometheus.CounterVec
	auditFallbacks  prometheus.Counter
	sessionsPruned  prometheus.Counter
}

// New registers every collector on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by final outcome.",
		}, []string{"outcome"}),
		rateLimitBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_blocks_total",
			Help:      "Login attempts refused by the persistent rate limiter.",
		}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_total",
			Help:      "Invitation lifecycle events.",
		}, []string{"event"}),
		auditFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_fallback_writes_total",
			Help:      "Audit entries that could not be persisted and were logged instead.",
		}),
		sessionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_pruned_total",
			Help:      "Sessions removed by housekeeping.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.logins,
		m.rateLimitBlocks,
		m.invitations,
		m.auditFallbacks,
		m.sessionsPruned,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// LoginOutcome counts a resolved login attempt (success, failure, challenged, blocked).
func (m *Metrics) LoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimitBlocked() {
	if m == nil {
		return
	}
	m.rateLimitBlocks.Inc()
}

// Invitation counts created, accepted and deleted events.
func (m *Metrics) Invitation(event string) {
	if m == nil {
		return
	}
	m.invitations.WithLabelValues(event).Inc()
}

func (m *Metrics) AuditFallback() {
	if m == nil {
		return
	}
	m.auditFallbacks.Inc()
}

func (m *Metrics) SessionsPruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsPruned.Add(float64(n))
}
