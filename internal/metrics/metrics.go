// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface used by the gateway and middleware.
type Recorder interface {
	RecordAuthAttempt(op string, err error)
	RecordGuardDecision(allowed bool)
	RecordSessionEvent(reason string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	authAttempts   *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	sessionEvents  *prometheus.CounterVec
	gatherer       prometheus.Gatherer
}

// NewCollector creates a Collector registered on reg.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_auth_attempts_total",
			Help: "Credential gateway operations by operation and result.",
		}, []string{"op", "result"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_guard_decisions_total",
			Help: "Session guard decisions for protected views.",
		}, []string{"decision"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_session_events_total",
			Help: "Session-change events published, by reason.",
		}, []string{"reason"}),
		gatherer: reg,
	}

	reg.MustRegister(c.authAttempts, c.guardDecisions, c.sessionEvents)
	return c
}

// RecordAuthAttempt counts one gateway operation.
func (c *Collector) RecordAuthAttempt(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.authAttempts.WithLabelValues(op, result).Inc()
}

// RecordGuardDecision counts one guard check.
func (c *Collector) RecordGuardDecision(allowed bool) {
	decision := "redirect"
	if allowed {
		decision = "allow"
	}
	c.guardDecisions.WithLabelValues(decision).Inc()
}

// RecordSessionEvent counts one published session-change event.
func (c *Collector) RecordSessionEvent(reason string) {
	c.sessionEvents.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. It is the default when no collector is wired.
type Nop struct{}

func (Nop) RecordAuthAttempt(string, error) {}
func (Nop) RecordGuardDecision(bool)        {}
func (Nop) RecordSessionEvent(string)       {}
