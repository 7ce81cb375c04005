// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the LLM and email counters
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeLogged      = "logged"
)

// Collector owns a registry and every application metric. All methods are
// safe to call on a nil *Collector, which records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LLMRequests   *prometheus.CounterVec
	AgentFallback prometheus.Counter
	EmailsSent    *prometheus.CounterVec
}

// New creates a collector with its own registry, including the Go runtime and
// process collectors.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LLMRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM provider calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		AgentFallback: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_fallback_total",
				Help: "Replies produced by the rule based fallback",
			},
		),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emails_sent_total",
				Help: "Verification emails by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.LLMRequests,
		c.AgentFallback,
		c.EmailsSent,
	)
	return c
}

// Registry returns the registry backing the collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTP records one finished request
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// LLMRequest counts one provider call
func (c *Collector) LLMRequest(provider, outcome string) {
	if c == nil {
		return
	}
	c.LLMRequests.WithLabelValues(provider, outcome).Inc()
}

// Fallback counts one rule based reply
func (c *Collector) Fallback() {
	if c == nil {
		return
	}
	c.AgentFallback.Inc()
}

// EmailSent counts one email delivery attempt
func (c *Collector) EmailSent(outcome string) {
	if c == nil {
		return
	}
	c.EmailsSent.WithLabelValues(outcome).Inc()
}
