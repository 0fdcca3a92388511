package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	draftsCreated      prometheus.Counter
	submissions        *prometheus.CounterVec
	sentimentFallbacks prometheus.Counter
	staleLookups       *prometheus.CounterVec
	lookupFailures     *prometheus.CounterVec
}

// NewMetrics initializes collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdesk_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ticketdesk_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdesk_http_errors_total",
			Help: "HTTP errors by route, method and error code.",
		}, []string{"path", "method", "code"}),
		draftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdesk_drafts_created_total",
			Help: "Ticket drafts opened.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdesk_submissions_total",
			Help: "Ticket submissions by outcome.",
		}, []string{"outcome"}),
		sentimentFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdesk_sentiment_fallbacks_total",
			Help: "Submissions that used the fallback sentiment.",
		}),
		staleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdesk_stale_lookups_total",
			Help: "Lookup results discarded because the selection changed.",
		}, []string{"kind"}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdesk_lookup_failures_total",
			Help: "Backend lookups that failed and degraded to an empty list.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.requests, m.requestLatency, m.errors,
		m.draftsCreated, m.submissions, m.sentimentFallbacks,
		m.staleLookups, m.lookupFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// DraftCreated counts a newly opened draft.
func (m *Metrics) DraftCreated() {
	if m == nil {
		return
	}
	m.draftsCreated.Inc()
}

// Submission counts a submission outcome ("created" or "failed").
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// SentimentFallback counts a fallback sentiment result.
func (m *Metrics) SentimentFallback() {
	if m == nil {
		return
	}
	m.sentimentFallbacks.Inc()
}

// StaleLookup counts a discarded lookup result.
func (m *Metrics) StaleLookup(kind string) {
	if m == nil {
		return
	}
	m.staleLookups.WithLabelValues(kind).Inc()
}

// LookupFailure counts a failed lookup.
func (m *Metrics) LookupFailure(kind string) {
	if m == nil {
		return
	}
	m.lookupFailures.WithLabelValues(kind).Inc()
}
