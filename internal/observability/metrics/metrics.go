package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics exposes counters for the authentication flows. A nil receiver
// is a no-op so handlers never need to guard.
type AuthMetrics struct {
	loginsTotal    *prometheus.CounterVec
	exchangesTotal *prometheus.CounterVec
	sessionChecks  *prometheus.CounterVec
}

func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdental",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Password login attempts by outcome",
		}, []string{"status"}),
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdental",
			Subsystem: "auth",
			Name:      "exchanges_total",
			Help:      "Identity provider token exchanges by outcome",
		}, []string{"status"}),
		sessionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdental",
			Subsystem: "auth",
			Name:      "session_checks_total",
			Help:      "Session identification checks by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.loginsTotal, m.exchangesTotal, m.sessionChecks)
	return m
}

func (m *AuthMetrics) ObserveLogin(status string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(status).Inc()
}

func (m *AuthMetrics) ObserveExchange(status string) {
	if m == nil {
		return
	}
	m.exchangesTotal.WithLabelValues(status).Inc()
}

func (m *AuthMetrics) ObserveSessionCheck(status string) {
	if m == nil {
		return
	}
	m.sessionChecks.WithLabelValues(status).Inc()
}

// RequestMetrics exposes request counts and latency for the HTTP API.
type RequestMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	m := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdental",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status class",
		}, []string{"method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mdental",
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency)
	return m
}

func (m *RequestMetrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.requestLatency.WithLabelValues(method).Observe(seconds)
}
