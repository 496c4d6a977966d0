package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAuthMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	m.ObserveLogin("ok")
	m.ObserveLogin("ok")
	m.ObserveLogin("rejected")
	m.ObserveExchange("pending")
	m.ObserveSessionCheck("ok")

	if got := testutil.ToFloat64(m.loginsTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("logins ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.loginsTotal.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("logins rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.exchangesTotal.WithLabelValues("pending")); got != 1 {
		t.Fatalf("exchanges pending = %v, want 1", got)
	}
}

func TestAuthMetricsNilSafe(t *testing.T) {
	var m *AuthMetrics
	m.ObserveLogin("ok")
	m.ObserveExchange("ok")
	m.ObserveSessionCheck("ok")
}

func TestRequestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRequestMetrics(reg)

	m.ObserveRequest("GET", "2xx", 0.05)
	m.ObserveRequest("GET", "2xx", 0.10)
	m.ObserveRequest("POST", "4xx", 0.01)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "2xx")); got != 2 {
		t.Fatalf("GET 2xx = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "4xx")); got != 1 {
		t.Fatalf("POST 4xx = %v, want 1", got)
	}

	names, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, mf := range names {
		if strings.HasPrefix(mf.GetName(), "mdental_http_") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected mdental_http_ metrics in registry")
	}
}

func TestRequestMetricsNilSafe(t *testing.T) {
	var m *RequestMetrics
	m.ObserveRequest("GET", "2xx", 0.01)
}
