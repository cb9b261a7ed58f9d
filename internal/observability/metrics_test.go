package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.SetSessionStores(3)

	body := scrape(t, metrics)
	if !strings.Contains(body, "hostelhub_session_stores 3") {
		t.Fatalf("expected body to contain session gauge, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "hostelhub_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "hostelhub_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestAuthCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveLogin("success")
	metrics.ObserveLogin("invalid")
	metrics.ObserveLogin("invalid")
	metrics.ObserveGuardDecision("denied")

	body := scrape(t, metrics)
	for _, want := range []string{
		`hostelhub_logins_total{outcome="invalid"} 2`,
		`hostelhub_logins_total{outcome="success"} 1`,
		`hostelhub_guard_decisions_total{decision="denied"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestSweepMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.SetSessionStores(4)
	metrics.ObserveSweep(2, time.Millisecond)
	metrics.ObserveSweep(1, time.Millisecond)

	body := scrape(t, metrics)
	for _, want := range []string{
		"hostelhub_session_stores 4",
		"hostelhub_session_sweeps_total 2",
		"hostelhub_session_evictions_total 3",
		"hostelhub_session_sweep_duration_seconds_count 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveLogin("success")
	metrics.ObserveGuardDecision("allow")
	metrics.SetSessionStores(1)
	metrics.ObserveSweep(3, time.Millisecond)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
