package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics exposed by the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	sweeps          prometheus.Counter
	evictions       prometheus.Counter
	sweepDuration   prometheus.Histogram
}

// NewMetrics initialises the registry and the application metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelhub_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostelhub_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelhub_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostelhub_guard_decisions_total",
		Help: "Route guard decisions by kind.",
	}, []string{"decision"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hostelhub_session_stores",
		Help: "Browser session stores held in memory.",
	})
	sweeps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostelhub_session_sweeps_total",
		Help: "Idle session store sweeps run.",
	})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostelhub_session_evictions_total",
		Help: "Session stores evicted for inactivity.",
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hostelhub_session_sweep_duration_seconds",
		Help:    "Time spent sweeping idle session stores.",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1},
	})
	registry.MustRegister(requests, duration, logins, decisions, sessions, sweeps, evictions, sweepDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		loginsTotal:     logins,
		guardDecisions:  decisions,
		activeSessions:  sessions,
		sweeps:          sweeps,
		evictions:       evictions,
		sweepDuration:   sweepDuration,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveLogin counts a login attempt outcome.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGuardDecision counts a route guard decision.
func (m *Metrics) ObserveGuardDecision(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// SetSessionStores reports how many session stores are resident.
func (m *Metrics) SetSessionStores(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObserveSweep records one idle store sweep.
func (m *Metrics) ObserveSweep(evicted int, took time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.evictions.Add(float64(evicted))
	m.sweepDuration.Observe(took.Seconds())
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
