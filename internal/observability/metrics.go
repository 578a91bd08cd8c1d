// Package observability exposes the Prometheus registry and the collectors used across the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/fruitline/fruitline/internal/jobs"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	jobs             *jobmetrics.Metrics
}

// NewMetrics builds the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fruitline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fruitline_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fruitline_upstream_requests_total",
		Help: "Calls to the upstream REST API by method and status code.",
	}, []string{"method", "code"})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fruitline_upstream_request_duration_seconds",
		Help:    "Upstream REST API latency by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fruitline_trip_transitions_total",
		Help: "Trip status transitions by event and result.",
	}, []string{"event", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fruitline_pos_checkouts_total",
		Help: "POS checkouts by mode and result.",
	}, []string{"mode", "result"})
	registry.MustRegister(requests, duration, upstream, upstreamDuration, transitions, checkouts)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		upstreamTotal:    upstream,
		upstreamDuration: upstreamDuration,
		transitions:      transitions,
		checkouts:        checkouts,
		jobs:             jobmetrics.NewMetrics(registry),
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

// Middleware records metrics for every HTTP request.
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

// ObserveUpstream records one upstream call. status is 0 when no response arrived.
func (m *Metrics) ObserveUpstream(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveTransition counts a trip status change attempt.
func (m *Metrics) ObserveTransition(event string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, result(err)).Inc()
}

// ObserveCheckout counts a checkout attempt.
func (m *Metrics) ObserveCheckout(mode string, err error) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(mode, result(err)).Inc()
}

// ObserveCompensation counts sales deleted to undo a partial checkout.
func (m *Metrics) ObserveCompensation(path string, count int) {
	if m == nil {
		return
	}
	m.jobs.AddCompensation(path, count)
}

// Jobs exposes the background job collectors registered on this registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
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
