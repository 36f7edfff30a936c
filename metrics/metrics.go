// Package metrics exposes Prometheus instrumentation for the HTTP surface and
// the task lifecycle. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	TaskMutations     *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	UploadFailures    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmanager",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskmanager",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TaskMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmanager",
			Subsystem: "tasks",
			Name:      "mutations_total",
			Help:      "Successful task writes by operation.",
		}, []string{"operation"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskmanager",
			Subsystem: "tasks",
			Name:      "status_transitions_total",
			Help:      "Status values written by task mutations.",
		}, []string{"status"}),
		UploadFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "taskmanager",
			Subsystem: "uploads",
			Name:      "failures_total",
			Help:      "Image uploads rejected by storage or the circuit breaker.",
		}),
	}
}

func (m *Metrics) TaskMutation(operation string) {
	if m == nil {
		return
	}
	m.TaskMutations.WithLabelValues(operation).Inc()
}

func (m *Metrics) StatusTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) UploadFailed() {
	if m == nil {
		return
	}
	m.UploadFailures.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labelled by the matched mux
// route template, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
