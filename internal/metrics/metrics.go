// Package metrics defines the Prometheus metrics of the API server. It is the
// single source of truth for metric names, labels, and help strings.
//
// Metrics are registered on a private registry rather than the global one so
// every test can build its own Metrics without duplicate-registration panics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/snippet-vault/internal/executor"
)

const namespace = "snippet_vault"

// Metrics holds every collector the server exports.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests.
	// Labels: method, route (chi pattern, e.g. "/api/snippets/{id}"), status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes HTTP latency in seconds.
	RequestDuration *prometheus.HistogramVec

	// ExecutionsTotal counts code executions.
	// Labels: language, outcome ("ok", "nonzero_exit", "timeout", "error").
	ExecutionsTotal *prometheus.CounterVec

	// ExecutionDuration observes execution latency in seconds.
	ExecutionDuration *prometheus.HistogramVec

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter
}

// New creates and registers all metrics, plus the Go runtime and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ExecutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Total number of code executions by outcome.",
		}, []string{"language", "outcome"}),
		ExecutionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Code execution latency in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"language"}),
		RateLimitedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Instrument wraps exec so every execution is counted and timed.
func (m *Metrics) Instrument(exec executor.Executor) executor.Executor {
	return &instrumented{next: exec, m: m}
}

type instrumented struct {
	next executor.Executor
	m    *Metrics
}

func (i *instrumented) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	start := time.Now()
	res, err := i.next.Execute(ctx, req)

	outcome := "ok"
	switch {
	case errors.Is(err, executor.ErrUnsupportedLanguage):
		outcome = "unsupported"
	case err != nil:
		outcome = "error"
	case res.Run.Code == executor.TimeoutExitCode:
		outcome = "timeout"
	case res.Run.Code != 0:
		outcome = "nonzero_exit"
	}

	i.m.ExecutionsTotal.WithLabelValues(req.Language, outcome).Inc()
	i.m.ExecutionDuration.WithLabelValues(req.Language).Observe(time.Since(start).Seconds())
	return res, err
}
