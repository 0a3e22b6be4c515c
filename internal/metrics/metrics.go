// Package metrics exposes Prometheus collectors for the categorizer.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	domainsTotal               *prometheus.CounterVec
	domainsInFlight            prometheus.Gauge
	stageDurationSeconds       *prometheus.HistogramVec
	recordsTotal               *prometheus.CounterVec
	sinkWriteErrorsTotal       *prometheus.CounterVec
	rateLimitDelaySeconds      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		domainsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categorizer_domains_total",
				Help: "Domains that reached a terminal state, labeled by state and failure reason.",
			},
			[]string{"state", "reason"},
		)

		domainsInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "categorizer_domains_in_flight",
				Help: "Number of domain workflows currently running.",
			},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "categorizer_stage_duration_seconds",
				Help:    "Duration of each workflow stage.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categorizer_records_total",
				Help: "Records appended to a result log.",
			},
			[]string{"log"},
		)

		sinkWriteErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categorizer_sink_write_errors_total",
				Help: "Records dropped because an appender failed.",
			},
			[]string{"log"},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "categorizer_rate_limit_delay_seconds",
				Help:    "Histogram of completion rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "categorizer_http_requests_total",
				Help: "Total number of API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "categorizer_http_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDomain counts a domain reaching a terminal state.
func ObserveDomain(state, reason string) {
	Init()
	domainsTotal.WithLabelValues(state, reason).Inc()
}

// IncInFlight increments the in-flight gauge.
func IncInFlight() {
	Init()
	domainsInFlight.Inc()
}

// DecInFlight decrements the in-flight gauge.
func DecInFlight() {
	Init()
	domainsInFlight.Dec()
}

// ObserveStage records how long a workflow stage took.
func ObserveStage(stage string, d time.Duration) {
	Init()
	stageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRecord counts a record appended to the named log.
func ObserveRecord(log string) {
	Init()
	recordsTotal.WithLabelValues(log).Inc()
}

// ObserveSinkWriteError counts a record an appender failed to persist.
func ObserveSinkWriteError(log string) {
	Init()
	sinkWriteErrorsTotal.WithLabelValues(log).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(d time.Duration) {
	Init()
	rateLimitDelaySeconds.Observe(d.Seconds())
}

// ObserveHTTPRequest increments the API request metrics.
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
