package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce      sync.Once
	gradingRuns       prometheus.Counter
	gradingAnswers    *prometheus.CounterVec
	gradingRunSeconds prometheus.Histogram
	gradeSavesTotal   *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	httpErrors        *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the grading core.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingRuns = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_runs_total",
			Help: "Total number of AI grading passes executed.",
		})

		gradingAnswers = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_answers_total",
			Help: "Per-answer scoring outcomes across all grading runs.",
		}, []string{"outcome"})

		gradingRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_run_duration_seconds",
			Help:    "Wall-clock duration of full grading passes.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		})

		gradeSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grade_saves_total",
			Help: "Grade save attempts by result.",
		}, []string{"result"})

		httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "API requests by method, route and status.",
		}, []string{"method", "route", "status"})

		httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		httpErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "API requests answered with a 4xx or 5xx status.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(gradingRuns, gradingAnswers, gradingRunSeconds, gradeSavesTotal,
			httpRequests, httpLatency, httpErrors)
	})
}

// GradingRuns exposes the counter for executed grading passes.
func GradingRuns() prometheus.Counter {
	RegisterMetrics()
	return gradingRuns
}

// GradingAnswers exposes the per-outcome answer counter.
func GradingAnswers() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingAnswers
}

// GradingRunDuration exposes the grading pass duration histogram.
func GradingRunDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingRunSeconds
}

// GradeSaves exposes the save-result counter.
func GradeSaves() *prometheus.CounterVec {
	RegisterMetrics()
	return gradeSavesTotal
}

// HTTPRequests exposes the per-route request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequests
}

// HTTPLatency exposes the per-route latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatency
}

// HTTPErrors exposes the per-route error counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrors
}
