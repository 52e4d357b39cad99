package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guardians"

// Outcome labels for submitted attempts.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
)

// Metrics owns the collectors of the service and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	AttemptsStarted   *prometheus.CounterVec
	AttemptsSubmitted *prometheus.CounterVec
	LimitRejections   *prometheus.CounterVec
	ScorePercentage   prometheus.Histogram

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New builds the collectors on a fresh registry, with Go and process collectors included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AttemptsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_attempts_started_total",
				Help:      "Total number of quiz attempts started",
			},
			[]string{"quiz_id"},
		),
		AttemptsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_attempts_submitted_total",
				Help:      "Total number of graded quiz attempts by outcome",
			},
			[]string{"quiz_id", "outcome"},
		),
		LimitRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_attempt_limit_rejections_total",
				Help:      "Attempt starts refused because the attempt limit was reached",
			},
			[]string{"quiz_id"},
		),
		ScorePercentage: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quiz_attempt_percentage",
				Help:      "Distribution of graded attempt percentages",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AttemptsStarted,
		m.AttemptsSubmitted,
		m.LimitRejections,
		m.ScorePercentage,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AttemptStarted implements service.AttemptRecorder.
func (m *Metrics) AttemptStarted(quizID string) {
	m.AttemptsStarted.WithLabelValues(quizID).Inc()
}

// AttemptSubmitted implements service.AttemptRecorder.
func (m *Metrics) AttemptSubmitted(quizID string, percentage int, passed bool) {
	outcome := OutcomeFailed
	if passed {
		outcome = OutcomePassed
	}
	m.AttemptsSubmitted.WithLabelValues(quizID, outcome).Inc()
	m.ScorePercentage.Observe(float64(percentage))
}

// AttemptLimitRejected implements service.AttemptRecorder.
func (m *Metrics) AttemptLimitRejected(quizID string) {
	m.LimitRejections.WithLabelValues(quizID).Inc()
}
