package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	gradingAttemptsTotal    *prometheus.CounterVec
	submissionsUploadedVec  *prometheus.CounterVec
	notificationsPublished  *prometheus.CounterVec
	sseClientsActiveGauge   prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atrium",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atrium",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atrium",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atrium",
			Name:      "grading_attempts_total",
			Help:      "Grading pipeline attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"})

		submissionsUploadedVec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atrium",
			Name:      "submissions_uploaded_total",
			Help:      "Submissions stored, labelled by initial status.",
		}, []string{"status"})

		notificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atrium",
			Name:      "notifications_published_total",
			Help:      "Notifications published, labelled by type.",
		}, []string{"type"})

		sseClientsActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atrium",
			Name:      "sse_clients_active",
			Help:      "Number of currently connected SSE notification clients.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingAttemptsTotal,
			submissionsUploadedVec,
			notificationsPublished,
			sseClientsActiveGauge,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingAttempts exposes the grading pipeline counter.
func GradingAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingAttemptsTotal
}

// SubmissionsUploaded exposes the upload counter.
func SubmissionsUploaded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsUploadedVec
}

// NotificationsPublishedTotal exposes the notification counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublished
}

// SSEClientsActive exposes the SSE client gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActiveGauge
}
