package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Buckets pensados para llamadas a LLM: de milisegundos a más de un minuto.
	LLMBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89}

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ReflectionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflection_requests_total",
			Help: "Total number of reflection calls by outcome",
		},
		[]string{"outcome"},
	)

	ReflectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reflection_request_duration_seconds",
			Help:    "Duration of the outbound reflection call in seconds",
			Buckets: LLMBuckets,
		},
		[]string{"outcome"},
	)

	ImageIngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_ingest_total",
			Help: "Total number of ingested image files by outcome",
		},
		[]string{"outcome"},
	)

	DraftsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_drafts_created_total",
			Help: "Total number of wizard drafts created",
		},
	)

	DraftsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_drafts_submitted_total",
			Help: "Total number of wizard drafts submitted",
		},
	)
)

func ObserveReflection(outcome string, d time.Duration) {
	ReflectionTotal.WithLabelValues(outcome).Inc()
	ReflectionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func ObserveImageIngest(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	ImageIngestTotal.WithLabelValues(outcome).Inc()
}
