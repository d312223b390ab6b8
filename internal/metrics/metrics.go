package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "text2image",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "text2image",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)

	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "text2image",
			Name:      "generations_total",
			Help:      "Total image generations by outcome",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "text2image",
			Name:      "generation_duration_seconds",
			Help:      "Model time spent producing one image",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "text2image",
			Name:      "translations_total",
			Help:      "Total prompt translations by outcome",
		},
		[]string{"status"},
	)

	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "text2image",
			Name:      "model_loads_total",
			Help:      "Model construction attempts by outcome",
		},
		[]string{"status"},
	)

	ArchiveUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "text2image",
			Name:      "archive_uploads_total",
			Help:      "Archive uploads by content type and outcome",
		},
		[]string{"content_type", "status"},
	)
)

func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

func RecordGeneration(status string, durationSec float64) {
	GenerationsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		GenerationDuration.Observe(durationSec)
	}
}

func RecordTranslation(status string) {
	TranslationsTotal.WithLabelValues(status).Inc()
}

func RecordModelLoad(status string) {
	ModelLoadsTotal.WithLabelValues(status).Inc()
}

func RecordArchiveUpload(contentType, status string) {
	ArchiveUploadsTotal.WithLabelValues(contentType, status).Inc()
}
