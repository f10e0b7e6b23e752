package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobsTotal     *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobsInFlight  prometheus.Gauge
	extractedSize *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docu",
			Subsystem: "extractor",
			Name:      "jobs_total",
			Help:      "Total processed extraction jobs by status.",
		},
		[]string{"service", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docu",
			Subsystem: "extractor",
			Name:      "job_duration_seconds",
			Help:      "Extraction job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docu",
			Subsystem: "extractor",
			Name:      "jobs_in_flight",
			Help:      "Number of extraction jobs currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	extractedSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docu",
			Subsystem: "extractor",
			Name:      "extracted_text_bytes",
			Help:      "Distribution of extracted text sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"service"},
	)

	registry.MustRegister(jobsTotal, jobDuration, jobsInFlight, extractedSize)

	return &WorkerMetrics{
		registry:      registry,
		jobsTotal:     jobsTotal,
		jobDuration:   jobDuration,
		jobsInFlight:  jobsInFlight,
		extractedSize: extractedSize,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobsInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.jobsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.jobsTotal.WithLabelValues(service, status).Inc()
	m.jobDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveExtractedText(service string, sizeBytes int) {
	if sizeBytes <= 0 {
		return
	}
	m.extractedSize.WithLabelValues(service).Observe(float64(sizeBytes))
}
