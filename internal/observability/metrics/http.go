// Package metrics holds the prometheus registries for both services.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal   *prometheus.CounterVec
	uploadBytes    *prometheus.HistogramVec
	batchSize      *prometheus.HistogramVec
	triggersTotal  *prometheus.CounterVec
	callbacksTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docu",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docu",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docu",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docu",
			Subsystem: "ingest",
			Name:      "uploads_total",
			Help:      "Total per-file upload outcomes by resulting status.",
		},
		[]string{"service", "status"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docu",
			Subsystem: "ingest",
			Name:      "upload_bytes",
			Help:      "Distribution of uploaded file sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"service"},
	)
	batchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docu",
			Subsystem: "ingest",
			Name:      "batch_size",
			Help:      "Distribution of files per batch upload.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	triggersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docu",
			Subsystem: "ingest",
			Name:      "extraction_triggers_total",
			Help:      "Total extraction trigger attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	callbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docu",
			Subsystem: "ingest",
			Name:      "extraction_callbacks_total",
			Help:      "Total received extraction callbacks by outcome and result.",
		},
		[]string{"service", "outcome", "result"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadBytes,
		batchSize,
		triggersTotal,
		callbacksTotal,
	)

	return &HTTPServerMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		uploadsTotal:    uploadsTotal,
		uploadBytes:     uploadBytes,
		batchSize:       batchSize,
		triggersTotal:   triggersTotal,
		callbacksTotal:  callbacksTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses identifier segments so each route stays a
// single metrics series.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/conversations/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/conversations/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[1] == "files":
		return "/v1/conversations/{conversation_id}/files"
	case len(parts) == 3 && parts[1] == "files":
		return "/v1/conversations/{conversation_id}/files/{file_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, status string, sizeBytes int64) {
	if status == "" {
		status = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, status).Inc()
	if sizeBytes > 0 {
		m.uploadBytes.WithLabelValues(service).Observe(float64(sizeBytes))
	}
}

func (m *HTTPServerMetrics) RecordBatch(service string, files int) {
	m.batchSize.WithLabelValues(service).Observe(float64(files))
}

func (m *HTTPServerMetrics) RecordTrigger(service, outcome string) {
	m.triggersTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordCallback(service, outcome, result string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.callbacksTotal.WithLabelValues(service, outcome, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
