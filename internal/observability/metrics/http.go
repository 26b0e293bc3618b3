package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal     *prometheus.CounterVec
	ragRetrievedArticles *prometheus.HistogramVec
	ragDuration          *prometheus.HistogramVec
	ragGateTotal         *prometheus.CounterVec
	ragStageDuration     *prometheus.HistogramVec
	translationTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful retrieval requests.",
		},
		[]string{"service", "endpoint"},
	)
	ragRetrievedArticles := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "retrieved_articles",
			Help:      "Distribution of articles retrieved per successful request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	ragGateTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "gate_total",
			Help:      "Total answer requests by evidence gate outcome.",
		},
		[]string{"service", "endpoint", "outcome"},
	)
	ragStageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by flow and stage.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "flow", "stage"},
	)
	translationTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "rag",
			Name:      "translation_total",
			Help:      "Total query normalizations by path.",
		},
		[]string{"service", "path"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragRetrievedArticles,
		ragDuration,
		ragGateTotal,
		ragStageDuration,
		translationTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		ragRequestsTotal:     ragRequestsTotal,
		ragRetrievedArticles: ragRetrievedArticles,
		ragDuration:          ragDuration,
		ragGateTotal:         ragGateTotal,
		ragStageDuration:     ragStageDuration,
		translationTotal:     translationTotal,
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

// normalizePath collapses unrecognized paths so probe traffic cannot mint
// new label values.
func normalizePath(path string) string {
	switch path {
	case "/api/search",
		"/api/search_with_progress",
		"/api/rag_qa",
		"/api/rag_qa_with_progress",
		"/api/translate",
		"/api/stats",
		"/api/health",
		"/metrics":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordRetrieval(service, endpoint string, articleCount int, duration time.Duration) {
	m.ragRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.ragRetrievedArticles.WithLabelValues(service, endpoint).Observe(float64(articleCount))
	m.ragDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordGateOutcome(service, endpoint string, passed bool) {
	outcome := "passed"
	if !passed {
		outcome = "insufficient"
	}
	m.ragGateTotal.WithLabelValues(service, endpoint, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordTranslation(service string, translated bool) {
	path := "fast"
	if translated {
		path = "translated"
	}
	m.translationTotal.WithLabelValues(service, path).Inc()
}

func (m *HTTPServerMetrics) ObserveStage(service, flow, stage string, duration time.Duration) {
	if stage == "" {
		stage = "unknown"
	}
	m.ragStageDuration.WithLabelValues(service, flow, stage).Observe(duration.Seconds())
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
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
