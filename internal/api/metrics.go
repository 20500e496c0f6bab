package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	updateQueued      = "queued"
	updateIgnored     = "ignored"
	updateUnsupported = "unsupported"
	updateFileMissing = "file_missing"
	updateRateLimited = "rate_limited"
	updateFailed      = "enqueue_failed"
)

type metrics struct {
	registry          *prometheus.Registry
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	updatesTotal      *prometheus.CounterVec
	rateLimitRejected prometheus.Counter
	queueEnqueued     *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyconvert_api_requests_total",
			Help: "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easyconvert_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		updatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyconvert_api_updates_total",
			Help: "Telegram updates by handling result.",
		}, []string{"result"}),
		rateLimitRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "easyconvert_api_rate_limit_rejections_total",
			Help: "Total updates rejected by the per-chat rate limit.",
		}),
		queueEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyconvert_queue_requests_enqueued_total",
			Help: "Total convert requests enqueued to the processing queue.",
		}, []string{"queue"}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.updatesTotal,
		m.rateLimitRejected,
		m.queueEnqueued,
	)
	return m
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) withHTTPMetrics(next http.Handler, route func(string) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		label := route(r.URL.Path)
		status := strconv.Itoa(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, label, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, label, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
