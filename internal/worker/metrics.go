package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry             *prometheus.Registry
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	failuresTotal        *prometheus.CounterVec
	activeRequests       prometheus.Gauge
	inputBytesTotal      prometheus.Counter
	outputBytesTotal     prometheus.Counter
	pixelsProcessedTotal prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyconvert_worker_requests_total",
			Help: "Total convert requests by source kind and final status.",
		}, []string{"kind", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easyconvert_worker_request_duration_seconds",
			Help:    "Processing duration of each convert request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easyconvert_worker_failures_total",
			Help: "Total failed convert requests by failure kind.",
		}, []string{"failure_kind"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "easyconvert_worker_active_requests",
			Help: "Current number of requests being processed.",
		}),
		inputBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "easyconvert_usage_input_bytes_total",
			Help: "Total source bytes fetched.",
		}),
		outputBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "easyconvert_usage_output_bytes_total",
			Help: "Total bytes of delivered renditions.",
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "easyconvert_usage_pixels_processed_total",
			Help: "Total pixels rendered across delivered requests.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.failuresTotal,
		m.activeRequests,
		m.inputBytesTotal,
		m.outputBytesTotal,
		m.pixelsProcessedTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
