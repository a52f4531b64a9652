package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	visionCalls    *prometheus.CounterVec
	analysisCache  *prometheus.CounterVec
	encodeAttempts prometheus.Histogram
	encodedBytes   prometheus.Histogram
	encodeFloor    prometheus.Counter
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userflow_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "userflow_http_request_duration_ms",
				Help:    "Latency of HTTP requests in milliseconds",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
			},
			[]string{"method", "route"},
		),
		visionCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userflow_vision_calls_total",
				Help: "Vision provider calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		analysisCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "userflow_analysis_cache_total",
				Help: "Screen analysis cache lookups by result",
			},
			[]string{"result"},
		),
		encodeAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "userflow_image_encode_attempts",
				Help:    "Encode passes needed to fit a screenshot under the size ceiling",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		encodedBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "userflow_image_encoded_bytes",
				Help:    "Size of stored screenshots in bytes",
				Buckets: prometheus.ExponentialBuckets(32*1024, 2, 8),
			},
		),
		encodeFloor: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "userflow_image_encode_floor_total",
				Help: "Screenshots stored above the ceiling because the dimension floor was reached",
			},
		),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, latency time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(float64(latency.Milliseconds()))
}

func (m *Metrics) ObserveVisionCall(operation, outcome string) {
	m.visionCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveAnalysisCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.analysisCache.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveEncode(attempts int, size int64, floorReached bool) {
	m.encodeAttempts.Observe(float64(attempts))
	m.encodedBytes.Observe(float64(size))
	if floorReached {
		m.encodeFloor.Inc()
	}
}
