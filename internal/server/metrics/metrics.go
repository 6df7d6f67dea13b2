// Package metrics holds the sync server's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is registered on its own registry so tests can build as many
// servers as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveRequests      prometheus.Gauge

	SyncOperations     *prometheus.CounterVec
	SyncPayloadEntries *prometheus.HistogramVec
	StoreDuration      *prometheus.HistogramVec
	CacheResults       *prometheus.CounterVec
	AuthAttempts       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Current number of active HTTP requests",
			},
		),
		SyncOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemma_sync_operations_total",
				Help: "Sync operations by kind and outcome",
			},
			[]string{"operation", "status"}, // download/upload/reset, success/failure
		),
		SyncPayloadEntries: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hemma_sync_payload_entries",
				Help:    "Entries per sync payload",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"direction"}, // in, out
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hemma_store_operation_duration_seconds",
				Help:    "Duration of store operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		CacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemma_snapshot_cache_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"}, // hit, miss, error
		),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hemma_auth_attempts_total",
				Help: "Authentication attempts",
			},
			[]string{"type", "status"},
		),
	}
}

// Middleware records request count and latency, labelled by route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.ActiveRequests.Inc()
		defer m.ActiveRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackStore times one store operation; call ObserveDuration on the result.
func (m *Metrics) TrackStore(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.StoreDuration.WithLabelValues(operation))
}

func (m *Metrics) TrackSync(operation string, err error) {
	m.SyncOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) TrackAuth(kind string, err error) {
	m.AuthAttempts.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) TrackCache(result string) {
	m.CacheResults.WithLabelValues(result).Inc()
}

func (m *Metrics) TrackPayload(direction string, entries int) {
	m.SyncPayloadEntries.WithLabelValues(direction).Observe(float64(entries))
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
