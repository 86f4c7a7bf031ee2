// Package metrics Prometheus指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "harness_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HarnessTransitionsTotal 线束状态流转次数
	HarnessTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_transitions_total",
			Help: "Harness lifecycle transitions",
		},
		[]string{"action", "from", "to"},
	)

	ReportUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harness_report_uploads_total",
			Help: "Uploaded harness documents by type",
		},
		[]string{"type"},
	)

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "harness_sse_clients",
		Help: "Connected event stream clients",
	})
)

// RecordTransition 记录一次状态流转
func RecordTransition(action, from, to string) {
	HarnessTransitionsTotal.WithLabelValues(action, from, to).Inc()
}
