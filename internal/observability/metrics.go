// Package observability holds Prometheus collectors and OpenTelemetry setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prismic_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// InferenceLatency records Hugging Face inference call latency by task and model.
	InferenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prismic_inference_latency_seconds",
		Help:    "Upstream inference call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"task", "model"})

	// InferenceErrors counts upstream inference failures by task and kind.
	InferenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prismic_inference_errors_total",
		Help: "Total number of upstream inference failures",
	}, []string{"task", "kind"})

	// MediaUploadBytes counts bytes shipped to the media store.
	MediaUploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prismic_media_upload_bytes_total",
		Help: "Total number of bytes uploaded to the media store",
	})

	// WebSocketConnectionsTotal is the gauge of active feed WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "prismic_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts published feed events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prismic_websocket_events_total",
		Help: "Total feed events by type",
	}, []string{"event_type"})
)

// ObserveInference records the latency of one upstream inference call.
func ObserveInference(task, model string, start time.Time) {
	InferenceLatency.WithLabelValues(task, model).Observe(time.Since(start).Seconds())
}
